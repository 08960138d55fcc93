package middleware

import (
	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/scope"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequired checks the caller's role in the database rather than
// trusting the token claim, so demotions take effect immediately.
func AdminRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := scope.CurrentUserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.Scopes(scope.ActiveUsers).First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		if user.Role != models.RoleAdmin || !user.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		return c.Next()
	}
}
