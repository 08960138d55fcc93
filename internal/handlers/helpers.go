package handlers

import (
	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/scope"
	"github.com/calltrackhq/calltrack-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// currentUser resolves the authenticated, non-deleted account behind the
// request's JWT. The token itself is already verified by the JWT
// middleware.
func currentUser(c *fiber.Ctx, users *services.UserService) (*models.User, error) {
	userID, err := scope.CurrentUserID(c)
	if err != nil {
		return nil, err
	}
	return users.FindActiveByID(userID)
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: "Internal server error",
	})
}
