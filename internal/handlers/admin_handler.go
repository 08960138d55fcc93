package handlers

import (
	"errors"
	"log/slog"

	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/search"
	"github.com/calltrackhq/calltrack-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AdminHandler struct {
	users  *services.UserService
	seeder *services.SeedService
}

func NewAdminHandler(users *services.UserService, seeder *services.SeedService) *AdminHandler {
	return &AdminHandler{users: users, seeder: seeder}
}

// ListUsers returns one page of active accounts.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := search.NewPageRequest(c.QueryInt("page", 0), c.QueryInt("size", 10))

	users, info, err := h.users.ListActive(page)
	if err != nil {
		return internalError(c)
	}

	out := make([]dto.AdminUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.AdminUserResponse{
			ID:        u.ID,
			Username:  u.Username,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      string(u.Role),
			Enabled:   u.Enabled,
			CreatedAt: u.CreatedAt,
		})
	}

	return c.JSON(dto.UserListResponse{
		Users:         out,
		CurrentPage:   info.Page,
		TotalPages:    info.TotalPages,
		TotalElements: info.TotalElements,
		PageSize:      info.Size,
		HasNext:       info.HasNext,
		HasPrevious:   info.HasPrevious,
	})
}

func (h *AdminHandler) ChangeRole(c *fiber.Ctx) error {
	admin, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid user id",
		})
	}

	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid request body",
		})
	}

	if err := h.users.ChangeRole(admin, targetID, models.UserRole(req.Role)); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRole):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "role must be USER or ADMIN",
			})
		case errors.Is(err, services.ErrSelfAction):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "cannot change your own role",
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "user not found",
			})
		default:
			return internalError(c)
		}
	}

	return c.JSON(fiber.Map{"message": "role updated"})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	admin, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid user id",
		})
	}

	if err := h.users.SoftDelete(admin, targetID); err != nil {
		switch {
		case errors.Is(err, services.ErrSelfAction):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "cannot delete your own account",
			})
		case errors.Is(err, services.ErrLastAdmin):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "cannot delete the last administrator",
			})
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "user not found",
			})
		default:
			return internalError(c)
		}
	}

	return c.JSON(fiber.Map{"message": "user deleted"})
}

// Seed generates fake users with phone numbers and pairwise call history.
func (h *AdminHandler) Seed(c *fiber.Ctx) error {
	if err := h.seeder.Run(); err != nil {
		slog.Error("seeding failed", "error", err)
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "test data generated"})
}
