package handlers

import (
	"errors"
	"strings"

	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	users *services.UserService
}

func NewProfileHandler(users *services.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	return c.JSON(dto.ProfileResponse{
		Username:          user.Username,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		MiddleName:        user.MiddleName,
		PublicContactInfo: user.PublicContactInfo,
		AvatarPath:        user.AvatarPath,
	})
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid request body",
		})
	}

	if err := h.users.UpdateProfile(user, &req); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidUsername):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "username must be 3-50 characters of letters, digits and underscores",
			})
		case errors.Is(err, services.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "username is already taken",
			})
		default:
			return internalError(c)
		}
	}

	return c.JSON(dto.ProfileResponse{
		Username:          user.Username,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		MiddleName:        user.MiddleName,
		PublicContactInfo: user.PublicContactInfo,
		AvatarPath:        user.AvatarPath,
	})
}

func (h *ProfileHandler) ChangePassword(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid request body",
		})
	}

	if err := h.users.ChangePassword(user, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrWrongPassword):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "current password is incorrect",
			})
		case errors.Is(err, services.ErrSamePassword):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "new password must differ from the current one",
			})
		case errors.Is(err, services.ErrWeakPassword):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "password must be 8-64 characters with upper, lower, digit and special characters",
			})
		default:
			return internalError(c)
		}
	}

	return c.JSON(fiber.Map{"message": "password changed"})
}

// UploadAvatar replaces the caller's avatar with an uploaded image file.
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "avatar file is required",
		})
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "avatar must be an image",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return internalError(c)
	}
	defer src.Close()

	if err := h.users.UpdateAvatar(user, fileHeader.Filename, src); err != nil {
		return internalError(c)
	}

	return c.JSON(fiber.Map{"avatar_path": user.AvatarPath})
}

// InitiateReset starts the password reset workflow for an account.
func (h *ProfileHandler) InitiateReset(c *fiber.Ctx) error {
	var req dto.InitiateResetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid request body",
		})
	}

	code, err := h.users.InitiatePasswordReset(req.Username)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "user not found",
			})
		}
		return internalError(c)
	}

	// There is no SMS gateway wired up, so the code comes back in the
	// response for the client to display.
	return c.JSON(fiber.Map{"message": "reset code issued", "code": code})
}

func (h *ProfileHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid request body",
		})
	}

	if err := h.users.VerifyResetCode(req.Username, req.Code); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "reset code is invalid or expired",
		})
	}

	return c.JSON(fiber.Map{"message": "code verified"})
}

func (h *ProfileHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid request body",
		})
	}

	if err := h.users.ResetPassword(req.Username, req.Code, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResetCode), errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "reset code is invalid or expired",
			})
		case errors.Is(err, services.ErrWeakPassword):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "password must be 8-64 characters with upper, lower, digit and special characters",
			})
		default:
			return internalError(c)
		}
	}

	return c.JSON(fiber.Map{"message": "password has been reset"})
}
