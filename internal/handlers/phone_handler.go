package handlers

import (
	"errors"

	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type PhoneHandler struct {
	phones *services.PhoneService
	users  *services.UserService
}

func NewPhoneHandler(phones *services.PhoneService, users *services.UserService) *PhoneHandler {
	return &PhoneHandler{phones: phones, users: users}
}

func (h *PhoneHandler) List(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	numbers, err := h.phones.ListForUser(user)
	if err != nil {
		return internalError(c)
	}

	out := make([]dto.PhoneNumberResponse, 0, len(numbers))
	for _, pn := range numbers {
		out = append(out, dto.PhoneNumberResponse{
			ID:        pn.ID,
			Phone:     pn.Phone,
			IsPrimary: pn.IsPrimary,
			CreatedAt: pn.CreatedAt,
		})
	}
	return c.JSON(out)
}

func (h *PhoneHandler) Add(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.AddPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid request body",
		})
	}

	pn, err := h.phones.AddPhoneNumber(user, req.Phone, req.Primary)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPhone):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "phone number is not valid",
			})
		case errors.Is(err, services.ErrDuplicatePhone):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "phone number is already registered",
			})
		default:
			return internalError(c)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(dto.PhoneNumberResponse{
		ID:        pn.ID,
		Phone:     pn.Phone,
		IsPrimary: pn.IsPrimary,
		CreatedAt: pn.CreatedAt,
	})
}

func (h *PhoneHandler) SetPrimary(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	phoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid phone number id",
		})
	}

	if err := h.phones.SetPrimaryPhone(user, phoneID); err != nil {
		if errors.Is(err, services.ErrPhoneNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "phone number not found",
			})
		}
		return internalError(c)
	}

	return c.JSON(fiber.Map{"message": "primary phone number updated"})
}

func (h *PhoneHandler) Remove(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	phoneID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "invalid phone number id",
		})
	}

	if err := h.phones.RemovePhoneNumber(user, phoneID); err != nil {
		switch {
		case errors.Is(err, services.ErrPhoneNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "phone number not found",
			})
		case errors.Is(err, services.ErrLastPhone):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "cannot remove the last phone number",
			})
		default:
			return internalError(c)
		}
	}

	return c.JSON(fiber.Map{"message": "phone number removed"})
}
