package handlers

import (
	"errors"

	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/scope"
	"github.com/calltrackhq/calltrack-backend/internal/search"
	"github.com/calltrackhq/calltrack-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type CallHandler struct {
	calls  *services.CallService
	phones *services.PhoneService
	users  *services.UserService
}

func NewCallHandler(calls *services.CallService, phones *services.PhoneService, users *services.UserService) *CallHandler {
	return &CallHandler{calls: calls, phones: phones, users: users}
}

// Search returns one page of the caller's filtered call history.
// Administrators see every call. All filter parameters are optional;
// malformed dates and numbers act as absent filters.
func (h *CallHandler) Search(c *fiber.Ctx) error {
	user, err := currentUser(c, h.users)
	if err != nil {
		return unauthorized(c)
	}

	sc := scope.ScopedToUser(user)
	if user.Role == models.RoleAdmin {
		sc = scope.AllUsers()
	}

	filter := search.CallFilter{
		Name:           c.Query("name"),
		MyNumbers:      c.Query("myNumbers"),
		Phone:          c.Query("phone"),
		CallType:       c.Query("callType"),
		StartDate:      c.Query("startDate"),
		EndDate:        c.Query("endDate"),
		MinCost:        search.ParseDecimal(c.Query("minCost")),
		MaxCost:        search.ParseDecimal(c.Query("maxCost")),
		PricePerMinute: search.ParseDecimal(c.Query("pricePerMinute")),
		MinPrice:       search.ParseDecimal(c.Query("minPrice")),
		MaxPrice:       search.ParseDecimal(c.Query("maxPrice")),
	}

	page := search.NewPageRequest(c.QueryInt("page", 0), c.QueryInt("size", 10))

	resp, err := h.calls.SearchCalls(sc, filter, c.Query("sortBy", "date"), c.Query("sortDir", "desc"), page)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(resp)
}

// UserInfo resolves a phone number to its owner's public profile. Numbers
// of disabled or deleted accounts behave like unknown numbers.
func (h *CallHandler) UserInfo(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "phone query parameter is required",
		})
	}

	pn, err := h.phones.FindByPhone(phone)
	if err != nil {
		if errors.Is(err, services.ErrPhoneNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "phone number not found",
			})
		}
		return internalError(c)
	}

	if !pn.User.IsActive() {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "phone number not found",
		})
	}

	return c.JSON(dto.PublicUserResponse{
		FirstName:         pn.User.FirstName,
		LastName:          pn.User.LastName,
		MiddleName:        pn.User.MiddleName,
		Phone:             phone,
		AvatarPath:        pn.User.AvatarPath,
		PublicContactInfo: pn.User.PublicContactInfo,
	})
}
