package dto

import (
	"time"

	"github.com/google/uuid"
)

type AddPhoneRequest struct {
	Phone   string `json:"phone"`
	Primary bool   `json:"primary"`
}

type PhoneNumberResponse struct {
	ID        uuid.UUID `json:"id"`
	Phone     string    `json:"phone"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}
