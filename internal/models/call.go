package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CallType is the tag recorded at ingestion time. The direction shown to a
// viewer is derived from phone ownership, not from this field.
type CallType string

const (
	CallOutgoing CallType = "OUTGOING"
	CallIncoming CallType = "INCOMING"
)

// Call is an immutable billed record of one call between two phone numbers.
// Phone references are nullable to admit synthetic records whose numbers
// were removed.
type Call struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CallTime        time.Time       `gorm:"not null;index" json:"call_time"`
	CallerPhoneID   *uuid.UUID      `gorm:"type:uuid;index" json:"caller_phone_id"`
	CallerPhone     *PhoneNumber    `gorm:"foreignKey:CallerPhoneID" json:"-"`
	CalleePhoneID   *uuid.UUID      `gorm:"type:uuid;index" json:"callee_phone_id"`
	CalleePhone     *PhoneNumber    `gorm:"foreignKey:CalleePhoneID" json:"-"`
	CallType        CallType        `gorm:"size:10;not null" json:"call_type"`
	DurationSeconds int64           `gorm:"not null" json:"duration_seconds"`
	PricePerMinute  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_per_minute"`
	TotalCost       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_cost"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (c *Call) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
