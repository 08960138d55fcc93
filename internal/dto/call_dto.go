package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CallView is one shaped call-history row, computed relative to the
// requesting user: who the other party was, which of the viewer's numbers
// was involved, and the derived direction.
type CallView struct {
	OtherPartyName  string          `json:"other_party_name"`
	OtherPartyPhone string          `json:"other_party_phone"`
	UserPhone       string          `json:"user_phone"`
	Direction       string          `json:"direction"`
	Duration        string          `json:"duration"`
	CallTime        time.Time       `json:"call_time"`
	PricePerMinute  decimal.Decimal `json:"price_per_minute"`
	TotalCost       decimal.Decimal `json:"total_cost"`
}

type CallPageResponse struct {
	Calls         []CallView `json:"calls"`
	CurrentPage   int        `json:"current_page"`
	TotalPages    int        `json:"total_pages"`
	TotalElements int64      `json:"total_elements"`
	PageSize      int        `json:"page_size"`
	HasNext       bool       `json:"has_next"`
	HasPrevious   bool       `json:"has_previous"`
}
