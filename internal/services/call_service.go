package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/scope"
	"github.com/calltrackhq/calltrack-backend/internal/search"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInvalidDuration = errors.New("call duration must not be negative")

// CallService stores immutable call records and executes filtered,
// paginated reads over them.
type CallService struct {
	db *gorm.DB
}

func NewCallService(db *gorm.DB) *CallService {
	return &CallService{db: db}
}

// TotalCost bills a call: partial minutes count as full minutes, and the
// result is rounded to two decimal places.
func TotalCost(durationSeconds int64, pricePerMinute decimal.Decimal) decimal.Decimal {
	minutes := durationSeconds / 60
	if durationSeconds%60 != 0 {
		minutes++
	}
	return pricePerMinute.Mul(decimal.NewFromInt(minutes)).Round(2)
}

// FormatDuration renders seconds as MM:SS.
func FormatDuration(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// CreateCall persists one billed call record. Cost is computed here, once;
// the record never changes afterwards. Nil phone references are permitted
// for synthetic records.
func (s *CallService) CreateCall(caller, callee *models.PhoneNumber, callType models.CallType,
	durationSeconds int64, pricePerMinute decimal.Decimal, callTime time.Time) (*models.Call, error) {

	if durationSeconds < 0 {
		return nil, ErrInvalidDuration
	}

	call := models.Call{
		ID:              uuid.New(),
		CallTime:        callTime,
		CallType:        callType,
		DurationSeconds: durationSeconds,
		PricePerMinute:  pricePerMinute,
		TotalCost:       TotalCost(durationSeconds, pricePerMinute),
	}
	if caller != nil {
		call.CallerPhoneID = &caller.ID
	}
	if callee != nil {
		call.CalleePhoneID = &callee.ID
	}

	if err := s.db.Create(&call).Error; err != nil {
		return nil, fmt.Errorf("failed to create call: %w", err)
	}
	return &call, nil
}

// FindByUser returns the user's call history, newest first, with both
// phone->user chains loaded.
func (s *CallService) FindByUser(user *models.User, page search.PageRequest) (*dto.CallPageResponse, error) {
	return s.SearchCalls(scope.ScopedToUser(user), search.CallFilter{}, "date", "desc", page)
}

// SearchCalls runs the composed filter under the given scope and shapes the
// matching rows into one page of view records.
func (s *CallService) SearchCalls(sc scope.Scope, filter search.CallFilter,
	sortBy, sortDir string, page search.PageRequest) (*dto.CallPageResponse, error) {

	q := s.db.Model(&models.Call{})
	for _, join := range search.JoinClauses() {
		q = q.Joins(join)
	}
	for _, cond := range filter.Conditions(sc) {
		q = q.Where(cond.Expr, cond.Args...)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count calls: %w", err)
	}

	var calls []models.Call
	if err := q.Select("calls.*").
		Preload("CallerPhone.User").
		Preload("CalleePhone.User").
		Order(search.OrderClause(sortBy, sortDir)).
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to search calls: %w", err)
	}

	views := make([]dto.CallView, len(calls))
	for i := range calls {
		views[i] = shapeCall(&calls[i], sc)
	}

	info := search.NewPageInfo(page, total)
	return &dto.CallPageResponse{
		Calls:         views,
		CurrentPage:   info.Page,
		TotalPages:    info.TotalPages,
		TotalElements: info.TotalElements,
		PageSize:      info.Size,
		HasNext:       info.HasNext,
		HasPrevious:   info.HasPrevious,
	}, nil
}

// shapeCall computes the viewer-relative row: other party, own phone and
// direction. Unrestricted viewers own neither side, so the row falls back to
// the stored call-type tag with the caller treated as "own" side.
func shapeCall(call *models.Call, sc scope.Scope) dto.CallView {
	view := dto.CallView{
		Duration:       FormatDuration(call.DurationSeconds),
		CallTime:       call.CallTime,
		PricePerMinute: call.PricePerMinute,
		TotalCost:      call.TotalCost,
	}

	ownPhone, otherPhone := call.CallerPhone, call.CalleePhone
	view.Direction = string(call.CallType)

	if user, ok := sc.User(); ok {
		outgoing := call.CallerPhone != nil && call.CallerPhone.UserID == user.ID
		if outgoing {
			view.Direction = string(models.CallOutgoing)
		} else {
			view.Direction = string(models.CallIncoming)
			ownPhone, otherPhone = call.CalleePhone, call.CallerPhone
		}
	}

	if ownPhone != nil {
		view.UserPhone = ownPhone.Phone
	}
	if otherPhone != nil {
		view.OtherPartyPhone = otherPhone.Phone
		view.OtherPartyName = otherPhone.User.FullName()
	}
	return view
}
