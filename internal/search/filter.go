// Package search translates sparse call-history filter parameters into SQL
// predicates, a whitelisted ordering and pagination math. It is pure logic:
// nothing here touches the database, so the predicate shapes are testable on
// their own and the call service only applies what this package emits.
package search

import (
	"strings"
	"time"

	"github.com/calltrackhq/calltrack-backend/internal/scope"
	"github.com/shopspring/decimal"
)

// CallFilter is the full set of optional call-history filters. Zero values
// mean "no constraint". Date fields stay raw strings: malformed dates are
// silently dropped rather than rejected.
type CallFilter struct {
	Name           string
	MyNumbers      string // comma-separated list of the scoping user's own numbers
	Phone          string
	CallType       string
	StartDate      string
	EndDate        string
	MinCost        *decimal.Decimal
	MaxCost        *decimal.Decimal
	PricePerMinute *decimal.Decimal
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
}

// Condition is one SQL predicate with its bind arguments. Conditions from
// one filter are combined with AND.
type Condition struct {
	Expr string
	Args []interface{}
}

// JoinClauses are the joins every call search runs with. Both phone->user
// chains are joined so predicates can reach participant names and numbers;
// LEFT joins keep rows whose phone references are null visible to the
// unrestricted scope.
func JoinClauses() []string {
	return []string{
		"LEFT JOIN phone_numbers AS caller_phone ON caller_phone.id = calls.caller_phone_id",
		"LEFT JOIN users AS caller_user ON caller_user.id = caller_phone.user_id",
		"LEFT JOIN phone_numbers AS callee_phone ON callee_phone.id = calls.callee_phone_id",
		"LEFT JOIN users AS callee_user ON callee_user.id = callee_phone.user_id",
	}
}

// dateLayouts accepted by the start/end date filters, tried in order.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Conditions builds the AND-combined predicate list for f under sc.
//
// Under a user scope every condition about "the other party" excludes the
// side owned by the scoping user; unrestricted, name and phone filters match
// either participant, and the direction-dependent filters (CallType,
// MyNumbers) are meaningless and ignored.
func (f CallFilter) Conditions(sc scope.Scope) []Condition {
	var conds []Condition

	user, scoped := sc.User()
	if scoped {
		conds = append(conds, Condition{
			Expr: "(caller_phone.user_id = ? OR callee_phone.user_id = ?)",
			Args: []interface{}{user.ID, user.ID},
		})
	}

	if name := strings.TrimSpace(f.Name); name != "" {
		like := "%" + strings.ToLower(name) + "%"
		nameMatch := "(LOWER(%s.first_name) LIKE ? OR LOWER(%s.last_name) LIKE ? OR LOWER(COALESCE(%s.middle_name, '')) LIKE ?)"
		callerMatch := strings.ReplaceAll(nameMatch, "%s", "caller_user")
		calleeMatch := strings.ReplaceAll(nameMatch, "%s", "callee_user")
		if scoped {
			conds = append(conds, Condition{
				Expr: "((caller_phone.user_id <> ? AND " + callerMatch + ") OR (callee_phone.user_id <> ? AND " + calleeMatch + "))",
				Args: []interface{}{user.ID, like, like, like, user.ID, like, like, like},
			})
		} else {
			conds = append(conds, Condition{
				Expr: "(" + callerMatch + " OR " + calleeMatch + ")",
				Args: []interface{}{like, like, like, like, like, like},
			})
		}
	}

	if scoped {
		if nums := splitNumbers(f.MyNumbers); len(nums) > 0 {
			conds = append(conds, Condition{
				Expr: "(caller_phone.phone IN ? OR callee_phone.phone IN ?)",
				Args: []interface{}{nums, nums},
			})
		}
	}

	if phone := strings.TrimSpace(f.Phone); phone != "" {
		like := "%" + phone + "%"
		if scoped {
			conds = append(conds, Condition{
				Expr: "((caller_phone.user_id <> ? AND caller_phone.phone LIKE ?) OR (callee_phone.user_id <> ? AND callee_phone.phone LIKE ?))",
				Args: []interface{}{user.ID, like, user.ID, like},
			})
		} else {
			conds = append(conds, Condition{
				Expr: "(caller_phone.phone LIKE ? OR callee_phone.phone LIKE ?)",
				Args: []interface{}{like, like},
			})
		}
	}

	if scoped {
		switch f.CallType {
		case "OUTGOING":
			conds = append(conds, Condition{Expr: "caller_phone.user_id = ?", Args: []interface{}{user.ID}})
		case "INCOMING":
			conds = append(conds, Condition{Expr: "callee_phone.user_id = ?", Args: []interface{}{user.ID}})
		}
	}

	if t, ok := parseDate(f.StartDate); ok {
		conds = append(conds, Condition{Expr: "calls.call_time >= ?", Args: []interface{}{t}})
	}
	if t, ok := parseDate(f.EndDate); ok {
		conds = append(conds, Condition{Expr: "calls.call_time <= ?", Args: []interface{}{t}})
	}

	if f.MinCost != nil {
		conds = append(conds, Condition{Expr: "calls.total_cost >= ?", Args: []interface{}{*f.MinCost}})
	}
	if f.MaxCost != nil {
		conds = append(conds, Condition{Expr: "calls.total_cost <= ?", Args: []interface{}{*f.MaxCost}})
	}
	if f.PricePerMinute != nil {
		conds = append(conds, Condition{Expr: "calls.price_per_minute = ?", Args: []interface{}{*f.PricePerMinute}})
	}
	if f.MinPrice != nil {
		conds = append(conds, Condition{Expr: "calls.price_per_minute >= ?", Args: []interface{}{*f.MinPrice}})
	}
	if f.MaxPrice != nil {
		conds = append(conds, Condition{Expr: "calls.price_per_minute <= ?", Args: []interface{}{*f.MaxPrice}})
	}

	return conds
}

func splitNumbers(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	nums := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			nums = append(nums, trimmed)
		}
	}
	return nums
}

// parseDate tries the accepted layouts; a blank or unparseable value means
// the filter is absent, never an error.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDecimal parses an optional decimal query parameter. Malformed values
// are treated as absent, same leniency as the date filters.
func ParseDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
