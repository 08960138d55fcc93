package search

import (
	"testing"
	"time"

	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/scope"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2025-01-15T10:30", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), true},
		{"2025-01-15T10:30:45", time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC), true},
		{"2025-01-15 10:30:45", time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC), true},
		{"  2025-01-15  ", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"not-a-date", time.Time{}, false},
		{"15/01/2025", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDecimal(t *testing.T) {
	d := ParseDecimal("12.50")
	require.NotNil(t, d)
	assert.Equal(t, "12.5", d.String())

	assert.Nil(t, ParseDecimal(""))
	assert.Nil(t, ParseDecimal("  "))
	assert.Nil(t, ParseDecimal("twelve"))
}

func TestSplitNumbers(t *testing.T) {
	assert.Nil(t, splitNumbers(""))
	assert.Nil(t, splitNumbers("   "))
	assert.Equal(t, []string{"+375291234567"}, splitNumbers("+375291234567"))
	assert.Equal(t,
		[]string{"+375291234567", "+375447654321"},
		splitNumbers(" +375291234567 , +375447654321 , "))
}

func testUser() *models.User {
	return &models.User{ID: uuid.New(), Username: "tester"}
}

func TestConditions_EmptyFilter(t *testing.T) {
	// Unrestricted with nothing set means no predicates at all.
	assert.Empty(t, CallFilter{}.Conditions(scope.AllUsers()))

	// A user scope always contributes the participation predicate.
	user := testUser()
	conds := CallFilter{}.Conditions(scope.ScopedToUser(user))
	require.Len(t, conds, 1)
	assert.Contains(t, conds[0].Expr, "caller_phone.user_id = ?")
	assert.Equal(t, []interface{}{user.ID, user.ID}, conds[0].Args)
}

func TestConditions_CallTypeOnlyUnderUserScope(t *testing.T) {
	user := testUser()

	out := CallFilter{CallType: "OUTGOING"}.Conditions(scope.ScopedToUser(user))
	require.Len(t, out, 2)
	assert.Equal(t, "caller_phone.user_id = ?", out[1].Expr)

	in := CallFilter{CallType: "INCOMING"}.Conditions(scope.ScopedToUser(user))
	require.Len(t, in, 2)
	assert.Equal(t, "callee_phone.user_id = ?", in[1].Expr)

	// Direction is meaningless without a viewing user.
	assert.Empty(t, CallFilter{CallType: "OUTGOING"}.Conditions(scope.AllUsers()))

	// Unknown tags are ignored.
	assert.Len(t, CallFilter{CallType: "MISSED"}.Conditions(scope.ScopedToUser(user)), 1)
}

func TestConditions_MyNumbersOnlyUnderUserScope(t *testing.T) {
	user := testUser()
	f := CallFilter{MyNumbers: "+375291234567,+375447654321"}

	conds := f.Conditions(scope.ScopedToUser(user))
	require.Len(t, conds, 2)
	// The listed numbers may appear on either side of the call.
	assert.Contains(t, conds[1].Expr, "caller_phone.phone IN ?")
	assert.Contains(t, conds[1].Expr, "callee_phone.phone IN ?")
	nums := []string{"+375291234567", "+375447654321"}
	assert.Equal(t, []interface{}{nums, nums}, conds[1].Args)

	assert.Empty(t, f.Conditions(scope.AllUsers()))
}

func TestConditions_NameExcludesOwnSideWhenScoped(t *testing.T) {
	user := testUser()

	scoped := CallFilter{Name: "Ivan"}.Conditions(scope.ScopedToUser(user))
	require.Len(t, scoped, 2)
	assert.Contains(t, scoped[1].Expr, "caller_phone.user_id <> ?")
	// Lowercased substring match on all three name parts, for both sides.
	assert.Contains(t, scoped[1].Args, "%ivan%")
	assert.Len(t, scoped[1].Args, 8)

	unscoped := CallFilter{Name: "Ivan"}.Conditions(scope.AllUsers())
	require.Len(t, unscoped, 1)
	assert.NotContains(t, unscoped[0].Expr, "<>")
	assert.Len(t, unscoped[0].Args, 6)
}

func TestConditions_MalformedDatesAreDropped(t *testing.T) {
	user := testUser()
	conds := CallFilter{StartDate: "garbage", EndDate: "also garbage"}.Conditions(scope.ScopedToUser(user))
	assert.Len(t, conds, 1)

	conds = CallFilter{StartDate: "2025-06-01", EndDate: "2025-06-30"}.Conditions(scope.ScopedToUser(user))
	assert.Len(t, conds, 3)
}

func TestConditions_CostAndPriceBounds(t *testing.T) {
	f := CallFilter{
		MinCost:        ParseDecimal("0.10"),
		MaxCost:        ParseDecimal("5.00"),
		PricePerMinute: ParseDecimal("0.10"),
		MinPrice:       ParseDecimal("0.05"),
		MaxPrice:       ParseDecimal("0.50"),
	}

	conds := f.Conditions(scope.AllUsers())
	require.Len(t, conds, 5)

	exprs := make([]string, len(conds))
	for i, c := range conds {
		exprs[i] = c.Expr
	}
	assert.Contains(t, exprs, "calls.total_cost >= ?")
	assert.Contains(t, exprs, "calls.total_cost <= ?")
	assert.Contains(t, exprs, "calls.price_per_minute = ?")
	assert.Contains(t, exprs, "calls.price_per_minute >= ?")
	assert.Contains(t, exprs, "calls.price_per_minute <= ?")
}
