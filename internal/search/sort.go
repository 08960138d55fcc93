package search

import "strings"

// sortColumns whitelists the sortable fields. Anything else falls back to
// call time.
var sortColumns = map[string]string{
	"date":     "calls.call_time",
	"cost":     "calls.total_cost",
	"duration": "calls.duration_seconds",
	"price":    "calls.price_per_minute",
}

// OrderClause maps user-supplied sort parameters onto a safe ORDER BY
// clause. Default is call time descending; ties are broken by id so paging
// stays stable.
func OrderClause(sortBy, sortDir string) string {
	column, ok := sortColumns[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		column = sortColumns["date"]
	}

	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortDir), "asc") {
		dir = "ASC"
	}

	return column + " " + dir + ", calls.id ASC"
}
