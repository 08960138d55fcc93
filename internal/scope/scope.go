// Package scope carries the identity a query runs as: either one user's
// view of the data or the unrestricted administrator view.
package scope

import (
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"gorm.io/gorm"
)

// Scope restricts a call query to one user's numbers, or not at all.
// The zero value is the unrestricted (administrator) scope.
type Scope struct {
	user *models.User
}

// AllUsers is the unrestricted scope: every call is visible.
func AllUsers() Scope {
	return Scope{}
}

// ScopedToUser restricts visibility to calls touching u's phone numbers.
func ScopedToUser(u *models.User) Scope {
	return Scope{user: u}
}

// User returns the scoping user, if any.
func (s Scope) User() (*models.User, bool) {
	if s.user == nil {
		return nil, false
	}
	return s.user, true
}

// Unrestricted reports whether the scope sees all users' calls.
func (s Scope) Unrestricted() bool {
	return s.user == nil
}

// ActiveUsers is a GORM scope filtering out soft-deleted accounts. Every
// User Directory read path goes through it.
func ActiveUsers(db *gorm.DB) *gorm.DB {
	return db.Where("users.status = ?", models.StatusActive)
}
