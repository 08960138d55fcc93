package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// UserStatus is the soft-delete lifecycle of an account. Deleted users stay
// in storage so their calls remain resolvable.
type UserStatus string

const (
	StatusActive  UserStatus = "active"
	StatusDeleted UserStatus = "deleted"
)

type User struct {
	ID                  uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Username            string        `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Password            string        `gorm:"not null" json:"-"`
	FirstName           string        `gorm:"size:50;not null" json:"first_name"`
	LastName            string        `gorm:"size:50;not null" json:"last_name"`
	MiddleName          string        `gorm:"size:50" json:"middle_name,omitempty"`
	AvatarPath          string        `gorm:"size:255" json:"avatar_path"`
	PublicContactInfo   string        `gorm:"size:500" json:"public_contact_info,omitempty"`
	Role                UserRole      `gorm:"size:10;not null;default:'USER'" json:"role"`
	Enabled             bool          `gorm:"not null;default:true" json:"enabled"`
	Locked              bool          `gorm:"not null;default:false" json:"-"`
	ForcePasswordChange bool          `gorm:"not null;default:false" json:"force_password_change"`
	ResetCode           *string       `gorm:"size:6" json:"-"`
	ResetCodeExpiry     *time.Time    `json:"-"`
	Status              UserStatus    `gorm:"size:10;not null;default:'active';index" json:"-"`
	DeletedAt           *time.Time    `json:"-"`
	PhoneNumbers        []PhoneNumber `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"phone_numbers,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Enabled && !u.Locked && u.Status == StatusActive
}

// FullName is "first last middle" with blank parts skipped, matching how
// call results display the other party.
func (u *User) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{u.FirstName, u.LastName, u.MiddleName} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// PrimaryPhone returns the primary number if PhoneNumbers is loaded.
func (u *User) PrimaryPhone() string {
	for _, pn := range u.PhoneNumbers {
		if pn.IsPrimary {
			return pn.Phone
		}
	}
	return ""
}
