package dto

import (
	"time"

	"github.com/google/uuid"
)

type ProfileResponse struct {
	Username          string `json:"username"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	MiddleName        string `json:"middle_name,omitempty"`
	PublicContactInfo string `json:"public_contact_info,omitempty"`
	AvatarPath        string `json:"avatar_path"`
}

// UpdateProfileRequest carries partial profile changes. Blank required
// fields are left untouched; the optional fields use pointers so that an
// explicit empty string clears them while an absent field does nothing.
type UpdateProfileRequest struct {
	Username          string  `json:"username"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	MiddleName        *string `json:"middle_name"`
	PublicContactInfo *string `json:"public_contact_info"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type InitiateResetRequest struct {
	Username string `json:"username"`
}

type VerifyCodeRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// PublicUserResponse is what one user may see about the owner of a number.
type PublicUserResponse struct {
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	MiddleName        string `json:"middle_name,omitempty"`
	Phone             string `json:"phone"`
	AvatarPath        string `json:"avatar_path"`
	PublicContactInfo string `json:"public_contact_info,omitempty"`
}

type AdminUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

type UserListResponse struct {
	Users         []AdminUserResponse `json:"users"`
	CurrentPage   int                 `json:"current_page"`
	TotalPages    int                 `json:"total_pages"`
	TotalElements int64               `json:"total_elements"`
	PageSize      int                 `json:"page_size"`
	HasNext       bool                `json:"has_next"`
	HasPrevious   bool                `json:"has_previous"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}
