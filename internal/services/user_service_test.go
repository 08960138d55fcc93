package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/calltrackhq/calltrack-backend/internal/config"
	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "Sup3rSecret!", true},
		{"too short", "Ab1!", false},
		{"no upper", "sup3rsecret!", false},
		{"no lower", "SUP3RSECRET!", false},
		{"no digit", "SuperSecret!", false},
		{"no special", "Sup3rSecret", false},
		{"too long", "Aa1!" + string(make([]byte, 70)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrWeakPassword)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)

	user, err := users.Register(&dto.RegisterRequest{
		Username:   "ivan_p",
		Password:   testPassword,
		FirstName:  "Ivan",
		LastName:   "Petrov",
		MiddleName: "Sergeevich",
		Phone:      "+375291234567",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive())
	assert.NotEmpty(t, user.AvatarPath)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(testPassword)))
	assert.Equal(t, "Ivan Petrov Sergeevich", user.FullName())

	// The first number commits with the user and is primary.
	phones := NewPhoneService(db)
	pn, err := phones.PrimaryForUser(user)
	require.NoError(t, err)
	assert.Equal(t, "+375291234567", pn.Phone)
}

func TestRegister_Validation(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	registerUser(t, users, "taken", "+375291234567")

	valid := dto.RegisterRequest{
		Username:  "newcomer",
		Password:  testPassword,
		FirstName: "Ivan",
		LastName:  "Petrov",
		Phone:     "+375447654321",
	}

	tests := []struct {
		name    string
		mutate  func(r *dto.RegisterRequest)
		wantErr error
	}{
		{"username too short", func(r *dto.RegisterRequest) { r.Username = "ab" }, ErrInvalidUsername},
		{"username bad characters", func(r *dto.RegisterRequest) { r.Username = "ivan petrov" }, ErrInvalidUsername},
		{"weak password", func(r *dto.RegisterRequest) { r.Password = "password" }, ErrWeakPassword},
		{"blank first name", func(r *dto.RegisterRequest) { r.FirstName = "  " }, ErrNameRequired},
		{"blank last name", func(r *dto.RegisterRequest) { r.LastName = "" }, ErrNameRequired},
		{"bad phone", func(r *dto.RegisterRequest) { r.Phone = "555" }, ErrInvalidPhone},
		{"username taken", func(r *dto.RegisterRequest) { r.Username = "taken" }, ErrUsernameTaken},
		{"phone taken", func(r *dto.RegisterRequest) { r.Phone = "+375291234567" }, ErrDuplicatePhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := users.Register(&req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// A failed registration leaves nothing behind.
	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "newcomer").Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegister_FailedRegistrationLeavesNoAvatarFile(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	users := NewUserService(db, NewAvatarService(dir))

	registerUser(t, users, "taken", "+375291234567")

	entries, err := os.ReadDir(filepath.Join(dir, "avatars"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = users.Register(&dto.RegisterRequest{
		Username:  "taken",
		Password:  testPassword,
		FirstName: "Olga",
		LastName:  "Ivanova",
		Phone:     "+375447654321",
	})
	require.ErrorIs(t, err, ErrUsernameTaken)

	// The rolled-back registration's avatar was cleaned up.
	entries, err = os.ReadDir(filepath.Join(dir, "avatars"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	registerUser(t, users, "ivan", "+375291234567")

	user, err := users.Authenticate("ivan", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "ivan", user.Username)

	_, err = users.Authenticate("ivan", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate("nobody", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_SoftDeletedLooksUnknown(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := registerUser(t, users, "ivan", "+375291234567")

	require.NoError(t, db.Model(user).Update("status", models.StatusDeleted).Error)

	_, err := users.Authenticate("ivan", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.FindActiveByID(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthenticate_DisabledAccount(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := registerUser(t, users, "ivan", "+375291234567")

	require.NoError(t, db.Model(user).Update("enabled", false).Error)

	_, err := users.Authenticate("ivan", testPassword)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := registerUser(t, users, "ivan", "+375291234567")

	assert.ErrorIs(t, users.ChangePassword(user, "wrong", "N3wSecret!!"), ErrWrongPassword)
	assert.ErrorIs(t, users.ChangePassword(user, testPassword, testPassword), ErrSamePassword)
	assert.ErrorIs(t, users.ChangePassword(user, testPassword, "weak"), ErrWeakPassword)

	require.NoError(t, users.ChangePassword(user, testPassword, "N3wSecret!!"))

	_, err := users.Authenticate("ivan", "N3wSecret!!")
	assert.NoError(t, err)
	_, err = users.Authenticate("ivan", testPassword)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword_ClearsForceFlag(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := registerUser(t, users, "ivan", "+375291234567")
	require.NoError(t, db.Model(user).Update("force_password_change", true).Error)

	require.NoError(t, users.ChangePassword(user, testPassword, "N3wSecret!!"))

	reloaded, err := users.FindActiveByID(user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.ForcePasswordChange)
}

func TestPasswordResetWorkflow(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	registerUser(t, users, "ivan", "+375291234567")

	code, err := users.InitiatePasswordReset("ivan")
	require.NoError(t, err)
	assert.Len(t, code, 6)

	assert.ErrorIs(t, users.VerifyResetCode("ivan", "000000x"), ErrInvalidResetCode)
	assert.NoError(t, users.VerifyResetCode("ivan", code))

	require.NoError(t, users.ResetPassword("ivan", code, "N3wSecret!!"))

	_, err = users.Authenticate("ivan", "N3wSecret!!")
	assert.NoError(t, err)

	// The code is single-use.
	assert.ErrorIs(t, users.VerifyResetCode("ivan", code), ErrInvalidResetCode)
}

func TestPasswordReset_Expiry(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := registerUser(t, users, "ivan", "+375291234567")

	code, err := users.InitiatePasswordReset("ivan")
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(user).Update("reset_code_expiry", expired).Error)

	assert.ErrorIs(t, users.VerifyResetCode("ivan", code), ErrInvalidResetCode)
	assert.ErrorIs(t, users.ResetPassword("ivan", code, "N3wSecret!!"), ErrInvalidResetCode)
}

func TestPasswordReset_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)

	_, err := users.InitiatePasswordReset("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := registerUser(t, users, "ivan", "+375291234567")
	registerUser(t, users, "olga", "+375447654321")

	// Blank fields stay untouched.
	require.NoError(t, users.UpdateProfile(user, &dto.UpdateProfileRequest{FirstName: "Pyotr"}))
	assert.Equal(t, "Pyotr", user.FirstName)
	assert.Equal(t, "User", user.LastName)
	assert.Equal(t, "ivan", user.Username)

	// A changed username is re-validated.
	assert.ErrorIs(t, users.UpdateProfile(user, &dto.UpdateProfileRequest{Username: "olga"}), ErrUsernameTaken)
	assert.ErrorIs(t, users.UpdateProfile(user, &dto.UpdateProfileRequest{Username: "x"}), ErrInvalidUsername)

	require.NoError(t, users.UpdateProfile(user, &dto.UpdateProfileRequest{Username: "ivan_p"}))
	reloaded, err := users.FindActiveByUsername("ivan_p")
	require.NoError(t, err)
	assert.Equal(t, "Pyotr", reloaded.FirstName)
}

func TestUpdateProfile_ClearsOptionalFields(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := registerUser(t, users, "ivan", "+375291234567")

	middle := "Sergeevich"
	contact := "Email: ivan@example.com"
	require.NoError(t, users.UpdateProfile(user, &dto.UpdateProfileRequest{
		MiddleName:        &middle,
		PublicContactInfo: &contact,
	}))

	reloaded, err := users.FindActiveByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sergeevich", reloaded.MiddleName)
	assert.Equal(t, contact, reloaded.PublicContactInfo)

	// Absent pointers leave the values alone.
	require.NoError(t, users.UpdateProfile(reloaded, &dto.UpdateProfileRequest{FirstName: "Pyotr"}))
	reloaded, err = users.FindActiveByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sergeevich", reloaded.MiddleName)

	// An explicit empty string clears them.
	empty := ""
	require.NoError(t, users.UpdateProfile(reloaded, &dto.UpdateProfileRequest{
		MiddleName:        &empty,
		PublicContactInfo: &empty,
	}))
	reloaded, err = users.FindActiveByID(user.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.MiddleName)
	assert.Empty(t, reloaded.PublicContactInfo)
}

func TestListActive_ExcludesDeleted(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)

	registerUser(t, users, "ivan", "+375291234567")
	olga := registerUser(t, users, "olga", "+375447654321")
	require.NoError(t, db.Model(olga).Update("status", models.StatusDeleted).Error)

	list, info, err := users.ListActive(search.NewPageRequest(0, 10))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ivan", list[0].Username)
	assert.Equal(t, int64(1), info.TotalElements)
}

func TestChangeRole(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)

	admin := registerUser(t, users, "admin1", "+375291234567")
	require.NoError(t, db.Model(admin).Update("role", models.RoleAdmin).Error)
	admin.Role = models.RoleAdmin
	target := registerUser(t, users, "ivan", "+375447654321")

	assert.ErrorIs(t, users.ChangeRole(admin, target.ID, "SUPERUSER"), ErrInvalidRole)
	assert.ErrorIs(t, users.ChangeRole(admin, admin.ID, models.RoleUser), ErrSelfAction)

	require.NoError(t, users.ChangeRole(admin, target.ID, models.RoleAdmin))
	reloaded, err := users.FindActiveByID(target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, reloaded.Role)
}

func TestSoftDelete(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)

	admin := registerUser(t, users, "admin1", "+375291234567")
	require.NoError(t, db.Model(admin).Update("role", models.RoleAdmin).Error)
	admin.Role = models.RoleAdmin
	target := registerUser(t, users, "ivan", "+375447654321")

	assert.ErrorIs(t, users.SoftDelete(admin, admin.ID), ErrSelfAction)

	require.NoError(t, users.SoftDelete(admin, target.ID))

	_, err := users.FindActiveByID(target.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The row itself survives.
	var raw models.User
	require.NoError(t, db.First(&raw, "id = ?", target.ID).Error)
	assert.Equal(t, models.StatusDeleted, raw.Status)
	assert.NotNil(t, raw.DeletedAt)

	// Deleting someone already gone reads as not found.
	assert.ErrorIs(t, users.SoftDelete(admin, target.ID), ErrUserNotFound)
}

func TestSoftDelete_LastAdminGuard(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)

	first := registerUser(t, users, "admin1", "+375291234567")
	require.NoError(t, db.Model(first).Update("role", models.RoleAdmin).Error)
	second := registerUser(t, users, "admin2", "+375447654321")
	require.NoError(t, db.Model(second).Update("role", models.RoleAdmin).Error)
	first.Role = models.RoleAdmin

	// Two active admins: deleting one is fine.
	require.NoError(t, users.SoftDelete(first, second.ID))

	// Now first is the only admin left; nobody may remove them.
	third := registerUser(t, users, "ivan", "+375331112233")
	require.NoError(t, db.Model(third).Update("role", models.RoleAdmin).Error)
	third.Role = models.RoleAdmin
	require.NoError(t, db.Model(third).Update("status", models.StatusDeleted).Error)

	other := registerUser(t, users, "olga", "+375255234567")
	require.NoError(t, db.Model(other).Update("role", models.RoleAdmin).Error)
	other.Role = models.RoleAdmin
	require.NoError(t, db.Model(other).Update("enabled", false).Error)

	// Deleted and disabled admins do not count as replacements.
	assert.ErrorIs(t, users.SoftDelete(other, first.ID), ErrLastAdmin)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	cfg := &config.Config{
		AdminUsername:  "admin",
		AdminPassword:  "Adm1nSecret!",
		AdminFirstName: "System",
		AdminLastName:  "Administrator",
		AdminPhone:     "+375291000000",
	}

	require.NoError(t, users.EnsureDefaultAdmin(cfg))

	admin, err := users.FindActiveByUsername("admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.ForcePasswordChange)

	phones := NewPhoneService(db)
	pn, err := phones.PrimaryForUser(admin)
	require.NoError(t, err)
	assert.Equal(t, "+375291000000", pn.Phone)

	// Idempotent: a second run creates nothing.
	require.NoError(t, users.EnsureDefaultAdmin(cfg))
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
