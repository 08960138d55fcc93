package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/calltrackhq/calltrack-backend/internal/config"
	"github.com/calltrackhq/calltrack-backend/internal/dto"
	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/calltrackhq/calltrack-backend/internal/scope"
	"github.com/calltrackhq/calltrack-backend/internal/search"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSamePassword       = errors.New("new password must differ from the current one")
	ErrWeakPassword       = errors.New("password must be 8-64 characters with upper, lower, digit and special characters")
	ErrInvalidUsername    = errors.New("username must be 3-50 characters of letters, digits and underscores")
	ErrNameRequired       = errors.New("first and last name must not be empty")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
	ErrSelfAction         = errors.New("cannot perform this action on your own account")
	ErrLastAdmin          = errors.New("cannot delete the last administrator")
	ErrInvalidRole        = errors.New("unknown role")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

const resetCodeTTL = 15 * time.Minute

// UserService owns user identity, roles, the soft-delete lifecycle and the
// credential workflows.
type UserService struct {
	db      *gorm.DB
	avatars *AvatarService
}

func NewUserService(db *gorm.DB, avatars *AvatarService) *UserService {
	return &UserService{db: db, avatars: avatars}
}

// Register creates a user together with their first (primary) phone number.
// Both commit in one transaction.
func (s *UserService) Register(req *dto.RegisterRequest) (*models.User, error) {
	if !usernamePattern.MatchString(req.Username) {
		return nil, ErrInvalidUsername
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, ErrNameRequired
	}
	if err := ValidatePhone(req.Phone); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatarPath, err := s.avatars.Generate(req.FirstName, req.LastName)
	if err != nil {
		slog.Error("avatar generation failed", "error", err, "action", "register")
		avatarPath = ""
	}

	user := models.User{
		ID:         uuid.New(),
		Username:   req.Username,
		Password:   string(hash),
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		AvatarPath: avatarPath,
		Role:       models.RoleUser,
		Enabled:    true,
		Status:     models.StatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return ErrUsernameTaken
		}

		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		_, err := addPhoneNumber(tx, &user, req.Phone, true)
		return err
	})
	if err != nil {
		// The avatar was rendered before the transaction; do not leave
		// it orphaned on disk.
		s.avatars.Delete(avatarPath)
		return nil, err
	}
	return &user, nil
}

// Authenticate verifies credentials against an active account. Soft-deleted
// and unknown usernames fail identically.
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(scope.ActiveUsers).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountDisabled
	}
	return &user, nil
}

func (s *UserService) FindActiveByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(scope.ActiveUsers).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *UserService) FindActiveByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Scopes(scope.ActiveUsers).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// ListActive returns one page of non-deleted accounts, oldest first.
func (s *UserService) ListActive(page search.PageRequest) ([]models.User, search.PageInfo, error) {
	q := s.db.Model(&models.User{}).Scopes(scope.ActiveUsers)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, search.PageInfo{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := q.Order("created_at ASC").Limit(page.Size).Offset(page.Offset()).Find(&users).Error; err != nil {
		return nil, search.PageInfo{}, fmt.Errorf("failed to list users: %w", err)
	}
	return users, search.NewPageInfo(page, total), nil
}

// UpdateProfile applies non-blank fields from req. A changed username is
// re-checked for uniqueness.
func (s *UserService) UpdateProfile(user *models.User, req *dto.UpdateProfileRequest) error {
	if v := strings.TrimSpace(req.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		user.LastName = v
	}
	if req.MiddleName != nil {
		user.MiddleName = strings.TrimSpace(*req.MiddleName)
	}
	if req.PublicContactInfo != nil {
		user.PublicContactInfo = *req.PublicContactInfo
	}

	if v := strings.TrimSpace(req.Username); v != "" && v != user.Username {
		if !usernamePattern.MatchString(v) {
			return ErrInvalidUsername
		}
		var count int64
		if err := s.db.Model(&models.User{}).Where("username = ?", v).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		user.Username = v
	}

	if err := s.db.Save(user).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after verifying the current one. A
// successful change clears the force-password-change flag.
func (s *UserService) ChangePassword(user *models.User, currentPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(newPassword)) == nil {
		return ErrSamePassword
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Model(user).Updates(map[string]interface{}{
		"password":              string(hash),
		"force_password_change": false,
	}).Error
}

// InitiatePasswordReset issues a short-lived 6-digit code. In this system
// the code is returned to the caller instead of being delivered out of
// band.
func (s *UserService) InitiatePasswordReset(username string) (string, error) {
	user, err := s.FindActiveByUsername(username)
	if err != nil {
		return "", err
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	expiry := time.Now().Add(resetCodeTTL)

	if err := s.db.Model(user).Updates(map[string]interface{}{
		"reset_code":        code,
		"reset_code_expiry": expiry,
	}).Error; err != nil {
		return "", fmt.Errorf("failed to store reset code: %w", err)
	}
	return code, nil
}

func (s *UserService) VerifyResetCode(username, code string) error {
	user, err := s.FindActiveByUsername(username)
	if err != nil {
		return err
	}
	if user.ResetCode == nil || user.ResetCodeExpiry == nil ||
		*user.ResetCode != code || time.Now().After(*user.ResetCodeExpiry) {
		return ErrInvalidResetCode
	}
	return nil
}

func (s *UserService) ResetPassword(username, code, newPassword string) error {
	if err := s.VerifyResetCode(username, code); err != nil {
		return err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.FindActiveByUsername(username)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.Model(user).Updates(map[string]interface{}{
		"password":          string(hash),
		"reset_code":        nil,
		"reset_code_expiry": nil,
	}).Error
}

// UpdateAvatar stores the uploaded image and drops the previous file.
func (s *UserService) UpdateAvatar(user *models.User, originalName string, src io.Reader) error {
	newPath, err := s.avatars.Store(originalName, src)
	if err != nil {
		return err
	}

	oldPath := user.AvatarPath
	if err := s.db.Model(user).Update("avatar_path", newPath).Error; err != nil {
		return fmt.Errorf("failed to update avatar path: %w", err)
	}
	user.AvatarPath = newPath
	s.avatars.Delete(oldPath)
	return nil
}

// ChangeRole sets the target's role. Admins cannot change their own role.
func (s *UserService) ChangeRole(admin *models.User, targetID uuid.UUID, role models.UserRole) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return ErrInvalidRole
	}
	if targetID == admin.ID {
		return ErrSelfAction
	}

	target, err := s.FindActiveByID(targetID)
	if err != nil {
		return err
	}
	return s.db.Model(target).Update("role", role).Error
}

// SoftDelete marks the account deleted without removing it. The deletion is
// refused when it would leave the system without an active, enabled admin.
func (s *UserService) SoftDelete(admin *models.User, targetID uuid.UUID) error {
	if targetID == admin.ID {
		return ErrSelfAction
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var target models.User
		if err := tx.Scopes(scope.ActiveUsers).First(&target, "id = ?", targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		if target.Role == models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.User{}).
				Where("role = ? AND enabled = ? AND status = ? AND id <> ?",
					models.RoleAdmin, true, models.StatusActive, target.ID).
				Count(&admins).Error; err != nil {
				return fmt.Errorf("failed to count admins: %w", err)
			}
			if admins == 0 {
				return ErrLastAdmin
			}
		}

		now := time.Now()
		return tx.Model(&target).Updates(map[string]interface{}{
			"status":     models.StatusDeleted,
			"deleted_at": now,
		}).Error
	})
}

// EnsureDefaultAdmin creates the bootstrap administrator when no active
// admin exists. The account is forced to change its password on first
// login.
func (s *UserService) EnsureDefaultAdmin(cfg *config.Config) error {
	var admins int64
	if err := s.db.Model(&models.User{}).
		Where("role = ? AND enabled = ? AND status = ?", models.RoleAdmin, true, models.StatusActive).
		Count(&admins).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins > 0 {
		return nil
	}

	var taken int64
	if err := s.db.Model(&models.User{}).Where("username = ?", cfg.AdminUsername).Count(&taken).Error; err != nil {
		return fmt.Errorf("failed to check admin username: %w", err)
	}
	if taken > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	avatarPath, err := s.avatars.Generate(cfg.AdminFirstName, cfg.AdminLastName)
	if err != nil {
		avatarPath = ""
	}

	admin := models.User{
		ID:                  uuid.New(),
		Username:            cfg.AdminUsername,
		Password:            string(hash),
		FirstName:           cfg.AdminFirstName,
		LastName:            cfg.AdminLastName,
		AvatarPath:          avatarPath,
		Role:                models.RoleAdmin,
		Enabled:             true,
		Status:              models.StatusActive,
		ForcePasswordChange: true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create default admin: %w", err)
		}
		if _, err := addPhoneNumber(tx, &admin, cfg.AdminPhone, true); err != nil && !errors.Is(err, ErrDuplicatePhone) {
			return err
		}
		return nil
	})
	if err != nil {
		s.avatars.Delete(avatarPath)
	}
	return err
}

// ValidatePassword enforces the registration password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 || len(password) > 64 {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
