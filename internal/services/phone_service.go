package services

import (
	"errors"
	"fmt"

	"github.com/calltrackhq/calltrack-backend/internal/models"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"gorm.io/gorm"
)

var (
	ErrDuplicatePhone = errors.New("phone number already exists")
	ErrPhoneNotFound  = errors.New("phone number not found")
	ErrLastPhone      = errors.New("cannot remove the only phone number")
	ErrInvalidPhone   = errors.New("invalid phone number")
)

// PhoneService maintains the phone-number-to-user mapping and the
// single-primary invariant: a user with at least one number has exactly one
// primary. The invariant cannot be a uniqueness constraint ("at most one
// true per user"), so it is enforced procedurally inside transactions.
type PhoneService struct {
	db *gorm.DB
}

func NewPhoneService(db *gorm.DB) *PhoneService {
	return &PhoneService{db: db}
}

// ValidatePhone rejects numbers that are not valid E.164-parseable phone
// numbers.
func ValidatePhone(phone string) error {
	parsed, err := phonenumbers.Parse(phone, "")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return ErrInvalidPhone
	}
	return nil
}

// AddPhoneNumber registers a new number for user. When primary is requested,
// or the user has no primary yet, every other number is demoted first so the
// new one becomes the single primary.
func (s *PhoneService) AddPhoneNumber(user *models.User, phone string, primary bool) (*models.PhoneNumber, error) {
	if err := ValidatePhone(phone); err != nil {
		return nil, err
	}

	var created *models.PhoneNumber
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = addPhoneNumber(tx, user, phone, primary)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// addPhoneNumber is the transactional body, shared with user registration
// so the user and their first number commit together.
func addPhoneNumber(tx *gorm.DB, user *models.User, phone string, primary bool) (*models.PhoneNumber, error) {
	var count int64
	if err := tx.Model(&models.PhoneNumber{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check phone uniqueness: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicatePhone
	}

	var primaryCount int64
	if err := tx.Model(&models.PhoneNumber{}).
		Where("user_id = ? AND is_primary = ?", user.ID, true).
		Count(&primaryCount).Error; err != nil {
		return nil, fmt.Errorf("failed to check primary phone: %w", err)
	}

	// No primary yet means the new number becomes primary regardless of
	// what the caller asked for.
	if primary || primaryCount == 0 {
		if err := tx.Model(&models.PhoneNumber{}).
			Where("user_id = ?", user.ID).
			Update("is_primary", false).Error; err != nil {
			return nil, fmt.Errorf("failed to demote phones: %w", err)
		}
		primary = true
	}

	pn := models.PhoneNumber{
		ID:        uuid.New(),
		UserID:    user.ID,
		Phone:     phone,
		IsPrimary: primary,
	}
	if err := tx.Create(&pn).Error; err != nil {
		return nil, fmt.Errorf("failed to create phone number: %w", err)
	}
	return &pn, nil
}

// SetPrimaryPhone makes the given number the user's single primary. Numbers
// that do not exist and numbers owned by someone else are indistinguishable
// to the caller.
func (s *PhoneService) SetPrimaryPhone(user *models.User, phoneID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var pn models.PhoneNumber
		if err := tx.Where("id = ? AND user_id = ?", phoneID, user.ID).First(&pn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPhoneNotFound
			}
			return fmt.Errorf("failed to load phone number: %w", err)
		}

		if err := tx.Model(&models.PhoneNumber{}).
			Where("user_id = ?", user.ID).
			Update("is_primary", false).Error; err != nil {
			return fmt.Errorf("failed to demote phones: %w", err)
		}

		if err := tx.Model(&pn).Update("is_primary", true).Error; err != nil {
			return fmt.Errorf("failed to promote phone: %w", err)
		}
		return nil
	})
}

// RemovePhoneNumber deletes one of the user's numbers. The last remaining
// number cannot be removed; removing the primary promotes the oldest
// remaining number before the delete commits.
func (s *PhoneService) RemovePhoneNumber(user *models.User, phoneID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var pn models.PhoneNumber
		if err := tx.Where("id = ? AND user_id = ?", phoneID, user.ID).First(&pn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPhoneNotFound
			}
			return fmt.Errorf("failed to load phone number: %w", err)
		}

		var count int64
		if err := tx.Model(&models.PhoneNumber{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count phone numbers: %w", err)
		}
		if count <= 1 {
			return ErrLastPhone
		}

		if pn.IsPrimary {
			var next models.PhoneNumber
			if err := tx.Where("user_id = ? AND id <> ?", user.ID, pn.ID).
				Order("created_at ASC").
				First(&next).Error; err != nil {
				return fmt.Errorf("failed to pick replacement primary: %w", err)
			}
			if err := tx.Model(&next).Update("is_primary", true).Error; err != nil {
				return fmt.Errorf("failed to promote replacement primary: %w", err)
			}
		}

		if err := tx.Delete(&pn).Error; err != nil {
			return fmt.Errorf("failed to delete phone number: %w", err)
		}
		return nil
	})
}

func (s *PhoneService) ListForUser(user *models.User) ([]models.PhoneNumber, error) {
	var phones []models.PhoneNumber
	if err := s.db.Where("user_id = ?", user.ID).Order("created_at ASC").Find(&phones).Error; err != nil {
		return nil, fmt.Errorf("failed to list phone numbers: %w", err)
	}
	return phones, nil
}

func (s *PhoneService) PrimaryForUser(user *models.User) (*models.PhoneNumber, error) {
	var pn models.PhoneNumber
	if err := s.db.Where("user_id = ? AND is_primary = ?", user.ID, true).First(&pn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhoneNotFound
		}
		return nil, fmt.Errorf("failed to load primary phone: %w", err)
	}
	return &pn, nil
}

func (s *PhoneService) FindByPhone(phone string) (*models.PhoneNumber, error) {
	var pn models.PhoneNumber
	if err := s.db.Preload("User").Where("phone = ?", phone).First(&pn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhoneNotFound
		}
		return nil, fmt.Errorf("failed to load phone number: %w", err)
	}
	return &pn, nil
}

func (s *PhoneService) ExistsByPhone(phone string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.PhoneNumber{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check phone existence: %w", err)
	}
	return count > 0, nil
}
