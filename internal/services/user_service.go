package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"saku/internal/currency"
	apperrors "saku/internal/errors"
	"saku/internal/models"
)

// userService handles identity provisioning and user settings.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// EnsureUser provisions a local row for an identity asserted by the
// external session provider, refreshing name and email when they change
// upstream. The identity itself is trusted completely.
func (s *userService) EnsureUser(id, name, email string) (*models.User, error) {
	var user models.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{ID: id, Name: name, Email: email, Currency: currency.Default}
		if err := s.db.Create(&user).Error; err != nil {
			// A concurrent first request may have provisioned the row.
			if ferr := s.db.Where("id = ?", id).First(&user).Error; ferr == nil {
				return &user, nil
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &user, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if user.Name != name || user.Email != email {
		updates := map[string]interface{}{"name": name, "email": email}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return &user, nil
}

// GetUserByID returns a user by id.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByEmail returns a user by email, used for pocket sharing.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.TrimSpace(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// UpdateCurrency sets the user's display currency preference.
func (s *userService) UpdateCurrency(userID, code string) (*models.User, error) {
	if !currency.IsSupported(code) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid currency code")
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("currency", code).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.Currency = code
	return user, nil
}
