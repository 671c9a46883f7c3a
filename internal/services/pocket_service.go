package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "saku/internal/errors"
	"saku/internal/logger"
	"saku/internal/models"
	"saku/internal/viewcache"
)

// pocketService handles pocket-related business logic.
type pocketService struct {
	db    *gorm.DB
	cache *viewcache.Cache
}

// NewPocketService creates a new PocketServicer.
func NewPocketService(db *gorm.DB, cache *viewcache.Cache) PocketServicer {
	return &pocketService{db: db, cache: cache}
}

// CreatePocket creates a new pocket owned by the user.
func (s *pocketService) CreatePocket(userID, name string) (*models.Pocket, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Pocket name is required")
	}

	pocket := &models.Pocket{Name: name, UserID: userID}
	if err := s.db.Create(pocket).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicatePocket
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return pocket, nil
}

// GetUserPockets returns the pockets the user owns plus the pockets
// shared with them, owned first, each ordered by name.
func (s *pocketService) GetUserPockets(userID string) ([]PocketView, error) {
	var owned []models.Pocket
	if err := s.db.Where("user_id = ?", userID).Order("name").Find(&owned).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var shared []models.Pocket
	if err := s.db.
		Joins("JOIN pocket_members ON pocket_members.pocket_id = pockets.id").
		Where("pocket_members.user_id = ?", userID).
		Order("pockets.name").
		Find(&shared).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]PocketView, 0, len(owned)+len(shared))
	for _, p := range owned {
		views = append(views, PocketView{Pocket: p})
	}
	for _, p := range shared {
		views = append(views, PocketView{Pocket: p, Shared: true})
	}
	return views, nil
}

// GetPocketByID returns a pocket regardless of caller; access decisions
// belong to the caller.
func (s *pocketService) GetPocketByID(pocketID string) (*models.Pocket, error) {
	var pocket models.Pocket
	if err := s.db.Where("id = ?", pocketID).First(&pocket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPocketNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &pocket, nil
}

// ownedPocket loads a pocket and enforces ownership.
func (s *pocketService) ownedPocket(userID, pocketID string) (*models.Pocket, error) {
	pocket, err := s.GetPocketByID(pocketID)
	if err != nil {
		return nil, err
	}
	if pocket.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return pocket, nil
}

// RenamePocket renames a pocket. Owner only.
func (s *pocketService) RenamePocket(userID, pocketID, newName string) (*models.Pocket, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Pocket name is required")
	}

	pocket, err := s.ownedPocket(userID, pocketID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(pocket).Update("name", newName).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicatePocket
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	pocket.Name = newName

	s.invalidateViews(pocket.ID, pocket.UserID)
	return pocket, nil
}

// DeletePocket removes a pocket, its memberships, and detaches its
// invoices (they stay with their creator, pocket-less). Owner only.
func (s *pocketService) DeletePocket(userID, pocketID string) error {
	pocket, err := s.ownedPocket(userID, pocketID)
	if err != nil {
		return err
	}

	// Membership rows are gone after the transaction; capture the
	// affected users first.
	memberIDs := s.memberIDs(pocket.ID)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invoice{}).Where("pocket_id = ?", pocket.ID).
			Update("pocket_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("pocket_id = ?", pocket.ID).Delete(&models.PocketMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(pocket).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.cache.Invalidate(append(memberIDs, pocket.UserID)...)
	return nil
}

// ResolvePocket decides the destination pocket for a new invoice. An
// explicit id is used as supplied; otherwise the user's "Personal"
// pocket is found or created. The unique (user_id, name) index makes two
// racing creates converge on a single pocket.
func (s *pocketService) ResolvePocket(userID, explicitID string) (string, error) {
	if explicitID != "" {
		return explicitID, nil
	}

	var pocket models.Pocket
	err := s.db.Where("name = ? AND user_id = ?", models.DefaultPocketName, userID).First(&pocket).Error
	if err == nil {
		return pocket.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := models.Pocket{Name: models.DefaultPocketName, UserID: userID}
	if err := s.db.Create(&created).Error; err != nil {
		// A concurrent request may have created it first; re-read the winner.
		if isUniqueViolation(err) {
			var winner models.Pocket
			if rerr := s.db.Where("name = ? AND user_id = ?", models.DefaultPocketName, userID).
				First(&winner).Error; rerr == nil {
				return winner.ID, nil
			}
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return created.ID, nil
}

// AccessiblePocketIDs returns the ids of every pocket the user owns or
// is a member of.
func (s *pocketService) AccessiblePocketIDs(userID string) ([]string, error) {
	var ids []string
	if err := s.db.Model(&models.Pocket{}).Where("user_id = ?", userID).
		Pluck("id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var memberIDs []string
	if err := s.db.Model(&models.PocketMember{}).Where("user_id = ?", userID).
		Pluck("pocket_id", &memberIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return append(ids, memberIDs...), nil
}

// CanAccess reports whether the user owns or is a member of the pocket.
func (s *pocketService) CanAccess(userID, pocketID string) (bool, error) {
	pocket, err := s.GetPocketByID(pocketID)
	if err != nil {
		return false, err
	}
	if pocket.UserID == userID {
		return true, nil
	}

	var count int64
	if err := s.db.Model(&models.PocketMember{}).
		Where("pocket_id = ? AND user_id = ?", pocketID, userID).
		Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// SharePocket grants the user identified by email access to the pocket.
// Owner only; the owner cannot be added as a member.
func (s *pocketService) SharePocket(userID, pocketID, email string) (*MemberView, error) {
	pocket, err := s.ownedPocket(userID, pocketID)
	if err != nil {
		return nil, err
	}

	var target models.User
	if err := s.db.Where("email = ?", strings.TrimSpace(email)).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if target.ID == pocket.UserID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "The owner already has access to this pocket")
	}

	member := &models.PocketMember{PocketID: pocket.ID, UserID: target.ID}
	if err := s.db.Create(member).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAlreadyMember
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// The new member now sees the pocket's invoices.
	s.cache.Invalidate(target.ID)

	return &MemberView{UserID: target.ID, Name: target.Name, Email: target.Email}, nil
}

// GetMembers lists a pocket's members with the owner first. Visible to
// the owner and to members.
func (s *pocketService) GetMembers(userID, pocketID string) ([]MemberView, error) {
	pocket, err := s.GetPocketByID(pocketID)
	if err != nil {
		return nil, err
	}
	if pocket.UserID != userID {
		ok, err := s.CanAccess(userID, pocketID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperrors.ErrForbidden
		}
	}

	var owner models.User
	if err := s.db.Where("id = ?", pocket.UserID).First(&owner).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var members []models.PocketMember
	if err := s.db.Preload("User").Where("pocket_id = ?", pocketID).
		Order("created_at").Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := []MemberView{{UserID: owner.ID, Name: owner.Name, Email: owner.Email, IsOwner: true}}
	for _, m := range members {
		views = append(views, MemberView{UserID: m.UserID, Name: m.User.Name, Email: m.User.Email})
	}
	return views, nil
}

// RemoveMember revokes a member's access to the pocket. Owner only.
func (s *pocketService) RemoveMember(userID, pocketID, memberUserID string) error {
	pocket, err := s.ownedPocket(userID, pocketID)
	if err != nil {
		return err
	}

	result := s.db.Where("pocket_id = ? AND user_id = ?", pocket.ID, memberUserID).
		Delete(&models.PocketMember{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrMemberNotFound
	}

	s.cache.Invalidate(memberUserID)
	return nil
}

// memberIDs returns the user ids of the pocket's members, best effort.
func (s *pocketService) memberIDs(pocketID string) []string {
	var ids []string
	if err := s.db.Model(&models.PocketMember{}).Where("pocket_id = ?", pocketID).
		Pluck("user_id", &ids).Error; err != nil {
		logger.Get().Warnw("failed to list pocket members for cache invalidation",
			"pocket_id", pocketID, "error", err)
	}
	return ids
}

// invalidateViews drops the cached dashboard, list, and analysis views of
// everyone who can see the pocket: the owner and all members.
func (s *pocketService) invalidateViews(pocketID, ownerID string) {
	s.cache.Invalidate(append(s.memberIDs(pocketID), ownerID)...)
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// Matched by message so both the Postgres and SQLite drivers are covered.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		errors.Is(err, gorm.ErrDuplicatedKey)
}
