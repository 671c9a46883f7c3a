package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "saku/internal/errors"
	"saku/internal/extraction"
	"saku/internal/logger"
	"saku/internal/models"
	"saku/internal/pagination"
	"saku/internal/viewcache"
)

// imageRawTextPlaceholder is stored as provenance when the source was a
// photo rather than text.
const imageRawTextPlaceholder = "Image Upload"

// invoiceService implements the extraction-and-persistence pipeline.
type invoiceService struct {
	db            *gorm.DB
	extractor     Extractor
	pocketService PocketServicer
	cache         *viewcache.Cache

	// enforcePocketOwnership gates filing into an explicitly supplied
	// pocket behind an owner-or-member check. Off by default: the source
	// behavior lets any authenticated user file into any pocket id they
	// know.
	enforcePocketOwnership bool
}

// NewInvoiceService creates a new InvoiceServicer.
func NewInvoiceService(db *gorm.DB, extractor Extractor, pocketService PocketServicer, cache *viewcache.Cache, enforcePocketOwnership bool) InvoiceServicer {
	return &invoiceService{
		db:                     db,
		extractor:              extractor,
		pocketService:          pocketService,
		cache:                  cache,
		enforcePocketOwnership: enforcePocketOwnership,
	}
}

// ProcessInvoice runs the full pipeline: extract structured data from the
// input, resolve the destination pocket, and persist the invoice with its
// items in a single transaction. The returned invoice is re-read inside
// the transaction so the caller always sees the composed result.
func (s *invoiceService) ProcessInvoice(ctx context.Context, userID string, in extraction.Input, pocketID string) (*models.Invoice, error) {
	raw, err := s.extractor.Extract(ctx, in)
	if err != nil {
		return nil, err
	}

	draft, err := extraction.ParseDraft(raw)
	if err != nil {
		return nil, err
	}

	if pocketID != "" {
		// Existence is always checked; ownership only when configured.
		if _, err := s.pocketService.GetPocketByID(pocketID); err != nil {
			return nil, err
		}
		if s.enforcePocketOwnership {
			ok, err := s.pocketService.CanAccess(userID, pocketID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, apperrors.ErrForbidden
			}
		}
	}

	resolvedPocketID, err := s.pocketService.ResolvePocket(userID, pocketID)
	if err != nil {
		return nil, err
	}

	rawText := in.RawText
	if rawText == "" {
		rawText = imageRawTextPlaceholder
	}

	var saved models.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		invoice := models.Invoice{
			UserID:      userID,
			Summary:     draft.Summary,
			Date:        draft.Date,
			TotalAmount: draft.TotalAmount,
			PocketID:    &resolvedPocketID,
			RawText:     rawText,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		if len(draft.Items) > 0 {
			items := make([]models.InvoiceItem, 0, len(draft.Items))
			for _, it := range draft.Items {
				items = append(items, models.InvoiceItem{
					InvoiceID:  invoice.ID,
					Name:       it.Name,
					Quantity:   it.Quantity,
					UnitPrice:  it.UnitPrice,
					TotalPrice: it.TotalPrice,
					Category:   it.Category,
				})
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		return tx.Preload("Items").Preload("Pocket").Where("id = ?", invoice.ID).First(&saved).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.invalidateViews(&saved)
	return &saved, nil
}

// GetInvoices returns a page of invoices visible to the user: their own
// plus those filed into pockets they own or are members of. The month
// filter defaults to the current month.
func (s *invoiceService) GetInvoices(userID string, page pagination.PageRequest, filter InvoiceFilter) (*pagination.PageResponse[models.Invoice], error) {
	page.Defaults()

	start, end, err := monthWindow(filter.Month)
	if err != nil {
		return nil, err
	}

	accessible, err := s.pocketService.AccessiblePocketIDs(userID)
	if err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Invoice{}).Where("date >= ? AND date < ?", start, end)
	if len(accessible) > 0 {
		base = base.Where("user_id = ? OR pocket_id IN ?", userID, accessible)
	} else {
		base = base.Where("user_id = ?", userID)
	}
	if filter.Query != "" {
		base = base.Where("LOWER(summary) LIKE ?", "%"+strings.ToLower(filter.Query)+"%")
	}
	if filter.PocketID != "" {
		base = base.Where("pocket_id = ?", filter.PocketID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var invoices []models.Invoice
	if err := base.Preload("Items").Preload("Pocket").
		Scopes(pagination.Paginate(page)).
		Order("date DESC").Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(invoices, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetInvoiceByID returns one invoice with its items if the user may see
// it: creator, pocket owner, or pocket member.
func (s *invoiceService) GetInvoiceByID(userID, invoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.db.Preload("Items").Preload("Pocket").Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvoiceNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	visible, err := s.canSee(userID, &invoice)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.ErrForbidden
	}
	return &invoice, nil
}

// DeleteInvoice removes an invoice and its items. Permitted for the
// creator and for the owner of the invoice's pocket; members who are
// neither cannot delete.
func (s *invoiceService) DeleteInvoice(userID, invoiceID string) error {
	var invoice models.Invoice
	if err := s.db.Preload("Pocket").Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvoiceNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	authorized := invoice.UserID == userID ||
		(invoice.Pocket != nil && invoice.Pocket.UserID == userID)
	if !authorized {
		return apperrors.ErrForbidden
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&invoice).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.invalidateViews(&invoice)
	return nil
}

// canSee applies the visibility rule: creator, pocket owner, or pocket member.
func (s *invoiceService) canSee(userID string, invoice *models.Invoice) (bool, error) {
	if invoice.UserID == userID {
		return true, nil
	}
	if invoice.PocketID == nil {
		return false, nil
	}
	ok, err := s.pocketService.CanAccess(userID, *invoice.PocketID)
	if err != nil {
		// A dangling pocket id hides the invoice rather than failing the read.
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrPocketNotFound.Code {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// invalidateViews drops the cached dashboard, list, and analysis views of
// every user whose views the write affects: the creator, the pocket
// owner, and the pocket's members.
func (s *invoiceService) invalidateViews(invoice *models.Invoice) {
	affected := map[string]struct{}{invoice.UserID: {}}

	if invoice.PocketID != nil {
		pocket, err := s.pocketService.GetPocketByID(*invoice.PocketID)
		if err == nil {
			affected[pocket.UserID] = struct{}{}
			var memberIDs []string
			if err := s.db.Model(&models.PocketMember{}).
				Where("pocket_id = ?", pocket.ID).
				Pluck("user_id", &memberIDs).Error; err == nil {
				for _, id := range memberIDs {
					affected[id] = struct{}{}
				}
			} else {
				logger.Get().Warnw("failed to list pocket members for cache invalidation",
					"pocket_id", pocket.ID, "error", err)
			}
		}
	}

	ids := make([]string, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	s.cache.Invalidate(ids...)
}

// monthWindow returns the [start, end) range for a YYYY-MM month string,
// defaulting to the current month.
func monthWindow(month string) (time.Time, time.Time, error) {
	var start time.Time
	if month == "" {
		now := time.Now()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be YYYY-MM")
		}
		start = parsed
	}
	return start, start.AddDate(0, 1, 0), nil
}
