package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"saku/internal/extraction"
	"saku/internal/models"
	"saku/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a unique id and email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.New(),
		Name:     fmt.Sprintf("Test User %d", nextID()),
		Email:    email,
		Currency: "IDR",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestPocket creates a pocket with a unique name owned by the user.
func CreateTestPocket(t *testing.T, db *gorm.DB, userID string) *models.Pocket {
	t.Helper()
	return CreateTestPocketWithName(t, db, userID, fmt.Sprintf("Test Pocket %d", nextID()))
}

// CreateTestPocketWithName creates a pocket with the given name.
func CreateTestPocketWithName(t *testing.T, db *gorm.DB, userID, name string) *models.Pocket {
	t.Helper()

	pocket := &models.Pocket{Name: name, UserID: userID}
	if err := db.Create(pocket).Error; err != nil {
		t.Fatalf("failed to create test pocket: %v", err)
	}
	return pocket
}

// CreateTestMember grants memberUserID access to the pocket.
func CreateTestMember(t *testing.T, db *gorm.DB, pocketID, memberUserID string) *models.PocketMember {
	t.Helper()

	member := &models.PocketMember{PocketID: pocketID, UserID: memberUserID}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test pocket member: %v", err)
	}
	return member
}

// CreateTestInvoice creates an invoice with one line item in the given pocket.
func CreateTestInvoice(t *testing.T, db *gorm.DB, userID string, pocketID *string, total int64) *models.Invoice {
	t.Helper()
	return CreateTestInvoiceOnDate(t, db, userID, pocketID, total, time.Now())
}

// CreateTestInvoiceOnDate creates an invoice dated at the given time.
func CreateTestInvoiceOnDate(t *testing.T, db *gorm.DB, userID string, pocketID *string, total int64, date time.Time) *models.Invoice {
	t.Helper()

	invoice := &models.Invoice{
		UserID:      userID,
		Summary:     fmt.Sprintf("Test Invoice %d", nextID()),
		Date:        date,
		TotalAmount: decimal.NewFromInt(total),
		PocketID:    pocketID,
		RawText:     "test receipt",
	}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("failed to create test invoice: %v", err)
	}

	item := &models.InvoiceItem{
		InvoiceID:  invoice.ID,
		Name:       fmt.Sprintf("Test Item %d", nextID()),
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.NewFromInt(total),
		TotalPrice: decimal.NewFromInt(total),
		Category:   models.CategoryOther,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test invoice item: %v", err)
	}
	invoice.Items = []models.InvoiceItem{*item}
	return invoice
}

// StubExtractor returns canned extraction output without hitting any
// network. Err takes precedence over Response.
type StubExtractor struct {
	Response string
	Err      error
	Calls    atomic.Int64
}

// Extract implements the invoice pipeline's Extractor contract.
func (s *StubExtractor) Extract(ctx context.Context, in extraction.Input) (string, error) {
	if in.Empty() {
		return "", extraction.ErrNoInput()
	}
	s.Calls.Add(1)
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}
