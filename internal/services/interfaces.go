package services

import (
	"context"

	"saku/internal/extraction"
	"saku/internal/models"
	"saku/internal/pagination"

	"github.com/shopspring/decimal"
)

// Extractor is the slice of the extraction client the invoice pipeline
// needs. Tests substitute a stub.
type Extractor interface {
	Extract(ctx context.Context, in extraction.Input) (string, error)
}

// UserServicer defines the contract for identity and settings logic.
type UserServicer interface {
	EnsureUser(id, name, email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateCurrency(userID, code string) (*models.User, error)
}

// PocketView is a pocket as seen by one user; Shared marks pockets the
// user can access through membership rather than ownership.
type PocketView struct {
	models.Pocket
	Shared bool `json:"shared"`
}

// MemberView is one row of a pocket's member list.
type MemberView struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsOwner bool   `json:"is_owner"`
}

// PocketServicer defines the contract for pocket-related business logic.
type PocketServicer interface {
	CreatePocket(userID, name string) (*models.Pocket, error)
	GetUserPockets(userID string) ([]PocketView, error)
	GetPocketByID(pocketID string) (*models.Pocket, error)
	RenamePocket(userID, pocketID, newName string) (*models.Pocket, error)
	DeletePocket(userID, pocketID string) error
	ResolvePocket(userID, explicitID string) (string, error)
	AccessiblePocketIDs(userID string) ([]string, error)
	CanAccess(userID, pocketID string) (bool, error)
	SharePocket(userID, pocketID, email string) (*MemberView, error)
	GetMembers(userID, pocketID string) ([]MemberView, error)
	RemoveMember(userID, pocketID, memberUserID string) error
}

// InvoiceFilter holds optional filter parameters for listing invoices.
type InvoiceFilter struct {
	Query    string
	PocketID string
	Month    string // YYYY-MM; empty means the current month
}

// InvoiceServicer defines the contract for the invoice pipeline.
type InvoiceServicer interface {
	ProcessInvoice(ctx context.Context, userID string, in extraction.Input, pocketID string) (*models.Invoice, error)
	GetInvoices(userID string, page pagination.PageRequest, filter InvoiceFilter) (*pagination.PageResponse[models.Invoice], error)
	GetInvoiceByID(userID, invoiceID string) (*models.Invoice, error)
	DeleteInvoice(userID, invoiceID string) error
}

// PocketTotal is one pocket's spend within the dashboard month.
type PocketTotal struct {
	PocketID   string          `json:"pocket_id"`
	PocketName string          `json:"pocket_name"`
	Total      decimal.Decimal `json:"total"`
}

// Dashboard is the home view: month total, per-pocket totals, and the
// most recent invoices.
type Dashboard struct {
	Month          string           `json:"month"`
	TotalSpend     decimal.Decimal  `json:"total_spend"`
	InvoiceCount   int64            `json:"invoice_count"`
	PocketTotals   []PocketTotal    `json:"pocket_totals"`
	RecentInvoices []models.Invoice `json:"recent_invoices"`
}

// CategoryTotal is one category's spend within the analysis month.
type CategoryTotal struct {
	Category models.ItemCategory `json:"category"`
	Total    decimal.Decimal     `json:"total"`
}

// DayTotal is one calendar day's spend within the analysis month.
type DayTotal struct {
	Day   string          `json:"day"` // YYYY-MM-DD
	Total decimal.Decimal `json:"total"`
}

// Analysis is the chart view: category breakdown and per-day series.
type Analysis struct {
	Month          string          `json:"month"`
	TotalSpend     decimal.Decimal `json:"total_spend"`
	CategoryTotals []CategoryTotal `json:"category_totals"`
	DayTotals      []DayTotal      `json:"day_totals"`
}

// AnalysisServicer defines the contract for aggregate views.
type AnalysisServicer interface {
	GetDashboard(userID, month string) (*Dashboard, error)
	GetAnalysis(userID, month string) (*Analysis, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
