package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemCategory is the fixed set of categories the extraction model is
// allowed to assign to a line item.
type ItemCategory string

const (
	CategoryGroceries ItemCategory = "Sembako"
	CategoryFood      ItemCategory = "Makan & Minum"
	CategoryTransport ItemCategory = "Transportasi"
	CategoryUtilities ItemCategory = "Utilitas"
	CategoryLeisure   ItemCategory = "Hiburan"
	CategoryHealth    ItemCategory = "Kesehatan"
	CategoryOther     ItemCategory = "Lain-lain"
)

// ItemCategories lists every valid category, in prompt order.
var ItemCategories = []ItemCategory{
	CategoryGroceries,
	CategoryFood,
	CategoryTransport,
	CategoryUtilities,
	CategoryLeisure,
	CategoryHealth,
	CategoryOther,
}

// IsValidItemCategory reports whether s is one of the fixed categories.
func IsValidItemCategory(s string) bool {
	for _, c := range ItemCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Invoice is one parsed transaction. Invoices are created only by the
// extraction pipeline and never mutated afterwards; deletion removes the
// row together with its items.
type Invoice struct {
	Base
	UserID      string          `gorm:"not null;index" json:"user_id"`
	Summary     string          `gorm:"not null" json:"summary"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	TotalAmount decimal.Decimal `gorm:"type:numeric;not null" json:"total_amount"`
	PocketID    *string         `gorm:"type:uuid;index" json:"pocket_id,omitempty"`
	RawText     string          `json:"raw_text,omitempty"`

	Items  []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	Pocket *Pocket       `gorm:"foreignKey:PocketID" json:"pocket,omitempty"`
}

// InvoiceItem is one parsed line item, owned exclusively by its invoice.
// The quantity * unit_price ~= total_price relation is not enforced; the
// extraction output is stored verbatim.
type InvoiceItem struct {
	Base
	InvoiceID  string          `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Name       string          `gorm:"not null" json:"name"`
	Quantity   decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric;not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric;not null" json:"total_price"`
	Category   ItemCategory    `gorm:"not null" json:"category"`
}
