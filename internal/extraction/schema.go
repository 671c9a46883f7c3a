package extraction

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	apperrors "saku/internal/errors"
	"saku/internal/models"
)

// ItemDraft is one validated line item from the model's answer.
type ItemDraft struct {
	Name       string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	Category   models.ItemCategory
}

// InvoiceDraft is the validated shape of one extraction, ready for
// persistence. No sign coercion or quantity/price consistency check is
// applied; the model's numbers are taken verbatim.
type InvoiceDraft struct {
	Summary     string
	Date        time.Time
	TotalAmount decimal.Decimal
	Items       []ItemDraft
}

// rawDraft mirrors the JSON contract with pointer fields so missing and
// mistyped fields can be told apart from zero values.
type rawDraft struct {
	Summary     *string    `json:"summary"`
	Date        *string    `json:"date"`
	TotalAmount *float64   `json:"totalAmount"`
	Items       *[]rawItem `json:"items"`
}

type rawItem struct {
	Name       *string  `json:"name"`
	Quantity   *float64 `json:"quantity"`
	UnitPrice  *float64 `json:"unitPrice"`
	TotalPrice *float64 `json:"totalPrice"`
	Category   *string  `json:"category"`
}

// ParseDraft parses and type-checks the raw JSON text produced by the
// model. Unparseable text fails with EXTRACTION_BAD_JSON, missing or
// mistyped fields with EXTRACTION_BAD_SCHEMA, and an answer with no items
// and no total with EXTRACTION_UNREADABLE (the source was likely
// unreadable).
func ParseDraft(raw string) (*InvoiceDraft, error) {
	var probe any
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMalformedJSON, err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, apperrors.WithMessage(apperrors.ErrSchemaViolation, "expected a JSON object")
	}

	var rd rawDraft
	if err := json.Unmarshal([]byte(raw), &rd); err != nil {
		// Valid JSON but fields of the wrong type.
		return nil, apperrors.Wrap(apperrors.ErrSchemaViolation, err)
	}

	if rd.Summary == nil {
		return nil, apperrors.WithMessage(apperrors.ErrSchemaViolation, "summary is required")
	}
	if rd.Date == nil {
		return nil, apperrors.WithMessage(apperrors.ErrSchemaViolation, "date is required")
	}
	date, err := time.Parse("2006-01-02", *rd.Date)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrSchemaViolation, "date must be YYYY-MM-DD")
	}

	var items []rawItem
	if rd.Items != nil {
		items = *rd.Items
	}

	totalAbsent := rd.TotalAmount == nil || *rd.TotalAmount == 0
	if len(items) == 0 && totalAbsent {
		return nil, apperrors.ErrEmptyExtraction
	}
	if rd.TotalAmount == nil {
		return nil, apperrors.WithMessage(apperrors.ErrSchemaViolation, "totalAmount is required")
	}

	draft := &InvoiceDraft{
		Summary:     *rd.Summary,
		Date:        date,
		TotalAmount: decimal.NewFromFloat(*rd.TotalAmount),
		Items:       make([]ItemDraft, 0, len(items)),
	}

	for _, it := range items {
		if it.Name == nil || it.Quantity == nil || it.UnitPrice == nil || it.TotalPrice == nil || it.Category == nil {
			return nil, apperrors.WithMessage(apperrors.ErrSchemaViolation, "item fields name/quantity/unitPrice/totalPrice/category are required")
		}
		if !models.IsValidItemCategory(*it.Category) {
			return nil, apperrors.WithMessage(apperrors.ErrSchemaViolation, "unknown item category: "+*it.Category)
		}
		draft.Items = append(draft.Items, ItemDraft{
			Name:       *it.Name,
			Quantity:   decimal.NewFromFloat(*it.Quantity),
			UnitPrice:  decimal.NewFromFloat(*it.UnitPrice),
			TotalPrice: decimal.NewFromFloat(*it.TotalPrice),
			Category:   models.ItemCategory(*it.Category),
		})
	}

	return draft, nil
}
