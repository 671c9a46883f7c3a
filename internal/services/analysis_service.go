package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "saku/internal/errors"
	"saku/internal/models"
	"saku/internal/viewcache"
)

// analysisService computes the dashboard and chart aggregates. Totals are
// recomputed from the full set of visible invoices on each miss and
// cached per user until the next write invalidates them.
type analysisService struct {
	db            *gorm.DB
	pocketService PocketServicer
	cache         *viewcache.Cache
}

// NewAnalysisService creates a new AnalysisServicer.
func NewAnalysisService(db *gorm.DB, pocketService PocketServicer, cache *viewcache.Cache) AnalysisServicer {
	return &analysisService{db: db, pocketService: pocketService, cache: cache}
}

// GetDashboard returns the month's total spend, spend per pocket, and the
// most recent invoices visible to the user.
func (s *analysisService) GetDashboard(userID, month string) (*Dashboard, error) {
	monthKey := normalizeMonth(month)
	if cached, ok := s.cache.Get(userID, "dashboard:"+monthKey); ok {
		return cached.(*Dashboard), nil
	}

	invoices, err := s.visibleInvoices(userID, monthKey, false)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	pocketTotals := make(map[string]*PocketTotal)
	for i := range invoices {
		inv := &invoices[i]
		total = total.Add(inv.TotalAmount)
		if inv.PocketID == nil {
			continue
		}
		pt, ok := pocketTotals[*inv.PocketID]
		if !ok {
			name := ""
			if inv.Pocket != nil {
				name = inv.Pocket.Name
			}
			pt = &PocketTotal{PocketID: *inv.PocketID, PocketName: name}
			pocketTotals[*inv.PocketID] = pt
		}
		pt.Total = pt.Total.Add(inv.TotalAmount)
	}

	totals := make([]PocketTotal, 0, len(pocketTotals))
	for _, pt := range pocketTotals {
		totals = append(totals, *pt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Total.GreaterThan(totals[j].Total) })

	recent := invoices
	if len(recent) > 5 {
		recent = recent[:5]
	}

	dashboard := &Dashboard{
		Month:          monthKey,
		TotalSpend:     total,
		InvoiceCount:   int64(len(invoices)),
		PocketTotals:   totals,
		RecentInvoices: recent,
	}
	s.cache.Set(userID, "dashboard:"+monthKey, dashboard)
	return dashboard, nil
}

// GetAnalysis returns the month's category breakdown and per-day series
// for the charts view.
func (s *analysisService) GetAnalysis(userID, month string) (*Analysis, error) {
	monthKey := normalizeMonth(month)
	if cached, ok := s.cache.Get(userID, "analysis:"+monthKey); ok {
		return cached.(*Analysis), nil
	}

	invoices, err := s.visibleInvoices(userID, monthKey, true)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	categoryTotals := make(map[models.ItemCategory]decimal.Decimal)
	dayTotals := make(map[string]decimal.Decimal)
	for i := range invoices {
		inv := &invoices[i]
		total = total.Add(inv.TotalAmount)

		day := inv.Date.Format("2006-01-02")
		dayTotals[day] = dayTotals[day].Add(inv.TotalAmount)

		for _, item := range inv.Items {
			categoryTotals[item.Category] = categoryTotals[item.Category].Add(item.TotalPrice)
		}
	}

	categories := make([]CategoryTotal, 0, len(categoryTotals))
	for _, c := range models.ItemCategories {
		if t, ok := categoryTotals[c]; ok {
			categories = append(categories, CategoryTotal{Category: c, Total: t})
		}
	}

	days := make([]DayTotal, 0, len(dayTotals))
	for day, t := range dayTotals {
		days = append(days, DayTotal{Day: day, Total: t})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })

	analysis := &Analysis{
		Month:          monthKey,
		TotalSpend:     total,
		CategoryTotals: categories,
		DayTotals:      days,
	}
	s.cache.Set(userID, "analysis:"+monthKey, analysis)
	return analysis, nil
}

// visibleInvoices loads every invoice the user can see within the month,
// newest first, optionally with items preloaded.
func (s *analysisService) visibleInvoices(userID, monthKey string, withItems bool) ([]models.Invoice, error) {
	start, end, err := monthWindow(monthKey)
	if err != nil {
		return nil, err
	}

	accessible, err := s.pocketService.AccessiblePocketIDs(userID)
	if err != nil {
		return nil, err
	}

	q := s.db.Model(&models.Invoice{}).Where("date >= ? AND date < ?", start, end)
	if len(accessible) > 0 {
		q = q.Where("user_id = ? OR pocket_id IN ?", userID, accessible)
	} else {
		q = q.Where("user_id = ?", userID)
	}
	q = q.Preload("Pocket").Order("date DESC").Order("created_at DESC")
	if withItems {
		q = q.Preload("Items")
	}

	var invoices []models.Invoice
	if err := q.Find(&invoices).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return invoices, nil
}

// normalizeMonth resolves an empty month filter to the current month.
func normalizeMonth(month string) string {
	if month == "" {
		return time.Now().Format("2006-01")
	}
	return month
}
