package integration

import (
	"net/http"
	"testing"
)

func TestAnalysisFlow_DashboardAndCharts(t *testing.T) {
	app := setupApp(t)
	token := sessionFor(t, "user-budi", "budi@test.com", "Budi")

	// Two receipts in March 2025.
	app.Extractor.Response = weeklyGroceriesJSON
	rec := app.submitReceipt(t, "belanja mingguan", "", nil, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
	}
	app.Extractor.Response = `{
		"summary": "Nonton di CGV",
		"date": "2025-03-20",
		"totalAmount": 50000,
		"items": [
			{"name": "Tiket", "quantity": 2, "unitPrice": 25000, "totalPrice": 50000, "category": "Hiburan"}
		]
	}`
	rec = app.submitReceipt(t, "tiket bioskop", "", nil, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
	}

	// Dashboard for the month.
	rec = app.request("GET", "/api/v1/dashboard?month=2025-03", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	dashboard := parseJSON(t, rec)
	if dashboard["total_spend"].(string) != "75000" {
		t.Errorf("expected total 75000, got %v", dashboard["total_spend"])
	}
	if dashboard["invoice_count"].(float64) != 2 {
		t.Errorf("expected 2 invoices, got %v", dashboard["invoice_count"])
	}
	pocketTotals := dashboard["pocket_totals"].([]interface{})
	if len(pocketTotals) != 1 {
		t.Fatalf("expected 1 pocket total, got %d", len(pocketTotals))
	}
	personal := pocketTotals[0].(map[string]interface{})
	if personal["pocket_name"] != "Personal" || personal["total"].(string) != "75000" {
		t.Errorf("unexpected pocket total: %v", personal)
	}

	// Charts: category breakdown and the per-day series.
	rec = app.request("GET", "/api/v1/analysis?month=2025-03", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	analysis := parseJSON(t, rec)
	categories := analysis["category_totals"].([]interface{})
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	// Sembako comes before Hiburan in the fixed order.
	first := categories[0].(map[string]interface{})
	if first["category"] != "Sembako" || first["total"].(string) != "25000" {
		t.Errorf("unexpected first category: %v", first)
	}
	days := analysis["day_totals"].([]interface{})
	if len(days) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(days))
	}
	if days[0].(map[string]interface{})["day"] != "2025-03-15" {
		t.Errorf("expected days ascending, got %v", days[0])
	}

	// A month with no receipts is empty, not an error.
	rec = app.request("GET", "/api/v1/dashboard?month=2025-01", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	empty := parseJSON(t, rec)
	if empty["invoice_count"].(float64) != 0 {
		t.Errorf("expected empty month, got %v", empty["invoice_count"])
	}

	// Malformed month filters are rejected by binding.
	rec = app.request("GET", "/api/v1/dashboard?month=March", "", token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed month, got %d", rec.Code)
	}
}

func TestAnalysisFlow_WriteInvalidatesCachedViews(t *testing.T) {
	app := setupApp(t)
	app.Extractor.Response = weeklyGroceriesJSON
	token := sessionFor(t, "user-budi", "budi@test.com", "Budi")

	rec := app.submitReceipt(t, "receipt one", "", nil, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
	}

	// Prime the cache.
	rec = app.request("GET", "/api/v1/dashboard?month=2025-03", "", token)
	if parseJSON(t, rec)["total_spend"].(string) != "25000" {
		t.Fatalf("unexpected primed total: %s", rec.Body.String())
	}

	// A second receipt must show up immediately.
	rec = app.submitReceipt(t, "receipt two", "", nil, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/dashboard?month=2025-03", "", token)
	if parseJSON(t, rec)["total_spend"].(string) != "50000" {
		t.Errorf("expected refreshed total 50000, got %v", parseJSON(t, rec)["total_spend"])
	}

	// So must a deletion.
	rec = app.request("GET", "/api/v1/invoices?month=2025-03", "", token)
	invoices := parseJSON(t, rec)["data"].([]interface{})
	invoiceID := invoices[0].(map[string]interface{})["id"].(string)
	rec = app.request("DELETE", "/api/v1/invoices/"+invoiceID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/dashboard?month=2025-03", "", token)
	if parseJSON(t, rec)["total_spend"].(string) != "25000" {
		t.Errorf("expected total back to 25000, got %v", parseJSON(t, rec)["total_spend"])
	}
}
