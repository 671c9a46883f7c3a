package integration

import (
	"fmt"
	"net/http"
	"testing"
)

const weeklyGroceriesJSON = `{
	"summary": "Belanja Mingguan di Indomaret",
	"date": "2025-03-15",
	"totalAmount": 25000,
	"items": [
		{"name": "Susu Ultra 1L", "quantity": 1, "unitPrice": 15000, "totalPrice": 15000, "category": "Sembako"},
		{"name": "Roti Tawar", "quantity": 2, "unitPrice": 5000, "totalPrice": 10000, "category": "Sembako"}
	]
}`

func TestInvoiceFlow_SubmitListFetchDelete(t *testing.T) {
	app := setupApp(t)
	app.Extractor.Response = weeklyGroceriesJSON
	token := sessionFor(t, "user-budi", "budi@test.com", "Budi")

	// Step 1: Submit a text receipt.
	rec := app.submitReceipt(t, "susu 15000, roti 2x5000", "", nil, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	invoice := result["invoice"].(map[string]interface{})
	invoiceID := invoice["id"].(string)
	if invoice["summary"] != "Belanja Mingguan di Indomaret" {
		t.Errorf("unexpected summary: %v", invoice["summary"])
	}
	items := invoice["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if invoice["raw_text"] != "susu 15000, roti 2x5000" {
		t.Errorf("expected submitted text kept, got %v", invoice["raw_text"])
	}
	pocket := invoice["pocket"].(map[string]interface{})
	if pocket["name"] != "Personal" {
		t.Errorf("expected default pocket, got %v", pocket["name"])
	}

	// Step 2: The invoice shows up in the month listing.
	rec = app.request("GET", "/api/v1/invoices?month=2025-03", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	listing := parseJSON(t, rec)
	if listing["total_items"].(float64) != 1 {
		t.Fatalf("expected 1 invoice listed, got %v", listing["total_items"])
	}

	// Step 3: Fetch it by id; every extracted field survives the round trip.
	rec = app.request("GET", "/api/v1/invoices/"+invoiceID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	fetched := parseJSON(t, rec)["invoice"].(map[string]interface{})
	if fetched["total_amount"].(string) != "25000" {
		t.Errorf("expected total 25000, got %v", fetched["total_amount"])
	}
	bread := fetched["items"].([]interface{})[1].(map[string]interface{})
	if bread["name"] != "Roti Tawar" || bread["quantity"].(string) != "2" {
		t.Errorf("unexpected second item: %v", bread)
	}
	if bread["category"] != "Sembako" {
		t.Errorf("expected category Sembako, got %v", bread["category"])
	}

	// Step 4: Delete it; the listing is empty again.
	rec = app.request("DELETE", "/api/v1/invoices/"+invoiceID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/invoices/"+invoiceID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/invoices?month=2025-03", "", token)
	if parseJSON(t, rec)["total_items"].(float64) != 0 {
		t.Error("expected empty listing after delete")
	}
}

func TestInvoiceFlow_PhotoReceipt(t *testing.T) {
	app := setupApp(t)
	app.Extractor.Response = weeklyGroceriesJSON
	token := sessionFor(t, "user-budi", "budi@test.com", "Budi")

	rec := app.submitReceipt(t, "", "", []byte{0x89, 0x50, 0x4e, 0x47}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	invoice := parseJSON(t, rec)["invoice"].(map[string]interface{})
	if invoice["raw_text"] != "Image Upload" {
		t.Errorf("expected image placeholder provenance, got %v", invoice["raw_text"])
	}
}

func TestInvoiceFlow_EmptySubmission(t *testing.T) {
	app := setupApp(t)
	app.Extractor.Response = weeklyGroceriesJSON
	token := sessionFor(t, "user-budi", "budi@test.com", "Budi")

	rec := app.submitReceipt(t, "", "", nil, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %s", code)
	}
	if app.Extractor.Calls.Load() != 0 {
		t.Errorf("expected no inference call, got %d", app.Extractor.Calls.Load())
	}

	// Nothing was written.
	rec = app.request("GET", "/api/v1/invoices", "", token)
	if parseJSON(t, rec)["total_items"].(float64) != 0 {
		t.Error("expected no invoices after rejected submission")
	}
}

func TestInvoiceFlow_UnusableModelOutput(t *testing.T) {
	app := setupApp(t)
	token := sessionFor(t, "user-budi", "budi@test.com", "Budi")

	cases := []struct {
		name     string
		response string
		wantCode string
	}{
		{"not_json", "I can't read this.", "EXTRACTION_BAD_JSON"},
		{"missing_fields", `{"summary":"x"}`, "EXTRACTION_BAD_SCHEMA"},
		{"unreadable", `{"summary":"Foto buram","date":"2025-03-01","totalAmount":0,"items":[]}`, "EXTRACTION_UNREADABLE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app.Extractor.Response = tc.response

			rec := app.submitReceipt(t, "some receipt", "", nil, token)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tc.wantCode {
				t.Errorf("expected %s, got %s", tc.wantCode, code)
			}
		})
	}
}

func TestInvoiceFlow_ExplicitPocket(t *testing.T) {
	app := setupApp(t)
	app.Extractor.Response = weeklyGroceriesJSON
	token := sessionFor(t, "user-budi", "budi@test.com", "Budi")

	rec := app.request("POST", "/api/v1/pockets", `{"name":"Liburan"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	pocketID := parseJSON(t, rec)["pocket"].(map[string]interface{})["id"].(string)

	rec = app.submitReceipt(t, "receipt", pocketID, nil, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	invoice := parseJSON(t, rec)["invoice"].(map[string]interface{})
	if invoice["pocket_id"] != pocketID {
		t.Errorf("expected invoice filed into %s, got %v", pocketID, invoice["pocket_id"])
	}

	// An invalid pocket id never reaches the pipeline.
	rec = app.submitReceipt(t, "receipt", "not-a-uuid", nil, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed pocket id, got %d", rec.Code)
	}

	// A well-formed but unknown pocket id is rejected after extraction.
	rec = app.submitReceipt(t, "receipt", "0195fae0-0000-7000-8000-000000000000", nil, token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown pocket, got %d", rec.Code)
	}
}

func TestInvoiceFlow_SharedVisibilityAndDeletion(t *testing.T) {
	app := setupApp(t)
	app.Extractor.Response = weeklyGroceriesJSON
	ownerToken := sessionFor(t, "user-owner", "owner@test.com", "Owner")
	memberToken := sessionFor(t, "user-member", "member@test.com", "Member")
	strangerToken := sessionFor(t, "user-stranger", "stranger@test.com", "Stranger")

	// Member and stranger must exist before sharing; their rows are
	// provisioned on first request.
	app.request("GET", "/api/v1/pockets", "", memberToken)
	app.request("GET", "/api/v1/pockets", "", strangerToken)

	// Owner creates a pocket, shares it, and files an invoice into it.
	rec := app.request("POST", "/api/v1/pockets", `{"name":"Rumah Tangga"}`, ownerToken)
	pocketID := parseJSON(t, rec)["pocket"].(map[string]interface{})["id"].(string)
	rec = app.request("POST", fmt.Sprintf("/api/v1/pockets/%s/members", pocketID),
		`{"email":"member@test.com"}`, ownerToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("share failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.submitReceipt(t, "receipt", pocketID, nil, ownerToken)
	invoiceID := parseJSON(t, rec)["invoice"].(map[string]interface{})["id"].(string)

	// The member sees it, the stranger does not.
	rec = app.request("GET", "/api/v1/invoices/"+invoiceID, "", memberToken)
	if rec.Code != http.StatusOK {
		t.Errorf("expected member to see the invoice, got %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/invoices/"+invoiceID, "", strangerToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for stranger, got %d", rec.Code)
	}

	// The member may not delete the owner's invoice; it stays intact.
	rec = app.request("DELETE", "/api/v1/invoices/"+invoiceID, "", memberToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for member delete, got %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/invoices/"+invoiceID, "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Errorf("expected invoice intact after denied delete, got %d", rec.Code)
	}

	// The pocket owner can delete an invoice a member filed.
	rec = app.submitReceipt(t, "member receipt", pocketID, nil, memberToken)
	memberInvoiceID := parseJSON(t, rec)["invoice"].(map[string]interface{})["id"].(string)
	rec = app.request("DELETE", "/api/v1/invoices/"+memberInvoiceID, "", ownerToken)
	if rec.Code != http.StatusOK {
		t.Errorf("expected pocket owner to delete member invoice, got %d: %s", rec.Code, rec.Body.String())
	}
}
