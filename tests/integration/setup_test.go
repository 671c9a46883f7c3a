package integration

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"saku/internal/handlers"
	"saku/internal/logger"
	"saku/internal/middleware"
	"saku/internal/services"
	"saku/internal/testutil"
	"saku/internal/validator"
	"saku/internal/viewcache"
)

// testApp holds the full application stack for integration tests. The
// inference endpoint is replaced by a stub; everything else is real.
type testApp struct {
	DB        *gorm.DB
	Router    *gin.Engine
	Extractor *testutil.StubExtractor
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	stub := &testutil.StubExtractor{}
	cache := viewcache.New()

	// Services
	userService := services.NewUserService(db)
	pocketService := services.NewPocketService(db, cache)
	invoiceService := services.NewInvoiceService(db, stub, pocketService, cache, false)
	analysisService := services.NewAnalysisService(db, pocketService, cache)
	auditService := services.NewAuditService(db)

	// Handlers
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, auditService)
	pocketHandler := handlers.NewPocketHandler(pocketService, auditService)
	settingsHandler := handlers.NewSettingsHandler(userService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")
	v1.Use(middleware.SessionMiddleware(userService))

	invoices := v1.Group("/invoices")
	invoices.POST("", invoiceHandler.ProcessInvoice)
	invoices.GET("", invoiceHandler.GetInvoices)
	invoices.GET("/:id", invoiceHandler.GetInvoice)
	invoices.DELETE("/:id", invoiceHandler.DeleteInvoice)

	pockets := v1.Group("/pockets")
	pockets.POST("", pocketHandler.CreatePocket)
	pockets.GET("", pocketHandler.GetPockets)
	pockets.PUT("/:id", pocketHandler.RenamePocket)
	pockets.DELETE("/:id", pocketHandler.DeletePocket)
	pockets.GET("/:id/members", pocketHandler.GetMembers)
	pockets.POST("/:id/members", pocketHandler.SharePocket)
	pockets.DELETE("/:id/members/:userId", pocketHandler.RemoveMember)

	settings := v1.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("/currency", settingsHandler.UpdateCurrency)

	v1.GET("/dashboard", analysisHandler.GetDashboard)
	v1.GET("/analysis", analysisHandler.GetAnalysis)

	return &testApp{DB: db, Router: router, Extractor: stub}
}

// sessionFor mints a session token the way the identity provider would.
func sessionFor(t *testing.T, userID, email, name string) string {
	t.Helper()
	token, err := middleware.GenerateSessionToken(userID, email, name, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint session token: %v", err)
	}
	return token
}

// request makes a JSON HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// submitReceipt posts a multipart receipt submission. Empty fields are omitted.
func (app *testApp) submitReceipt(t *testing.T, rawText, pocketID string, image []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if rawText != "" {
		if err := w.WriteField("raw_text", rawText); err != nil {
			t.Fatalf("failed to write raw_text field: %v", err)
		}
	}
	if pocketID != "" {
		if err := w.WriteField("pocket_id", pocketID); err != nil {
			t.Fatalf("failed to write pocket_id field: %v", err)
		}
	}
	if image != nil {
		fw, err := w.CreateFormFile("file", "receipt.png")
		if err != nil {
			t.Fatalf("failed to create file part: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("failed to write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode digs the application error code out of an error envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}
