package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "saku/internal/errors"
	"saku/internal/extraction"
	"saku/internal/services"
	"saku/internal/uuid"
)

// maxReceiptImageSize caps uploaded receipt photos at 10 MiB.
const maxReceiptImageSize = 10 << 20

// InvoiceHandler handles invoice-related requests.
type InvoiceHandler struct {
	invoiceService services.InvoiceServicer
	auditService   services.AuditServicer
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService services.InvoiceServicer, auditService services.AuditServicer) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, auditService: auditService}
}

// ListInvoicesQuery represents the query parameters for listing invoices.
type ListInvoicesQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Query    string `form:"query"`
	PocketID string `form:"pocket_id" binding:"omitempty,uuid"`
	Month    string `form:"month" binding:"omitempty,month"`
}

// ProcessInvoice handles the extraction-and-save pipeline.
// @Summary     Process an invoice
// @Description Extract structured data from receipt text or a photo and persist it
// @Tags        invoices
// @Accept      mpfd
// @Produce     json
// @Security    BearerAuth
// @Param       raw_text  formData string false "Receipt text or transcript"
// @Param       pocket_id formData string false "Target pocket ID"
// @Param       file      formData file   false "Receipt photo"
// @Success     201 {object} models.Invoice "Persisted invoice with items"
// @Failure     400 {object} ErrorResponse "Neither text nor image supplied"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Extraction produced unusable output"
// @Failure     502 {object} ErrorResponse "Inference service failure"
// @Router      /invoices [post]
func (h *InvoiceHandler) ProcessInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := extraction.Input{RawText: c.PostForm("raw_text")}

	pocketID := c.PostForm("pocket_id")
	if pocketID != "" && !uuid.IsValid(pocketID) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid pocket_id"))
		return
	}

	if fileHeader, err := c.FormFile("file"); err == nil {
		if fileHeader.Size > maxReceiptImageSize {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Image must be smaller than 10MB"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
			return
		}
		in.ImageData = data
		in.ImageMIME = fileHeader.Header.Get("Content-Type")
		if in.ImageMIME == "" {
			in.ImageMIME = http.DetectContentType(data)
		}
	}

	invoice, err := h.invoiceService.ProcessInvoice(c.Request.Context(), userID, in, pocketID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_INVOICE", "invoice", invoice.ID, c.ClientIP(),
		map[string]interface{}{"summary": invoice.Summary, "total_amount": invoice.TotalAmount, "items": len(invoice.Items)})

	c.JSON(http.StatusCreated, gin.H{"invoice": invoice})
}

// GetInvoices handles listing invoices visible to the authenticated user.
// @Summary     List invoices
// @Description Get a paginated list of invoices visible to the user, filtered by month, pocket, and summary search
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       query     query string false "Summary search"
// @Param       pocket_id query string false "Filter by pocket ID"
// @Param       month     query string false "Month filter (YYYY-MM, default current)"
// @Success     200 {object} pagination.PageResponse[models.Invoice] "Paginated invoices"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /invoices [get]
func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	page := paginationFromQuery(q.Page, q.PageSize)
	filter := services.InvoiceFilter{Query: q.Query, PocketID: q.PocketID, Month: q.Month}

	result, err := h.invoiceService.GetInvoices(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetInvoice handles retrieving a specific invoice with its items.
// @Summary     Get invoice by ID
// @Description Get a specific invoice with its line items
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} models.Invoice "Invoice details"
// @Failure     400 {object} ErrorResponse "Invalid invoice ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not visible to this user"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Router      /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoice, err := h.invoiceService.GetInvoiceByID(userID, invoiceID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": invoice})
}

// DeleteInvoice handles deleting an invoice and its items.
// @Summary     Delete invoice
// @Description Delete an invoice; permitted for the creator and the pocket owner
// @Tags        invoices
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Invoice ID"
// @Success     200 {object} map[string]string "Deletion confirmed"
// @Failure     400 {object} ErrorResponse "Invalid invoice ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Caller may not delete this invoice"
// @Failure     404 {object} ErrorResponse "Invoice not found"
// @Router      /invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invoiceID, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.invoiceService.DeleteInvoice(userID, invoiceID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_INVOICE", "invoice", invoiceID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted"})
}
