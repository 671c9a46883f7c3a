// Package errors provides custom error types for the Saku API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
)

// Extraction errors. None of these are retried automatically; the user
// re-submits with clearer input instead.
var (
	ErrExtractionService = &AppError{Code: "EXTRACTION_FAILED", Message: "The receipt could not be processed, please try again", StatusCode: http.StatusBadGateway}
	ErrExtractionTimeout = &AppError{Code: "EXTRACTION_TIMEOUT", Message: "The receipt took too long to process, please try again", StatusCode: http.StatusGatewayTimeout}
	ErrEmptyResponse     = &AppError{Code: "EXTRACTION_EMPTY_RESPONSE", Message: "The receipt could not be read, please try again with clearer input", StatusCode: http.StatusUnprocessableEntity}
	ErrMalformedJSON     = &AppError{Code: "EXTRACTION_BAD_JSON", Message: "The receipt could not be read, please try again with clearer input", StatusCode: http.StatusUnprocessableEntity}
	ErrSchemaViolation   = &AppError{Code: "EXTRACTION_BAD_SCHEMA", Message: "The receipt could not be read, please try again with clearer input", StatusCode: http.StatusUnprocessableEntity}
	ErrEmptyExtraction   = &AppError{Code: "EXTRACTION_UNREADABLE", Message: "No items or total could be found, please try again with clearer input", StatusCode: http.StatusUnprocessableEntity}
)

// Invoice errors.
var (
	ErrInvoiceNotFound = &AppError{Code: "INVOICE_NOT_FOUND", Message: "Invoice not found", StatusCode: http.StatusNotFound}
)

// Pocket errors.
var (
	ErrPocketNotFound  = &AppError{Code: "POCKET_NOT_FOUND", Message: "Pocket not found", StatusCode: http.StatusNotFound}
	ErrDuplicatePocket = &AppError{Code: "DUPLICATE_POCKET", Message: "A pocket with this name already exists", StatusCode: http.StatusConflict}
	ErrAlreadyMember   = &AppError{Code: "ALREADY_MEMBER", Message: "This user already has access to the pocket", StatusCode: http.StatusConflict}
	ErrMemberNotFound  = &AppError{Code: "MEMBER_NOT_FOUND", Message: "Pocket member not found", StatusCode: http.StatusNotFound}
)
