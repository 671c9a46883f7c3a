package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saku/internal/currency"
	apperrors "saku/internal/errors"
	"saku/internal/services"
)

// SettingsHandler handles user settings requests.
type SettingsHandler struct {
	userService services.UserServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(userService services.UserServicer) *SettingsHandler {
	return &SettingsHandler{userService: userService}
}

// UpdateCurrencyRequest represents the request payload for changing the
// display currency.
type UpdateCurrencyRequest struct {
	Currency string `json:"currency" binding:"required,currency_code"`
}

// GetSettings handles retrieving the authenticated user's settings.
// @Summary     Get settings
// @Description Get the user's profile and currency preference, with the supported currency list
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Settings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":                 user,
		"supported_currencies": currency.Supported,
	})
}

// UpdateCurrency handles changing the user's display currency.
// @Summary     Update currency
// @Description Set the user's display currency preference
// @Tags        settings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateCurrencyRequest true "Currency code"
// @Success     200 {object} models.User "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid currency code"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /settings/currency [put]
func (h *SettingsHandler) UpdateCurrency(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.UpdateCurrency(userID, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
