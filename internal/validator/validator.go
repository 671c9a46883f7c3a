// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"saku/internal/currency"
	"saku/internal/models"
)

var monthRegex = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency_code", validateCurrencyCode)
		_ = v.RegisterValidation("item_category", validateItemCategory)
		_ = v.RegisterValidation("month", validateMonth)
	}
}

func validateCurrencyCode(fl validator.FieldLevel) bool {
	return currency.IsSupported(fl.Field().String())
}

func validateItemCategory(fl validator.FieldLevel) bool {
	return models.IsValidItemCategory(fl.Field().String())
}

func validateMonth(fl validator.FieldLevel) bool {
	return monthRegex.MatchString(fl.Field().String())
}
