// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"budgetwise/internal/money"
)

// DateLayout is the wire format for calendar dates in request bodies.
const DateLayout = "2006-01-02"

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

var registerOnce sync.Once

// tags maps every custom binding tag used by request structs to its check.
var tags = map[string]validator.Func{
	"hex_color":        validateHexColor,
	"transaction_type": validateTransactionType,
	"category_type":    validateCategoryType,
	"decimal_amount":   validateDecimalAmount,
	"decimal_nonneg":   validateDecimalNonNegative,
	"date_only":        validateDateOnly,
	"budget_month":     validateBudgetMonth,
}

// Register installs the custom tags on Gin's binding engine. Binding a
// struct that uses an unregistered tag panics, so every router must call
// this before serving. Repeated calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerOn(v)
		}
	})
}

func registerOn(v *validator.Validate) {
	for tag, fn := range tags {
		_ = v.RegisterValidation(tag, fn)
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

// validateDecimalAmount accepts strictly positive amounts with at most two decimals.
func validateDecimalAmount(fl validator.FieldLevel) bool {
	_, err := money.ParseAmount(fl.Field().String())
	return err == nil
}

func validateDecimalNonNegative(fl validator.FieldLevel) bool {
	_, err := money.ParseNonNegative(fl.Field().String())
	return err == nil
}

func validateDateOnly(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateBudgetMonth(fl validator.FieldLevel) bool {
	m := fl.Field().Int()
	return m >= 1 && m <= 12
}
