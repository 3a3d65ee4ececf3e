package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"product-catalog/internal/rules"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names so clients see the fields they sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// The catalog rules back these tags, so requests fail with the same
	// limits the domain enforces.
	_ = validate.RegisterValidation("sku", validateSKU)
	_ = validate.RegisterValidation("currency", validateCurrency)
	_ = validate.RegisterValidation("money", validateMoney)
	_ = validate.RegisterValidation("positive_amount", validatePositiveAmount)
	_ = validate.RegisterValidation("product_name", validateProductName)
	_ = validate.RegisterValidation("product_description", validateProductDescription)
}

func validateSKU(fl validator.FieldLevel) bool {
	_, err := rules.ValidateSKU(fl.Field().String())
	return err == nil
}

// validateCurrency accepts an empty value, which means the default currency.
func validateCurrency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || rules.IsSupportedCurrency(value)
}

// validateMoney checks an amount string against the currency in the sibling
// field named by the tag parameter, e.g. `validate:"money=Currency"`.
func validateMoney(fl validator.FieldLevel) bool {
	currency := rules.DefaultCurrency
	if param := fl.Param(); param != "" {
		if sibling := reflect.Indirect(fl.Parent()).FieldByName(param); sibling.IsValid() && sibling.Kind() == reflect.String && sibling.String() != "" {
			currency = sibling.String()
		}
	}
	_, err := rules.ValidateMoneyString(fl.Field().String(), currency)
	return err == nil
}

func validatePositiveAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	return err == nil && d.IsPositive()
}

func validateProductName(fl validator.FieldLevel) bool {
	_, err := rules.ValidateProductName(fl.Field().String())
	return err == nil
}

func validateProductDescription(fl validator.FieldLevel) bool {
	_, err := rules.ValidateProductDescription(fl.Field().String())
	return err == nil
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errors
}

// RespondWithDecodeError answers a DecodeAndValidate failure: field errors
// become a validation response, anything else is a malformed body.
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		RespondWithValidationErrors(w, FormatValidationErrors(validationErrors))
		return
	}
	RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "lt":
		return "Value must be less than " + e.Param()
	case "sku":
		return "SKU must be 3-50 characters of A-Z, 0-9 or '-'"
	case "currency":
		return "Currency must be one of " + strings.Join(rules.SupportedCurrencies(), ", ")
	case "money":
		return "Amount is not valid for the currency"
	case "positive_amount":
		return "Amount must be greater than zero"
	case "product_name":
		return "Name must be 1-100 characters"
	case "product_description":
		return "Description must be at most 500 characters"
	default:
		return "Invalid value"
	}
}
