package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"product-catalog/internal/rules"
	"product-catalog/internal/service"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithErrorDetails(w, statusCode, message, nil)
}

// RespondWithErrorDetails sends a structured error response with additional details
func RespondWithErrorDetails(w http.ResponseWriter, statusCode int, message string, details map[string]interface{}) {
	writeError(w, statusCode, http.StatusText(statusCode), message, details)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	details := make(map[string]interface{})
	details["validation_errors"] = errors

	RespondWithErrorDetails(w, http.StatusBadRequest, "validation failed", details)
}

// ViolationDetail is one broken business rule in an error response.
type ViolationDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorStatuses = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{service.ErrCategoryNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND"},
	{service.ErrSKUAlreadyExists, http.StatusConflict, "SKU_ALREADY_EXISTS"},
	{service.ErrCategoryAlreadyExists, http.StatusConflict, "CATEGORY_ALREADY_EXISTS"},
	{service.ErrConcurrentModification, http.StatusConflict, "CONCURRENT_MODIFICATION"},
	{service.ErrProductHasStock, http.StatusConflict, "PRODUCT_HAS_STOCK"},
	{service.ErrCategoryInUse, http.StatusConflict, "CATEGORY_IN_USE"},
	{service.ErrInvalidID, http.StatusBadRequest, "INVALID_ID"},
}

// RespondWithServiceError maps service and rule errors to HTTP responses.
// Unknown errors are logged and hidden behind a 500.
func RespondWithServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.code, e.err.Error(), nil)
			return
		}
	}

	if violations := collectViolations(err); len(violations) > 0 {
		status := http.StatusBadRequest
		details := make([]ViolationDetail, len(violations))
		for i, v := range violations {
			details[i] = ViolationDetail{Code: string(v.Code), Message: v.Error()}
			if v.Code == rules.CodeInsufficientStock {
				status = http.StatusConflict
			}
		}
		writeError(w, status, string(violations[0].Code), violations[0].Error(), map[string]interface{}{
			"violations": details,
		})
		return
	}

	logger.Error("Unhandled service error", zap.Error(err))
	RespondWithError(w, http.StatusInternalServerError, "internal server error")
}

// collectViolations walks wrapped and joined errors.
func collectViolations(err error) []*rules.Violation {
	switch e := err.(type) {
	case nil:
		return nil
	case *rules.Violation:
		return []*rules.Violation{e}
	case interface{ Unwrap() []error }:
		var out []*rules.Violation
		for _, inner := range e.Unwrap() {
			out = append(out, collectViolations(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return collectViolations(e.Unwrap())
	default:
		return nil
	}
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
