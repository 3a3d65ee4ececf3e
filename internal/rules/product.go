package rules

import (
	"strings"
	"unicode/utf8"
)

const (
	ProductNameMaxLength        = 100
	ProductDescriptionMaxLength = 500
	CategoryNameMaxLength       = 100

	// DefaultLowStockThreshold and DefaultCriticalStockThreshold are defaults,
	// not business tiers. Callers may pass their own thresholds.
	DefaultLowStockThreshold      = 5
	DefaultCriticalStockThreshold = 1
)

// ValidateProductName returns the trimmed name or CodeInvalidName.
func ValidateProductName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", Violationf(CodeInvalidName, "product name must not be empty")
	}
	if n := utf8.RuneCountInString(trimmed); n > ProductNameMaxLength {
		return "", Violationf(CodeInvalidName, "product name must be at most %d characters, got %d", ProductNameMaxLength, n)
	}
	return trimmed, nil
}

// ValidateProductDescription returns the trimmed description. Empty is allowed.
func ValidateProductDescription(description string) (string, error) {
	trimmed := strings.TrimSpace(description)
	if n := utf8.RuneCountInString(trimmed); n > ProductDescriptionMaxLength {
		return "", Violationf(CodeInvalidDescription, "product description must be at most %d characters, got %d", ProductDescriptionMaxLength, n)
	}
	return trimmed, nil
}

// ValidateCategoryID requires a positive reference.
func ValidateCategoryID(id int64) error {
	if id <= 0 {
		return Violationf(CodeInvalidCategory, "category id must be positive, got %d", id)
	}
	return nil
}

// ValidateCategoryName returns the trimmed category name or CodeInvalidName.
func ValidateCategoryName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", Violationf(CodeInvalidName, "category name must not be empty")
	}
	if n := utf8.RuneCountInString(trimmed); n > CategoryNameMaxLength {
		return "", Violationf(CodeInvalidName, "category name must be at most %d characters, got %d", CategoryNameMaxLength, n)
	}
	return trimmed, nil
}

// ValidateQuantity rejects negative quantities.
func ValidateQuantity(qty int) error {
	if qty < 0 {
		return Violationf(CodeNegativeQuantity, "quantity must not be negative, got %d", qty)
	}
	return nil
}

// ValidateCategoryDescription returns the trimmed description. Empty is allowed.
func ValidateCategoryDescription(description string) (string, error) {
	trimmed := strings.TrimSpace(description)
	if n := utf8.RuneCountInString(trimmed); n > ProductDescriptionMaxLength {
		return "", Violationf(CodeInvalidDescription, "category description must be at most %d characters, got %d", ProductDescriptionMaxLength, n)
	}
	return trimmed, nil
}
