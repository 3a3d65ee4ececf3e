package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	SKUMinLength = 3
	SKUMaxLength = 50
)

var skuPattern = regexp.MustCompile(`^[A-Z0-9-]{3,50}$`)

// NormalizeSKU trims surrounding whitespace and uppercases raw.
func NormalizeSKU(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidateSKU normalizes raw and returns the normalized value, or the first
// rule it breaks: empty, too short, too long, bad charset.
func ValidateSKU(raw string) (string, error) {
	sku := NormalizeSKU(raw)
	if sku == "" {
		return "", Violationf(CodeEmptyValue, "sku must not be empty")
	}
	n := utf8.RuneCountInString(sku)
	if n < SKUMinLength {
		return "", Violationf(CodeTooShort, "sku must be at least %d characters, got %d", SKUMinLength, n)
	}
	if n > SKUMaxLength {
		return "", Violationf(CodeTooLong, "sku must be at most %d characters, got %d", SKUMaxLength, n)
	}
	if !skuPattern.MatchString(sku) {
		return "", Violationf(CodeInvalidFormat, "sku %q may only contain A-Z, 0-9 and '-'", sku)
	}
	return sku, nil
}
