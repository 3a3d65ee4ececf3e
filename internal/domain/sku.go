package domain

import (
	"fmt"
	"strings"

	"product-catalog/internal/rules"
)

// DefaultSKUPadding is the zero-padding width used by NewProductSKUWithPrefix
// when the caller passes a non-positive padding.
const DefaultSKUPadding = 3

// ProductSKU is a normalized (trimmed, uppercase) stock keeping unit.
type ProductSKU struct {
	value string
}

// NewProductSKU normalizes and validates raw.
func NewProductSKU(raw string) (ProductSKU, error) {
	value, err := rules.ValidateSKU(raw)
	if err != nil {
		return ProductSKU{}, err
	}
	return ProductSKU{value: value}, nil
}

// NewProductSKUWithPrefix builds "PREFIX-<number padded to padding digits>".
func NewProductSKUWithPrefix(prefix string, number, padding int) (ProductSKU, error) {
	if padding <= 0 {
		padding = DefaultSKUPadding
	}
	return NewProductSKU(fmt.Sprintf("%s-%0*d", strings.TrimSpace(prefix), padding, number))
}

// Value returns the normalized SKU.
func (s ProductSKU) Value() string {
	return s.value
}

func (s ProductSKU) String() string {
	return s.value
}

// HasPrefix is a case-insensitive prefix check.
func (s ProductSKU) HasPrefix(prefix string) bool {
	return strings.HasPrefix(strings.ToUpper(s.value), strings.ToUpper(prefix))
}

// Prefix returns everything before the first hyphen, or the whole SKU when
// there is none.
func (s ProductSKU) Prefix() string {
	prefix, _, _ := strings.Cut(s.value, "-")
	return prefix
}

// Suffix returns everything after the first hyphen; empty when there is no
// hyphen or it is the last character.
func (s ProductSKU) Suffix() string {
	_, suffix, _ := strings.Cut(s.value, "-")
	return suffix
}

// Equals compares case-insensitively.
func (s ProductSKU) Equals(other ProductSKU) bool {
	return strings.EqualFold(s.value, other.value)
}

// Key is a case-folded form suitable for map keys.
func (s ProductSKU) Key() string {
	return strings.ToUpper(s.value)
}
