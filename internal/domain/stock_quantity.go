package domain

import (
	"math"

	"product-catalog/internal/rules"
)

// StockQuantity is an immutable non-negative unit count.
type StockQuantity struct {
	value int
}

// NewStockQuantity fails with ErrNegativeQuantity for value < 0.
func NewStockQuantity(value int) (StockQuantity, error) {
	if err := rules.ValidateQuantity(value); err != nil {
		return StockQuantity{}, err
	}
	return StockQuantity{value: value}, nil
}

// Value returns the unit count.
func (s StockQuantity) Value() int {
	return s.value
}

// Add returns a quantity increased by qty.
func (s StockQuantity) Add(qty int) (StockQuantity, error) {
	if err := rules.ValidateQuantity(qty); err != nil {
		return StockQuantity{}, err
	}
	if qty > math.MaxInt-s.value {
		return StockQuantity{}, rules.Violationf(rules.CodeOverflow, "adding %d to %d overflows", qty, s.value)
	}
	return StockQuantity{value: s.value + qty}, nil
}

// Deduct returns a quantity decreased by qty.
func (s StockQuantity) Deduct(qty int) (StockQuantity, error) {
	if err := rules.ValidateQuantity(qty); err != nil {
		return StockQuantity{}, err
	}
	if qty > s.value {
		return StockQuantity{}, rules.Violationf(rules.CodeInsufficientStock, "requested %d, available %d", qty, s.value)
	}
	return StockQuantity{value: s.value - qty}, nil
}

// IsSufficient reports whether required units can be taken. Zero or negative
// requests are never satisfiable.
func (s StockQuantity) IsSufficient(required int) bool {
	if required <= 0 {
		return false
	}
	return s.value >= required
}

func (s StockQuantity) IsLowStock(threshold int) bool {
	return s.value <= threshold
}

// IsLowStockDefault uses rules.DefaultLowStockThreshold.
func (s StockQuantity) IsLowStockDefault() bool {
	return s.IsLowStock(rules.DefaultLowStockThreshold)
}

// IsCriticalStock uses rules.DefaultCriticalStockThreshold.
func (s StockQuantity) IsCriticalStock() bool {
	return s.value <= rules.DefaultCriticalStockThreshold
}

func (s StockQuantity) IsOutOfStock() bool {
	return s.value == 0
}

// RestockAmount returns how many units bring stock up to target, never less
// than zero.
func (s StockQuantity) RestockAmount(target int) (int, error) {
	if target < 0 {
		return 0, rules.Violationf(rules.CodeNegativeQuantity, "restock target must not be negative, got %d", target)
	}
	if target <= s.value {
		return 0, nil
	}
	return target - s.value, nil
}

// Equals compares unit counts.
func (s StockQuantity) Equals(other StockQuantity) bool {
	return s.value == other.value
}
