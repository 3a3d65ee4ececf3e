package domain

import "product-catalog/internal/rules"

// Rule violations raised by the domain. Use errors.Is against these values;
// the concrete error is a *rules.Violation carrying a detailed message.
var (
	ErrInvalidAmount      = rules.ErrInvalidAmount
	ErrCurrencyMismatch   = rules.ErrCurrencyMismatch
	ErrNegativeResult     = rules.ErrNegativeResult
	ErrNegativeFactor     = rules.ErrNegativeFactor
	ErrNegativeQuantity   = rules.ErrNegativeQuantity
	ErrOverflow           = rules.ErrOverflow
	ErrInsufficientStock  = rules.ErrInsufficientStock
	ErrEmptyValue         = rules.ErrEmptyValue
	ErrTooShort           = rules.ErrTooShort
	ErrTooLong            = rules.ErrTooLong
	ErrInvalidFormat      = rules.ErrInvalidFormat
	ErrInvalidName        = rules.ErrInvalidName
	ErrInvalidDescription = rules.ErrInvalidDescription
	ErrInvalidCategory    = rules.ErrInvalidCategory
)
