package rules

import "fmt"

// Code identifies a business rule violation. Codes are shared by the domain
// value objects and the request validation layer.
type Code string

const (
	CodeInvalidAmount      Code = "INVALID_AMOUNT"
	CodeCurrencyMismatch   Code = "CURRENCY_MISMATCH"
	CodeNegativeResult     Code = "NEGATIVE_RESULT"
	CodeNegativeFactor     Code = "NEGATIVE_FACTOR"
	CodeNegativeQuantity   Code = "NEGATIVE_QUANTITY"
	CodeOverflow           Code = "OVERFLOW"
	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"
	CodeEmptyValue         Code = "EMPTY_VALUE"
	CodeTooShort           Code = "TOO_SHORT"
	CodeTooLong            Code = "TOO_LONG"
	CodeInvalidFormat      Code = "INVALID_FORMAT"
	CodeInvalidName        Code = "INVALID_NAME"
	CodeInvalidDescription Code = "INVALID_DESCRIPTION"
	CodeInvalidCategory    Code = "INVALID_CATEGORY"
)

// Violation is returned whenever a value breaks a business rule.
// errors.Is matches on Code only, so the sentinels below can be used as
// targets regardless of the message.
type Violation struct {
	Code    Code
	Message string
}

func (v *Violation) Error() string {
	if v.Message == "" {
		return string(v.Code)
	}
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// Is reports whether target is a Violation with the same code.
func (v *Violation) Is(target error) bool {
	t, ok := target.(*Violation)
	if !ok {
		return false
	}
	return t.Code == v.Code
}

var (
	ErrInvalidAmount      = &Violation{Code: CodeInvalidAmount}
	ErrCurrencyMismatch   = &Violation{Code: CodeCurrencyMismatch}
	ErrNegativeResult     = &Violation{Code: CodeNegativeResult}
	ErrNegativeFactor     = &Violation{Code: CodeNegativeFactor}
	ErrNegativeQuantity   = &Violation{Code: CodeNegativeQuantity}
	ErrOverflow           = &Violation{Code: CodeOverflow}
	ErrInsufficientStock  = &Violation{Code: CodeInsufficientStock}
	ErrEmptyValue         = &Violation{Code: CodeEmptyValue}
	ErrTooShort           = &Violation{Code: CodeTooShort}
	ErrTooLong            = &Violation{Code: CodeTooLong}
	ErrInvalidFormat      = &Violation{Code: CodeInvalidFormat}
	ErrInvalidName        = &Violation{Code: CodeInvalidName}
	ErrInvalidDescription = &Violation{Code: CodeInvalidDescription}
	ErrInvalidCategory    = &Violation{Code: CodeInvalidCategory}
)

// Violationf builds a Violation with a formatted message.
func Violationf(code Code, format string, args ...any) *Violation {
	return &Violation{Code: code, Message: fmt.Sprintf(format, args...)}
}
