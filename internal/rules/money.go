package rules

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MaxMoneyAmount is the largest amount a Money value may carry.
	MaxMoneyAmount = 999_999_999

	// DefaultCurrency is used when a caller does not name one.
	DefaultCurrency = "JPY"

	defaultDecimalPlaces int32 = 2
)

var maxMoneyAmount = decimal.NewFromInt(MaxMoneyAmount)

var supportedCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"USD": true,
	"EUR": true,
	"GBP": true,
	"CNY": true,
	"AUD": true,
	"CAD": true,
}

// Currencies without minor units.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
}

// NormalizeCurrency trims and uppercases a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// IsSupportedCurrency reports whether currency (any case) is accepted.
func IsSupportedCurrency(currency string) bool {
	return supportedCurrencies[NormalizeCurrency(currency)]
}

// SupportedCurrencies returns the accepted currency codes in sorted order.
func SupportedCurrencies() []string {
	codes := make([]string, 0, len(supportedCurrencies))
	for code := range supportedCurrencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// CurrencyDecimalPlaces returns the number of minor-unit digits allowed for
// currency. Zero-decimal currencies return 0, everything else 2.
func CurrencyDecimalPlaces(currency string) int32 {
	if zeroDecimalCurrencies[NormalizeCurrency(currency)] {
		return 0
	}
	return defaultDecimalPlaces
}

// ValidateMoney checks an amount/currency pair. Checks run in a fixed order and
// stop at the first failure: currency, sign, range, precision. Every failure
// carries CodeInvalidAmount.
func ValidateMoney(amount decimal.Decimal, currency string) error {
	code := NormalizeCurrency(currency)
	if !supportedCurrencies[code] {
		return Violationf(CodeInvalidAmount, "unsupported currency %q", currency)
	}
	if amount.IsNegative() {
		return Violationf(CodeInvalidAmount, "amount %s must not be negative", amount)
	}
	if amount.GreaterThan(maxMoneyAmount) {
		return Violationf(CodeInvalidAmount, "amount %s exceeds maximum %d", amount, MaxMoneyAmount)
	}
	places := CurrencyDecimalPlaces(code)
	if !amount.Equal(amount.Truncate(places)) {
		return Violationf(CodeInvalidAmount, "%s allows at most %d decimal places, got %s", code, places, amount)
	}
	return nil
}

// ValidateMoneyString parses amount and runs ValidateMoney.
func ValidateMoneyString(amount, currency string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return decimal.Decimal{}, Violationf(CodeInvalidAmount, "amount %q is not a decimal number", amount)
	}
	if err := ValidateMoney(d, currency); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}
