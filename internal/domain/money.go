package domain

import (
	"encoding/json"
	"fmt"

	"product-catalog/internal/rules"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money is an immutable currency-tagged amount. The zero value is not a valid
// Money; build one with NewMoney, MoneyFromInt or MoneyFromString.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates amount against currency rules. An empty currency means
// rules.DefaultCurrency.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if currency == "" {
		currency = rules.DefaultCurrency
	}
	if err := rules.ValidateMoney(amount, currency); err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: rules.NormalizeCurrency(currency)}, nil
}

// MoneyFromInt builds Money from a whole amount.
func MoneyFromInt(amount int64, currency string) (Money, error) {
	return NewMoney(decimal.NewFromInt(amount), currency)
}

// MoneyFromString parses a decimal string such as "19.99".
func MoneyFromString(amount, currency string) (Money, error) {
	if currency == "" {
		currency = rules.DefaultCurrency
	}
	d, err := rules.ValidateMoneyString(amount, currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: d, currency: rules.NormalizeCurrency(currency)}, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the uppercase ISO code.
func (m Money) Currency() string {
	return m.currency
}

func (m Money) sameCurrency(other Money, op string) error {
	if m.currency != other.currency {
		return rules.Violationf(rules.CodeCurrencyMismatch, "cannot %s %s and %s", op, m.currency, other.currency)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other, "add"); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other. The result may not be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other, "subtract"); err != nil {
		return Money{}, err
	}
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, rules.Violationf(rules.CodeNegativeResult, "%s - %s is negative", m.amount, other.amount)
	}
	return Money{amount: result, currency: m.currency}, nil
}

// Multiply scales the amount by factor. Precision is not re-validated, so
// fractional factors can produce sub-unit amounts; call Round if needed.
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, rules.Violationf(rules.CodeNegativeFactor, "factor %s must not be negative", factor)
	}
	return Money{amount: m.amount.Mul(factor), currency: m.currency}, nil
}

// MultiplyInt is Multiply for whole factors.
func (m Money) MultiplyInt(factor int64) (Money, error) {
	return m.Multiply(decimal.NewFromInt(factor))
}

// Round rounds half away from zero to places digits.
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

// Compare returns -1, 0 or 1. Currencies must match.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other, "compare"); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c > 0, err
}

func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c < 0, err
}

func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	c, err := m.Compare(other)
	return err == nil && c >= 0, err
}

func (m Money) LessThanOrEqual(other Money) (bool, error) {
	c, err := m.Compare(other)
	return err == nil && c <= 0, err
}

// Equals reports value equality: same currency and numerically equal amount.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

var currencySymbols = map[string]string{
	"JPY": "¥",
	"CNY": "¥",
	"KRW": "₩",
	"USD": "$",
	"AUD": "A$",
	"CAD": "C$",
	"EUR": "€",
	"GBP": "£",
}

var moneyPrinter = message.NewPrinter(language.English)

// Format renders the amount with a currency symbol and digit grouping, e.g.
// "¥1,000" or "$1,234.50".
func (m Money) Format() string {
	places := rules.CurrencyDecimalPlaces(m.currency)
	rounded := m.amount.Round(places)
	units := rounded.Truncate(0)

	// Only the whole units go through the printer, for grouping. The minor
	// units come from the decimal itself so no digit passes through a float.
	digits := moneyPrinter.Sprint(number.Decimal(units.IntPart()))
	if places > 0 {
		digits += rounded.Sub(units).StringFixed(places)[1:]
	}
	if symbol, ok := currencySymbols[m.currency]; ok {
		return symbol + digits
	}
	return m.currency + " " + digits
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.String(), m.currency)
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

// UnmarshalJSON runs the same validation as MoneyFromString.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := MoneyFromString(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
