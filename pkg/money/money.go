package money

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/angelmondragon/tixledger/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is the cause of every failed cross-currency operation.
var ErrCurrencyMismatch = errors.New("currency mismatch")

const minorUnitsPerMajor = 100

// Money is an amount in minor units tagged with an ISO currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New builds a Money value, normalizing the currency code.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: normalize(currency)}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return New(0, currency)
}

func (m Money) Add(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}, nil
}

// Subtract may produce a negative amount; callers guarding balances reject it themselves.
func (m Money) Subtract(o Money) (Money, error) {
	if err := m.sameCurrency(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}, nil
}

// MultiplyByRate scales the amount and rounds half-to-even to the nearest minor unit.
func (m Money) MultiplyByRate(rate float64) Money {
	return m.MultiplyByDecimal(decimal.NewFromFloat(rate))
}

// MultiplyByDecimal is MultiplyByRate for rates already held as decimals.
func (m Money) MultiplyByDecimal(rate decimal.Decimal) Money {
	scaled := decimal.NewFromInt(m.Amount).Mul(rate).RoundBank(0)
	return Money{Amount: scaled.IntPart(), Currency: m.Currency}
}

// Compare returns -1, 0 or 1.
func (m Money) Compare(o Money) (int, error) {
	if err := m.sameCurrency(o); err != nil {
		return 0, err
	}
	switch {
	case m.Amount < o.Amount:
		return -1, nil
	case m.Amount > o.Amount:
		return 1, nil
	default:
		return 0, nil
	}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) IsNegative() bool {
	return m.Amount < 0
}

// Major returns the amount in major units (e.g. dollars).
func (m Money) Major() decimal.Decimal {
	return decimal.New(m.Amount, 0).Div(decimal.NewFromInt(minorUnitsPerMajor))
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Major().StringFixed(2), m.Currency)
}

// Sum adds every value, failing on the first currency mismatch.
func Sum(currency string, values ...Money) (Money, error) {
	total := Zero(currency)
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

func (m Money) sameCurrency(o Money) error {
	if normalize(m.Currency) == normalize(o.Currency) {
		return nil
	}
	return pkgerrors.Wrap(
		pkgerrors.CodeCurrencyMismatch,
		ErrCurrencyMismatch,
		fmt.Sprintf("cannot combine %s with %s", m.Currency, o.Currency),
	).WithDetails(map[string]any{"left": m.Currency, "right": o.Currency})
}

func normalize(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}
