// Package money implements the value objects of spec §3: Money,
// AssetPair, ExchangeRate, and OrderBounds. Every constructor validates
// its invariants at the boundary — callers never observe a half-built
// value (spec §7's propagation policy).
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"pathfx/internal/corefault"
	"pathfx/internal/decimalx"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3,12}$`)

// normalizeCurrency uppercases and validates a currency code (3-12
// letters).
func normalizeCurrency(code string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if !currencyPattern.MatchString(upper) {
		return "", corefault.Invalid("invalid currency code").WithValue(code)
	}
	return upper, nil
}

// Money is a non-negative amount of a given currency at a fixed scale.
type Money struct {
	currency string
	amount   decimal.Decimal
	scale    int32
	dm       decimalx.DecimalMath
}

// Option configures construction of value objects in this package.
type Option func(*options)

type options struct {
	dm decimalx.DecimalMath
}

// WithDecimalMath injects a DecimalMath capability instead of the default
// singleton (spec §9: injected capability, not a static facade).
func WithDecimalMath(dm decimalx.DecimalMath) Option {
	return func(o *options) { o.dm = dm }
}

func resolveOptions(opts []Option) options {
	o := options{dm: decimalx.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewMoney constructs a Money value, rounding amount to scale with
// HALF_UP. amount must normalize to a non-negative value.
func NewMoney(currency string, amount decimal.Decimal, scale int32, opts ...Option) (Money, error) {
	cur, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	o := resolveOptions(opts)
	rounded, err := o.dm.Normalize(amount, scale)
	if err != nil {
		return Money{}, err
	}
	if rounded.Sign() < 0 {
		return Money{}, corefault.Invalid("money amount must be non-negative").WithValue(rounded.String())
	}
	return Money{currency: cur, amount: rounded, scale: scale, dm: o.dm}, nil
}

// Currency returns the money's currency code.
func (m Money) Currency() string { return m.currency }

// Amount returns the money's decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Scale returns the money's scale.
func (m Money) Scale() int32 { return m.scale }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// String renders the amount as a plain decimal string at m.Scale().
func (m Money) String() string {
	return m.amount.StringFixed(m.scale)
}

func (m Money) dmOrDefault() decimalx.DecimalMath {
	if m.dm != nil {
		return m.dm
	}
	return decimalx.Default()
}

func resultScale(lhs, rhs Money, override []int32) int32 {
	if len(override) > 0 {
		return override[0]
	}
	if rhs.scale > lhs.scale {
		return rhs.scale
	}
	return lhs.scale
}

func (m Money) requireSameCurrency(other Money) error {
	if m.currency != other.currency {
		return corefault.Invalid("currency mismatch: %s vs %s", m.currency, other.currency).WithValue([2]string{m.currency, other.currency})
	}
	return nil
}

// Add returns m + other. Both must share currency; result scale defaults
// to max(lhs.scale, rhs.scale) unless overrideScale is given.
func (m Money) Add(other Money, overrideScale ...int32) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	scale := resultScale(m, other, overrideScale)
	sum, err := m.dmOrDefault().Add(m.amount, other.amount, scale)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(m.currency, sum, scale, WithDecimalMath(m.dmOrDefault()))
}

// Sub returns m - other. Fails if the result would be negative (Money's
// non-negative invariant).
func (m Money) Sub(other Money, overrideScale ...int32) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	scale := resultScale(m, other, overrideScale)
	diff, err := m.dmOrDefault().Sub(m.amount, other.amount, scale)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(m.currency, diff, scale, WithDecimalMath(m.dmOrDefault()))
}

// MulScalar multiplies by a scalar, preserving m's scale unless
// overrideScale is given.
func (m Money) MulScalar(scalar decimal.Decimal, overrideScale ...int32) (Money, error) {
	scale := m.scale
	if len(overrideScale) > 0 {
		scale = overrideScale[0]
	}
	product, err := m.dmOrDefault().Mul(m.amount, scalar, scale)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(m.currency, product, scale, WithDecimalMath(m.dmOrDefault()))
}

// DivScalar divides by a scalar, preserving m's scale unless
// overrideScale is given. Division by zero is a fault.
func (m Money) DivScalar(scalar decimal.Decimal, overrideScale ...int32) (Money, error) {
	scale := m.scale
	if len(overrideScale) > 0 {
		scale = overrideScale[0]
	}
	quotient, err := m.dmOrDefault().Div(m.amount, scalar, scale)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(m.currency, quotient, scale, WithDecimalMath(m.dmOrDefault()))
}

// WithScale rescales m, rounding HALF_UP.
func (m Money) WithScale(scale int32) (Money, error) {
	return NewMoney(m.currency, m.amount, scale, WithDecimalMath(m.dmOrDefault()))
}

// Cmp compares m and other (which must share currency) at the larger of
// their two scales.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return 0, err
	}
	scale := resultScale(m, other, nil)
	return m.dmOrDefault().Comp(m.amount, other.amount, scale)
}

// AssetPair is a directed base/quote currency pair with base != quote.
type AssetPair struct {
	Base  string
	Quote string
}

// NewAssetPair validates and normalizes a base/quote pair.
func NewAssetPair(base, quote string) (AssetPair, error) {
	b, err := normalizeCurrency(base)
	if err != nil {
		return AssetPair{}, err
	}
	q, err := normalizeCurrency(quote)
	if err != nil {
		return AssetPair{}, err
	}
	if b == q {
		return AssetPair{}, corefault.Invalid("asset pair base and quote must differ").WithValue(b)
	}
	return AssetPair{Base: b, Quote: q}, nil
}

// ExchangeRate converts an amount of Base into Quote at Rate.
type ExchangeRate struct {
	Base  string
	Quote string
	Rate  decimal.Decimal
	Scale int32
	dm    decimalx.DecimalMath
}

// NewExchangeRate validates base != quote and rate > 0.
func NewExchangeRate(base, quote string, rate decimal.Decimal, scale int32, opts ...Option) (ExchangeRate, error) {
	pair, err := NewAssetPair(base, quote)
	if err != nil {
		return ExchangeRate{}, err
	}
	if rate.Sign() <= 0 {
		return ExchangeRate{}, corefault.Invalid("exchange rate must be positive").WithValue(rate.String())
	}
	o := resolveOptions(opts)
	normalized, err := o.dm.Normalize(rate, scale)
	if err != nil {
		return ExchangeRate{}, err
	}
	if normalized.Sign() <= 0 {
		return ExchangeRate{}, corefault.Invalid("exchange rate rounds to non-positive at scale %d", scale).WithValue(rate.String())
	}
	return ExchangeRate{Base: pair.Base, Quote: pair.Quote, Rate: normalized, Scale: scale, dm: o.dm}, nil
}

func (r ExchangeRate) dmOrDefault() decimalx.DecimalMath {
	if r.dm != nil {
		return r.dm
	}
	return decimalx.Default()
}

// Convert converts a Money in r.Base into r.Quote at resultScale.
func (r ExchangeRate) Convert(amount Money, resultScale int32) (Money, error) {
	if amount.Currency() != r.Base {
		return Money{}, corefault.Invalid("cannot convert %s through rate %s/%s", amount.Currency(), r.Base, r.Quote).WithValue(amount.Currency())
	}
	converted, err := r.dmOrDefault().Mul(amount.Amount(), r.Rate, resultScale)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(r.Quote, converted, resultScale, WithDecimalMath(r.dmOrDefault()))
}

// Invert returns the reciprocal rate (Quote->Base) at the same scale.
// Precision loss on inversion is expected and documented: double
// inversion is epsilon-stable, not exact (spec §8 I10).
func (r ExchangeRate) Invert() (ExchangeRate, error) {
	one := decimal.NewFromInt(1)
	inverse, err := r.dmOrDefault().Div(one, r.Rate, r.Scale)
	if err != nil {
		return ExchangeRate{}, err
	}
	return NewExchangeRate(r.Quote, r.Base, inverse, r.Scale, WithDecimalMath(r.dmOrDefault()))
}

// OrderBounds is an inclusive [Min, Max] base-amount range.
type OrderBounds struct {
	Min Money
	Max Money
}

// NewOrderBounds validates min and max share currency and min <= max.
func NewOrderBounds(min, max Money) (OrderBounds, error) {
	cmp, err := min.Cmp(max)
	if err != nil {
		return OrderBounds{}, err
	}
	if cmp > 0 {
		return OrderBounds{}, corefault.Invalid("order bounds min > max").WithValue([2]string{min.String(), max.String()})
	}
	return OrderBounds{Min: min, Max: max}, nil
}

// Contains reports whether amount lies within [Min, Max], inclusive.
// amount must share currency with the bounds.
func (b OrderBounds) Contains(amount Money) (bool, error) {
	lower, err := b.Min.Cmp(amount)
	if err != nil {
		return false, err
	}
	upper, err := b.Max.Cmp(amount)
	if err != nil {
		return false, err
	}
	return lower <= 0 && upper >= 0, nil
}
