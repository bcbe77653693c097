// Package decimalx implements the DecimalMath capability (spec §4.1):
// deterministic, explicit-scale exact-decimal arithmetic used throughout
// the core. It wraps github.com/shopspring/decimal rather than
// hand-rolling big.Int plumbing — the retrieval pack's order-routing and
// fee-optimizer code (e.g. the cexoms fee optimizer and smart router)
// reaches for shopspring/decimal for exactly this kind of money math, so
// this repo follows suit instead of inventing its own bignum layer.
//
// The design note in spec §9 calls for an injected capability rather than
// a process-wide static facade: every value type in internal/money and
// internal/feepolicy accepts a DecimalMath via constructor option,
// defaulting to the package-level Default() singleton. Default() is built
// lazily and never swapped in production; tests may construct their own
// DecimalMath (trivially, the same Default implementation, since the
// arithmetic itself has no meaningful fake) to make the injection seam
// explicit at call sites.
package decimalx

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"pathfx/internal/corefault"
)

// MaxScale is the highest scale DecimalMath accepts (spec §3).
const MaxScale = 50

// CanonicalScale is the scale used for cost, product, tolerance, and
// conversion values throughout the core (spec §3).
const CanonicalScale = 18

// DecimalMath is the arithmetic capability every value type depends on.
// All operations are pure: no hidden global rounding state.
type DecimalMath interface {
	Parse(s string) (decimal.Decimal, error)
	Normalize(v decimal.Decimal, scale int32) (decimal.Decimal, error)
	Add(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error)
	Sub(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error)
	Mul(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error)
	Div(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error)
	Comp(lhs, rhs decimal.Decimal, scale int32) (int, error)
	Round(v decimal.Decimal, scale int32) (decimal.Decimal, error)
	ScaleForComparison(a, b int32, fallback int32) int32
}

type stdDecimalMath struct{}

var (
	defaultOnce sync.Once
	defaultImpl DecimalMath
)

// Default returns the process's lazily-constructed DecimalMath singleton.
// It is never mutated after first construction.
func Default() DecimalMath {
	defaultOnce.Do(func() {
		defaultImpl = stdDecimalMath{}
	})
	return defaultImpl
}

func validateScale(scale int32) error {
	if scale < 0 || scale > MaxScale {
		return corefault.Invalid("scale %d out of range [0,%d]", scale, MaxScale).WithValue(scale)
	}
	return nil
}

// Parse accepts scientific notation ("1e-3") and ordinary decimal strings,
// rejecting anything non-numeric.
func (stdDecimalMath) Parse(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Decimal{}, corefault.Invalid("empty decimal string").WithValue(s)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, corefault.Invalid("non-numeric decimal %q", s).WithValue(s)
	}
	return d, nil
}

// Normalize rounds v to scale using HALF_UP and canonicalizes trailing
// zeros to exactly that scale.
func (m stdDecimalMath) Normalize(v decimal.Decimal, scale int32) (decimal.Decimal, error) {
	return m.Round(v, scale)
}

func (m stdDecimalMath) Add(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if err := validateScale(scale); err != nil {
		return decimal.Decimal{}, err
	}
	return m.Round(lhs.Add(rhs), scale)
}

func (m stdDecimalMath) Sub(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if err := validateScale(scale); err != nil {
		return decimal.Decimal{}, err
	}
	return m.Round(lhs.Sub(rhs), scale)
}

func (m stdDecimalMath) Mul(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if err := validateScale(scale); err != nil {
		return decimal.Decimal{}, err
	}
	return m.Round(lhs.Mul(rhs), scale)
}

func (m stdDecimalMath) Div(lhs, rhs decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if err := validateScale(scale); err != nil {
		return decimal.Decimal{}, err
	}
	if rhs.IsZero() {
		return decimal.Decimal{}, corefault.Invalid("division by zero").WithValue(lhs.String())
	}
	// Divide at extra guard precision before rounding HALF_UP to the
	// requested scale, so the rounding decision itself is exact.
	quotient := lhs.DivRound(rhs, scale+8)
	return m.Round(quotient, scale)
}

func (stdDecimalMath) Comp(lhs, rhs decimal.Decimal, scale int32) (int, error) {
	if err := validateScale(scale); err != nil {
		return 0, err
	}
	l := lhs.Round(scale)
	r := rhs.Round(scale)
	return l.Cmp(r), nil
}

// Round performs deterministic HALF_UP rounding at the given scale,
// independent of the decimal library's own default rounding mode (which
// is not contractually guaranteed across versions).
func (stdDecimalMath) Round(v decimal.Decimal, scale int32) (decimal.Decimal, error) {
	if err := validateScale(scale); err != nil {
		return decimal.Decimal{}, err
	}
	shifted := v.Shift(scale)
	truncated := shifted.Truncate(0)
	remainder := shifted.Sub(truncated).Abs()
	half := decimal.NewFromInt(1).Div(decimal.NewFromInt(2))
	if remainder.Cmp(half) >= 0 {
		if v.Sign() < 0 {
			truncated = truncated.Sub(decimal.NewFromInt(1))
		} else {
			truncated = truncated.Add(decimal.NewFromInt(1))
		}
	}
	return truncated.Shift(-scale).Truncate(scale), nil
}

// ScaleForComparison picks the larger of two scales, falling back to
// fallback when both are unset (zero value callers should instead pass
// explicit scales; this exists for call sites that only have a loose
// notion of precision, mirroring spec §4.1's scaleForComparison).
func (stdDecimalMath) ScaleForComparison(a, b int32, fallback int32) int32 {
	scale := a
	if b > scale {
		scale = b
	}
	if scale <= 0 {
		return fallback
	}
	return scale
}
