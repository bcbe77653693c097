// Package tolerance implements spec §4.4/§4.5: ToleranceWindow and its
// amplifier, plus the propagable SpendRange/SpendConstraints intervals
// that flow through the search frontier.
package tolerance

import (
	"github.com/shopspring/decimal"

	"pathfx/internal/corefault"
	"pathfx/internal/decimalx"
	"pathfx/internal/money"
)

// Window is the normalized [minimum, maximum) tolerance band, at
// decimalx.CanonicalScale.
type Window struct {
	Minimum decimal.Decimal
	Maximum decimal.Decimal
}

var one = decimal.NewFromInt(1)

// NewWindow validates minimum <= maximum and both within [0,1), then
// rounds both to canonical scale.
func NewWindow(minimum, maximum decimal.Decimal) (Window, error) {
	dm := decimalx.Default()
	minN, err := dm.Normalize(minimum, decimalx.CanonicalScale)
	if err != nil {
		return Window{}, err
	}
	maxN, err := dm.Normalize(maximum, decimalx.CanonicalScale)
	if err != nil {
		return Window{}, err
	}
	if minN.Sign() < 0 || minN.GreaterThanOrEqual(one) {
		return Window{}, corefault.Invalid("tolerance minimum out of [0,1)").WithValue(minN.String())
	}
	if maxN.Sign() < 0 || maxN.GreaterThanOrEqual(one) {
		return Window{}, corefault.Invalid("tolerance maximum out of [0,1)").WithValue(maxN.String())
	}
	if minN.GreaterThan(maxN) {
		return Window{}, corefault.Invalid("tolerance minimum > maximum").WithValue([2]string{minN.String(), maxN.String()})
	}
	return Window{Minimum: minN, Maximum: maxN}, nil
}

// HeuristicSource identifies which bound of the window produced the
// heuristic tolerance.
type HeuristicSource int

const (
	FromMaximum HeuristicSource = iota
	FromMinimum
)

// Heuristic returns the single heuristic tolerance derived from the
// window: maximum if distinct from minimum, else minimum, along with
// which bound it came from.
func (w Window) Heuristic() (decimal.Decimal, HeuristicSource) {
	if !w.Maximum.Equal(w.Minimum) {
		return w.Maximum, FromMaximum
	}
	return w.Minimum, FromMinimum
}

// almostOne is 1 - 1e-18, the ceiling applied to the heuristic tolerance
// before computing the amplifier so the division never blows up.
var almostOne = one.Sub(decimal.New(1, -decimalx.CanonicalScale))

// Amplifier returns 1 / (1 - heuristicTolerance) at canonical scale. The
// input is capped at 1 - 1e-18 before dividing (spec §4.4); when the
// heuristic tolerance is exactly 0 the amplifier is exactly 1.
func (w Window) Amplifier() (decimal.Decimal, error) {
	heuristic, _ := w.Heuristic()
	capped := heuristic
	if capped.GreaterThan(almostOne) {
		capped = almostOne
	}
	dm := decimalx.Default()
	denom, err := dm.Sub(one, capped, decimalx.CanonicalScale)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return dm.Div(one, denom, decimalx.CanonicalScale)
}

// Range is an inclusive [Min, Max] Money interval in one currency. Unlike
// OrderBounds it is mutable-by-replacement as it propagates through the
// search frontier, and auto-swaps inverted bounds on construction.
type Range struct {
	Min money.Money
	Max money.Money
}

// NewRange constructs a Range, swapping min/max if inverted. min and max
// must share currency.
func NewRange(a, b money.Money) (Range, error) {
	cmp, err := a.Cmp(b)
	if err != nil {
		return Range{}, err
	}
	if cmp > 0 {
		return Range{Min: b, Max: a}, nil
	}
	return Range{Min: a, Max: b}, nil
}

// Currency returns the range's currency.
func (r Range) Currency() string { return r.Min.Currency() }

// Clamp returns value clamped into [Min, Max]. value must share currency.
func (r Range) Clamp(value money.Money) (money.Money, error) {
	belowMin, err := value.Cmp(r.Min)
	if err != nil {
		return money.Money{}, err
	}
	if belowMin < 0 {
		return r.Min, nil
	}
	aboveMax, err := value.Cmp(r.Max)
	if err != nil {
		return money.Money{}, err
	}
	if aboveMax > 0 {
		return r.Max, nil
	}
	return value, nil
}

// Intersect returns the clamped intersection of r and other, or ok=false
// if they are disjoint (other's max < r's min, or other's min > r's max).
func (r Range) Intersect(other Range) (result Range, ok bool, err error) {
	if r.Currency() != other.Currency() {
		return Range{}, false, corefault.Invalid("currency mismatch: %s vs %s", r.Currency(), other.Currency())
	}
	maxBelowMin, err := other.Max.Cmp(r.Min)
	if err != nil {
		return Range{}, false, err
	}
	if maxBelowMin < 0 {
		return Range{}, false, nil
	}
	minAboveMax, err := other.Min.Cmp(r.Max)
	if err != nil {
		return Range{}, false, err
	}
	if minAboveMax > 0 {
		return Range{}, false, nil
	}
	lo := r.Min
	if c, _ := other.Min.Cmp(r.Min); c > 0 {
		lo = other.Min
	}
	hi := r.Max
	if c, _ := other.Max.Cmp(r.Max); c < 0 {
		hi = other.Max
	}
	merged, err := NewRange(lo, hi)
	if err != nil {
		return Range{}, false, err
	}
	return merged, true, nil
}

// NormalizeWith lifts both of r's bounds to max(r's scale, m's scale).
func (r Range) NormalizeWith(m money.Money) (Range, error) {
	scale := r.Min.Scale()
	if m.Scale() > scale {
		scale = m.Scale()
	}
	min, err := r.Min.WithScale(scale)
	if err != nil {
		return Range{}, err
	}
	max, err := r.Max.WithScale(scale)
	if err != nil {
		return Range{}, err
	}
	return Range{Min: min, Max: max}, nil
}

// IsZeroWidth reports whether Min == Max.
func (r Range) IsZeroWidth() bool {
	c, _ := r.Min.Cmp(r.Max)
	return c == 0
}

// Constraints is the caller's spend window in one currency; Desired may
// lie outside [Min, Max] and is clamped on use.
type Constraints struct {
	Min     money.Money
	Max     money.Money
	Desired *money.Money
}

// NewConstraints validates Min <= Max; Desired, if given, need not lie
// within [Min, Max].
func NewConstraints(min, max money.Money, desired *money.Money) (Constraints, error) {
	cmp, err := min.Cmp(max)
	if err != nil {
		return Constraints{}, err
	}
	if cmp > 0 {
		return Constraints{}, corefault.Invalid("spend constraints min > max").WithValue([2]string{min.String(), max.String()})
	}
	return Constraints{Min: min, Max: max, Desired: desired}, nil
}

// Range returns the constraints rendered as a Range.
func (c Constraints) Range() Range {
	return Range{Min: c.Min, Max: c.Max}
}

// ClampedDesired returns Desired clamped into [Min, Max], or Max if no
// Desired was given (spend as much as allowed, per spec §4.10's seed
// resolution default).
func (c Constraints) ClampedDesired() (money.Money, error) {
	r := c.Range()
	if c.Desired == nil {
		return c.Max, nil
	}
	return r.Clamp(*c.Desired)
}
