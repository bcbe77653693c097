// Package feepolicy implements the FeePolicy capability and FeeBreakdown
// value object from spec §3/§4.2: a pure function from (side, base, quote)
// to per-currency fees, plus a handful of built-in policies generalized
// from the retrieval pack's fee-schedule code (see the cexoms fee
// optimizer in other_examples, which models BaseMakerFee/BaseTakerFee and
// volume-tier discounts the same shape TieredRate below generalizes).
//
// FeePolicy instances must be pure and side-effect-free (spec §5): none of
// the built-ins here hold mutable state, and tier selection in TieredRate
// is a function of the fill size itself rather than any rolling account
// volume, keeping Calculate referentially transparent.
package feepolicy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"pathfx/internal/corefault"
	"pathfx/internal/decimalx"
	"pathfx/internal/money"
)

// Side identifies which side of a trade a fee is computed for.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Kind classifies which currencies a FeeBreakdown annotates.
type Kind int

const (
	None Kind = iota
	ForBase
	ForQuote
	Both
)

// FeeBreakdown holds the optional base-currency and quote-currency fees
// computed for a fill. Currencies must match the operand currencies they
// annotate; both are non-negative magnitudes — sign/direction handling
// happens at the call site per the spec §9 open question on BUY/SELL
// quote-fee convention.
type FeeBreakdown struct {
	BaseFee  *money.Money
	QuoteFee *money.Money
}

// Kind reports which combination of fees this breakdown carries.
func (f FeeBreakdown) Kind() Kind {
	switch {
	case f.BaseFee != nil && f.QuoteFee != nil:
		return Both
	case f.BaseFee != nil:
		return ForBase
	case f.QuoteFee != nil:
		return ForQuote
	default:
		return None
	}
}

// BaseFeeOrZero returns the base fee, or a zero Money in currency if none.
func (f FeeBreakdown) BaseFeeOrZero(currency string, scale int32) (money.Money, error) {
	if f.BaseFee != nil {
		return *f.BaseFee, nil
	}
	return money.NewMoney(currency, decimal.Zero, scale)
}

// QuoteFeeOrZero returns the quote fee, or a zero Money in currency if none.
func (f FeeBreakdown) QuoteFeeOrZero(currency string, scale int32) (money.Money, error) {
	if f.QuoteFee != nil {
		return *f.QuoteFee, nil
	}
	return money.NewMoney(currency, decimal.Zero, scale)
}

// FeePolicy is a pure capability: given a fill's side and base/quote
// amounts, compute the fee breakdown. Fingerprint uniquely identifies the
// policy's observable behavior and must be non-empty and collision-free
// across distinct policies.
type FeePolicy interface {
	Calculate(side Side, base, quote money.Money) (FeeBreakdown, error)
	Fingerprint() string
}

// NoFee is a FeePolicy that never charges a fee.
type NoFee struct{}

func (NoFee) Calculate(Side, money.Money, money.Money) (FeeBreakdown, error) {
	return FeeBreakdown{}, nil
}

func (NoFee) Fingerprint() string { return "none" }

// FeeApplication selects which side of a fill FlatRate charges its fee
// against.
type FeeApplication int

const (
	OnBase FeeApplication = iota
	OnQuote
	OnBoth
)

func (a FeeApplication) String() string {
	switch a {
	case OnBase:
		return "base"
	case OnQuote:
		return "quote"
	case OnBoth:
		return "both"
	default:
		return "unknown"
	}
}

// FlatRate charges a constant proportional rate against the base amount,
// the quote amount, or both — generalizing a venue's single maker/taker
// fee rate (spec §3 FeePolicy, grounded on fee_optimizer.go's
// BaseMakerFee/BaseTakerFee fields).
type FlatRate struct {
	Rate        decimal.Decimal
	Application FeeApplication
	dm          decimalx.DecimalMath
}

// NewFlatRate constructs a FlatRate policy. Rate is a proportion (0.001 =
// 10 bps), must be non-negative.
func NewFlatRate(rate decimal.Decimal, application FeeApplication) (FlatRate, error) {
	if rate.Sign() < 0 {
		return FlatRate{}, corefault.Invalid("flat fee rate must be non-negative").WithValue(rate.String())
	}
	return FlatRate{Rate: rate, Application: application, dm: decimalx.Default()}, nil
}

func (p FlatRate) Calculate(side Side, base, quote money.Money) (FeeBreakdown, error) {
	var out FeeBreakdown
	if p.Application == OnBase || p.Application == OnBoth {
		baseFee, err := base.MulScalar(p.Rate)
		if err != nil {
			return FeeBreakdown{}, err
		}
		out.BaseFee = &baseFee
	}
	if p.Application == OnQuote || p.Application == OnBoth {
		quoteFee, err := quote.MulScalar(p.Rate)
		if err != nil {
			return FeeBreakdown{}, err
		}
		out.QuoteFee = &quoteFee
	}
	return out, nil
}

func (p FlatRate) Fingerprint() string {
	return fmt.Sprintf("flat:%s:%s", p.Application, p.Rate.String())
}

// Tier is one step of a TieredRate volume-discount schedule: fills whose
// base amount is >= Threshold use Rate.
type Tier struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

// TieredRate picks a fee rate based on the fill's own base amount,
// generalizing fee_optimizer.go's TierDiscount/VolumeTier schedule into a
// pure, stateless function of fill size rather than rolling account
// volume (keeping Calculate side-effect-free per spec §5).
type TieredRate struct {
	Tiers       []Tier
	Application FeeApplication
}

// NewTieredRate validates and sorts tiers by ascending threshold.
func NewTieredRate(tiers []Tier, application FeeApplication) (TieredRate, error) {
	if len(tiers) == 0 {
		return TieredRate{}, corefault.Invalid("tiered rate requires at least one tier")
	}
	sorted := append([]Tier(nil), tiers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold.LessThan(sorted[j].Threshold) })
	for _, t := range sorted {
		if t.Rate.Sign() < 0 {
			return TieredRate{}, corefault.Invalid("tier rate must be non-negative").WithValue(t.Rate.String())
		}
	}
	return TieredRate{Tiers: sorted, Application: application}, nil
}

func (p TieredRate) rateFor(amount decimal.Decimal) decimal.Decimal {
	rate := p.Tiers[0].Rate
	for _, t := range p.Tiers {
		if amount.GreaterThanOrEqual(t.Threshold) {
			rate = t.Rate
		}
	}
	return rate
}

func (p TieredRate) Calculate(side Side, base, quote money.Money) (FeeBreakdown, error) {
	rate := p.rateFor(base.Amount())
	var out FeeBreakdown
	if p.Application == OnBase || p.Application == OnBoth {
		baseFee, err := base.MulScalar(rate)
		if err != nil {
			return FeeBreakdown{}, err
		}
		out.BaseFee = &baseFee
	}
	if p.Application == OnQuote || p.Application == OnBoth {
		quoteFee, err := quote.MulScalar(rate)
		if err != nil {
			return FeeBreakdown{}, err
		}
		out.QuoteFee = &quoteFee
	}
	return out, nil
}

func (p TieredRate) Fingerprint() string {
	parts := make([]string, 0, len(p.Tiers)+1)
	parts = append(parts, fmt.Sprintf("tiered:%s", p.Application))
	for _, t := range p.Tiers {
		parts = append(parts, fmt.Sprintf("%s@%s", t.Rate.String(), t.Threshold.String()))
	}
	return strings.Join(parts, ":")
}

// ValidateFingerprint rejects policies whose fingerprint is empty, per
// spec §4.3's GraphBuilder failure mode.
func ValidateFingerprint(p FeePolicy) error {
	if strings.TrimSpace(p.Fingerprint()) == "" {
		return corefault.Invalid("fee policy fingerprint must be non-empty")
	}
	return nil
}
