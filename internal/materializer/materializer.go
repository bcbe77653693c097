// Package materializer implements the LegMaterializer: it turns an
// abstract candidate path (an ordered edge list) into concrete per-hop
// (spent, received, fee) tuples consistent with every order's bounds and
// fee policy. SELL edges with fees require a bounded fixed-point
// reconciliation to invert the fee-adjusted rate, since the fee itself
// depends on the base amount being solved for.
package materializer

import (
	"pathfx/internal/corefault"
	"pathfx/internal/decimalx"
	"pathfx/internal/feepolicy"
	"pathfx/internal/graph"
	"pathfx/internal/money"
)

// Leg is one materialized hop: the amount spent in the source currency,
// the amount received in the destination currency, and any fees charged.
type Leg struct {
	From, To string
	Spent    money.Money
	Received money.Money
	Fees     map[string]money.Money
}

// Result is a fully materialized path.
type Result struct {
	Legs          []Leg
	TotalSpent    money.Money
	TotalReceived money.Money
	FeeBreakdown  map[string]money.Money
}

// maxSellReconciliationIterations bounds the fixed-point loop used to
// invert a SELL edge's fee-adjusted rate: one seed plus up to two
// refinements.
const maxSellReconciliationIterations = 3

func addFee(out map[string]money.Money, fee *money.Money) error {
	if fee == nil {
		return nil
	}
	if existing, ok := out[fee.Currency()]; ok {
		sum, err := existing.Add(*fee)
		if err != nil {
			return err
		}
		out[fee.Currency()] = sum
		return nil
	}
	out[fee.Currency()] = *fee
	return nil
}

func clampToBounds(bounds money.OrderBounds, value money.Money) (money.Money, error) {
	belowMin, err := value.Cmp(bounds.Min)
	if err != nil {
		return money.Money{}, err
	}
	if belowMin < 0 {
		return bounds.Min, nil
	}
	aboveMax, err := value.Cmp(bounds.Max)
	if err != nil {
		return money.Money{}, err
	}
	if aboveMax > 0 {
		return bounds.Max, nil
	}
	return value, nil
}

func materializeBuy(e graph.Edge, spent money.Money, quoteScale int32, totals map[string]money.Money) (Leg, money.Money, error) {
	order := e.Order
	clamped, err := clampToBounds(order.Bounds, spent)
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	contains, err := order.Bounds.Contains(clamped)
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	if !contains {
		return Leg{}, money.Money{}, corefault.New(corefault.InfeasiblePath, "BUY leg spend outside order bounds").WithValue(clamped.String())
	}

	rawQuote, err := order.Rate.Convert(clamped, quoteScale)
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	fees, err := order.EffectiveFeePolicy().Calculate(feepolicy.Buy, clamped, rawQuote)
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	quoteFee, err := fees.QuoteFeeOrZero(rawQuote.Currency(), rawQuote.Scale())
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	received, err := rawQuote.Add(quoteFee)
	if err != nil {
		return Leg{}, money.Money{}, err
	}

	legFees := map[string]money.Money{}
	if err := addFee(legFees, fees.BaseFee); err != nil {
		return Leg{}, money.Money{}, err
	}
	if err := addFee(legFees, fees.QuoteFee); err != nil {
		return Leg{}, money.Money{}, err
	}
	if err := addFee(totals, fees.BaseFee); err != nil {
		return Leg{}, money.Money{}, err
	}
	if err := addFee(totals, fees.QuoteFee); err != nil {
		return Leg{}, money.Money{}, err
	}

	return Leg{From: e.From, To: e.To, Spent: clamped, Received: received, Fees: legFees}, received, nil
}

func materializeSellNoFee(e graph.Edge, spent money.Money, baseScale int32) (Leg, money.Money, error) {
	order := e.Order
	inverted, err := order.Rate.Invert()
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	received, err := inverted.Convert(spent, baseScale)
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	contains, err := order.Bounds.Contains(received)
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	if !contains {
		return Leg{}, money.Money{}, corefault.New(corefault.InfeasiblePath, "SELL leg received amount outside order bounds").WithValue(received.String())
	}
	return Leg{From: e.From, To: e.To, Spent: spent, Received: received, Fees: map[string]money.Money{}}, received, nil
}

func materializeSellWithFees(e graph.Edge, spent money.Money, baseScale, quoteScale int32, totals map[string]money.Money) (Leg, money.Money, error) {
	order := e.Order
	dm := decimalx.Default()

	inverted, err := order.Rate.Invert()
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	b, err := inverted.Convert(spent, baseScale)
	if err != nil {
		return Leg{}, money.Money{}, err
	}

	var rawQuote money.Money
	var fees feepolicy.FeeBreakdown
	var effectiveQuote money.Money

	for iteration := 0; iteration < maxSellReconciliationIterations; iteration++ {
		rawQuote, err = order.Rate.Convert(b, quoteScale)
		if err != nil {
			return Leg{}, money.Money{}, err
		}
		fees, err = order.EffectiveFeePolicy().Calculate(feepolicy.Sell, b, rawQuote)
		if err != nil {
			return Leg{}, money.Money{}, err
		}
		quoteFee, err := fees.QuoteFeeOrZero(rawQuote.Currency(), rawQuote.Scale())
		if err != nil {
			return Leg{}, money.Money{}, err
		}
		effectiveQuote, err = rawQuote.Sub(quoteFee)
		if err != nil {
			return Leg{}, money.Money{}, err
		}

		cmp, err := effectiveQuote.Cmp(spent)
		if err != nil {
			return Leg{}, money.Money{}, err
		}
		if cmp == 0 {
			break
		}
		if effectiveQuote.IsZero() {
			effectiveQuote = spent
			break
		}
		if iteration == maxSellReconciliationIterations-1 {
			effectiveQuote = spent
			break
		}

		ratioScale := baseScale + 6
		if ratioScale < 12 {
			ratioScale = 12
		}
		ratio, err := dm.Div(spent.Amount(), effectiveQuote.Amount(), ratioScale)
		if err != nil {
			return Leg{}, money.Money{}, err
		}
		scaled, err := dm.Mul(b.Amount(), ratio, baseScale)
		if err != nil {
			return Leg{}, money.Money{}, err
		}
		b, err = money.NewMoney(b.Currency(), scaled, baseScale)
		if err != nil {
			return Leg{}, money.Money{}, err
		}
	}

	contains, err := order.Bounds.Contains(b)
	if err != nil {
		return Leg{}, money.Money{}, err
	}
	if !contains {
		return Leg{}, money.Money{}, corefault.New(corefault.InfeasiblePath, "SELL leg reconciled base amount outside order bounds").WithValue(b.String())
	}

	legFees := map[string]money.Money{}
	if err := addFee(legFees, fees.BaseFee); err != nil {
		return Leg{}, money.Money{}, err
	}
	if err := addFee(legFees, fees.QuoteFee); err != nil {
		return Leg{}, money.Money{}, err
	}
	if err := addFee(totals, fees.BaseFee); err != nil {
		return Leg{}, money.Money{}, err
	}
	if err := addFee(totals, fees.QuoteFee); err != nil {
		return Leg{}, money.Money{}, err
	}

	return Leg{From: e.From, To: e.To, Spent: spent, Received: b, Fees: legFees}, b, nil
}

// Materialize resolves edges into concrete legs starting from
// initialSpend (already clamped by the caller into the first edge's
// supported range), verifying that the final leg lands on target.
func Materialize(edges []graph.Edge, initialSpend money.Money, target string, baseScale, quoteScale int32) (Result, error) {
	totals := map[string]money.Money{}
	legs := make([]Leg, 0, len(edges))
	current := initialSpend

	for _, e := range edges {
		var leg Leg
		var next money.Money
		var err error

		_, isNoFee := e.Order.EffectiveFeePolicy().(feepolicy.NoFee)
		hasFees := !isNoFee

		switch {
		case e.OrderSide == feepolicy.Buy:
			leg, next, err = materializeBuy(e, current, quoteScale, totals)
		case !hasFees:
			leg, next, err = materializeSellNoFee(e, current, baseScale)
		default:
			leg, next, err = materializeSellWithFees(e, current, baseScale, quoteScale, totals)
		}
		if err != nil {
			return Result{}, err
		}
		legs = append(legs, leg)
		current = next
	}

	if current.Currency() != target {
		return Result{}, corefault.New(corefault.InfeasiblePath, "materialized path does not terminate at target currency").WithValue(current.Currency())
	}

	totalSpent := initialSpend
	totalReceived := current
	if len(legs) > 0 {
		totalSpent = legs[0].Spent
	}

	return Result{Legs: legs, TotalSpent: totalSpent, TotalReceived: totalReceived, FeeBreakdown: totals}, nil
}
