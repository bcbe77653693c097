// Package fillengine implements the FillEvaluator of spec §4.2: given a
// base-amount fill within an order's bounds, compute net base, gross
// base, quote, and the fee breakdown. GraphBuilder calls this at an
// order's bound endpoints to derive edge capacities. LegMaterializer does
// not call it; it computes each leg's quote and fees itself.
package fillengine

import (
	"pathfx/internal/feepolicy"
	"pathfx/internal/money"
	"pathfx/internal/orderbook"
)

// Fill is the result of evaluating a fill at a given base amount.
type Fill struct {
	// NetBase is the base amount after any base-side fee is deducted.
	NetBase money.Money
	// GrossBase is the base amount before fees (equals the input).
	GrossBase money.Money
	// Quote is the quote amount exchanged: the raw converted amount
	// adjusted by any quote-side fee per the order's side (spec §9 open
	// question: added on BUY, subtracted on SELL).
	Quote money.Money
	// Fees is the fee breakdown computed for this fill.
	Fees feepolicy.FeeBreakdown
}

// Evaluate computes a Fill for order at baseAmount (which need not already
// satisfy order.Bounds — callers enforce that invariant where it matters,
// e.g. LegMaterializer). quoteScale controls the result scale of the
// quote-side conversion.
func Evaluate(order orderbook.Order, baseAmount money.Money, quoteScale int32) (Fill, error) {
	rawQuote, err := order.Rate.Convert(baseAmount, quoteScale)
	if err != nil {
		return Fill{}, err
	}

	fees, err := order.EffectiveFeePolicy().Calculate(order.Side, baseAmount, rawQuote)
	if err != nil {
		return Fill{}, err
	}

	baseFee, err := fees.BaseFeeOrZero(baseAmount.Currency(), baseAmount.Scale())
	if err != nil {
		return Fill{}, err
	}
	netBase, err := baseAmount.Sub(baseFee)
	if err != nil {
		return Fill{}, err
	}

	quoteFee, err := fees.QuoteFeeOrZero(rawQuote.Currency(), rawQuote.Scale())
	if err != nil {
		return Fill{}, err
	}

	var quote money.Money
	if order.Side == feepolicy.Sell {
		quote, err = rawQuote.Sub(quoteFee)
	} else {
		quote, err = rawQuote.Add(quoteFee)
	}
	if err != nil {
		return Fill{}, err
	}

	return Fill{NetBase: netBase, GrossBase: baseAmount, Quote: quote, Fees: fees}, nil
}
