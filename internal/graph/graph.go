// Package graph implements spec §4.3's GraphBuilder: orders become a
// directed multigraph keyed by currency, with per-edge capacity triples,
// fee-bearing segments, and a canonical same-origin edge ordering —
// generalized from the teacher's internal/graph adjacency-list Universe
// (see dijkstra.go) into a currency-keyed, capacity-aware structure.
package graph

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"pathfx/internal/decimalx"
	"pathfx/internal/feepolicy"
	"pathfx/internal/fillengine"
	"pathfx/internal/money"
	"pathfx/internal/orderbook"
)

// AmountRange is an inclusive [Min, Max] pair sharing a currency.
type AmountRange struct {
	Min money.Money
	Max money.Money
}

// Segment partitions an edge's fillable range into a mandatory minimum
// portion and an optional remainder, per spec §3's Edge.segments.
type Segment struct {
	IsMandatory bool
	Base        AmountRange
	Quote       AmountRange
	GrossBase   AmountRange
}

// Edge is a directed, fee-aware offer traversal as defined in spec §3.
type Edge struct {
	From, To          string
	OrderSide         feepolicy.Side
	Order             orderbook.Order
	BaseCapacity      AmountRange
	QuoteCapacity     AmountRange
	GrossBaseCapacity AmountRange
	Segments          []Segment

	// EffectiveConversionRate is the per-edge rate used in cost math:
	// quoteCapacity.max/grossBaseCapacity.max for BUY, the inverse for SELL,
	// computed at decimalx.CanonicalScale via DecimalMath rather than
	// float64 so the search core's cost/product arithmetic stays exact
	// (spec §4.1's DecimalMath facade, §8 I1/I10/I11).
	EffectiveConversionRate decimal.Decimal
}

// Node holds the edges originating from a currency, in canonical order.
type Node struct {
	Currency string
	Edges    []Edge
}

// Graph is an immutable currency-keyed directed multigraph.
type Graph struct {
	nodes map[string]Node
}

// Node returns the node for currency and whether it exists.
func (g Graph) Node(currency string) (Node, bool) {
	n, ok := g.nodes[currency]
	return n, ok
}

// Has reports whether currency has a node in the graph.
func (g Graph) Has(currency string) bool {
	_, ok := g.nodes[currency]
	return ok
}

// Currencies returns every currency present as a node, in sorted order.
func (g Graph) Currencies() []string {
	out := make([]string, 0, len(g.nodes))
	for c := range g.nodes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// effectiveRate computes quoteMax/grossBaseMax at canonical scale via
// DecimalMath (inverted for SELL), returning zero when the edge cannot
// carry a positive rate (zero or negative gross-base capacity); the
// search core treats a non-positive EffectiveConversionRate as
// untraversable (spec §4.3's failure mode).
func effectiveRate(quoteMax, grossBaseMax money.Money, side feepolicy.Side) decimal.Decimal {
	dm := decimalx.Default()
	if grossBaseMax.Amount().Sign() <= 0 || quoteMax.Amount().Sign() <= 0 {
		return decimal.Zero
	}
	rate, err := dm.Div(quoteMax.Amount(), grossBaseMax.Amount(), decimalx.CanonicalScale)
	if err != nil {
		return decimal.Zero
	}
	if side == feepolicy.Sell {
		if rate.Sign() <= 0 {
			return decimal.Zero
		}
		inverse, err := dm.Div(decimal.NewFromInt(1), rate, decimalx.CanonicalScale)
		if err != nil {
			return decimal.Zero
		}
		return inverse
	}
	return rate
}

func zeroRange(currency string, scale int32) (AmountRange, error) {
	m, err := money.NewMoney(currency, decimal.Zero, scale)
	if err != nil {
		return AmountRange{}, err
	}
	return AmountRange{Min: m, Max: m}, nil
}

func buildSegments(order orderbook.Order, minFill fillengine.Fill, maxFill fillengine.Fill) ([]Segment, error) {
	minIsPositive := !order.Bounds.Min.IsZero()

	zeroBase, err := zeroRange(minFill.NetBase.Currency(), minFill.NetBase.Scale())
	if err != nil {
		return nil, err
	}
	zeroQuote, err := zeroRange(minFill.Quote.Currency(), minFill.Quote.Scale())
	if err != nil {
		return nil, err
	}
	zeroGross, err := zeroRange(minFill.GrossBase.Currency(), minFill.GrossBase.Scale())
	if err != nil {
		return nil, err
	}

	if !minIsPositive && maxFill.GrossBase.IsZero() {
		return []Segment{{IsMandatory: false, Base: zeroBase, Quote: zeroQuote, GrossBase: zeroGross}}, nil
	}

	segments := make([]Segment, 0, 2)
	if minIsPositive {
		segments = append(segments, Segment{
			IsMandatory: true,
			Base:        AmountRange{Min: zeroBase.Min, Max: minFill.NetBase},
			Quote:       AmountRange{Min: zeroQuote.Min, Max: minFill.Quote},
			GrossBase:   AmountRange{Min: zeroGross.Min, Max: minFill.GrossBase},
		})
	}
	if hasRemainder, err := gt(maxFill.GrossBase, minFill.GrossBase); err != nil {
		return nil, err
	} else if hasRemainder {
		segments = append(segments, Segment{
			IsMandatory: false,
			Base:        AmountRange{Min: minFill.NetBase, Max: maxFill.NetBase},
			Quote:       AmountRange{Min: minFill.Quote, Max: maxFill.Quote},
			GrossBase:   AmountRange{Min: minFill.GrossBase, Max: maxFill.GrossBase},
		})
	}
	if len(segments) == 0 {
		segments = append(segments, Segment{IsMandatory: false, Base: zeroBase, Quote: zeroQuote, GrossBase: zeroGross})
	}
	return segments, nil
}

func gt(a, b money.Money) (bool, error) {
	cmp, err := a.Cmp(b)
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}

// buildEdge derives one Edge from an order, evaluating FillEvaluator at the
// order's bounds endpoints per spec §4.3.
func buildEdge(order orderbook.Order, quoteScale int32) (Edge, error) {
	if err := feepolicy.ValidateFingerprint(order.EffectiveFeePolicy()); err != nil {
		return Edge{}, err
	}

	minFill, err := fillengine.Evaluate(order, order.Bounds.Min, quoteScale)
	if err != nil {
		return Edge{}, fmt.Errorf("evaluating min bound: %w", err)
	}
	maxFill, err := fillengine.Evaluate(order, order.Bounds.Max, quoteScale)
	if err != nil {
		return Edge{}, fmt.Errorf("evaluating max bound: %w", err)
	}

	segments, err := buildSegments(order, minFill, maxFill)
	if err != nil {
		return Edge{}, err
	}

	from, to := order.Pair.Base, order.Pair.Quote
	if order.Side == feepolicy.Sell {
		from, to = order.Pair.Quote, order.Pair.Base
	}

	edge := Edge{
		From:                    from,
		To:                      to,
		OrderSide:               order.Side,
		Order:                   order,
		BaseCapacity:            AmountRange{Min: minFill.NetBase, Max: maxFill.NetBase},
		QuoteCapacity:           AmountRange{Min: minFill.Quote, Max: maxFill.Quote},
		GrossBaseCapacity:       AmountRange{Min: minFill.GrossBase, Max: maxFill.GrossBase},
		Segments:                segments,
		EffectiveConversionRate: effectiveRate(maxFill.Quote, maxFill.GrossBase, order.Side),
	}
	return edge, nil
}

// feeFingerprintOf returns an order's fee fingerprint for the canonical
// comparator, defaulting to NoFee's fingerprint when unset.
func feeFingerprintOf(o orderbook.Order) string {
	return o.EffectiveFeePolicy().Fingerprint()
}

// canonicalLess implements spec §3's same-origin edge ordering:
// destination currency, then fee fingerprint, then side.
func canonicalLess(a, b Edge) bool {
	if a.To != b.To {
		return a.To < b.To
	}
	fa, fb := feeFingerprintOf(a.Order), feeFingerprintOf(b.Order)
	if fa != fb {
		return fa < fb
	}
	return a.OrderSide < b.OrderSide
}

// Build constructs an immutable Graph from orders, evaluating fill
// capacities at quoteScale (the canonical scale, 18, in normal use).
func Build(orders []orderbook.Order, quoteScale int32) (Graph, error) {
	byOrigin := make(map[string][]Edge)
	for _, order := range orders {
		edge, err := buildEdge(order, quoteScale)
		if err != nil {
			return Graph{}, err
		}
		byOrigin[edge.From] = append(byOrigin[edge.From], edge)
	}

	nodes := make(map[string]Node, len(byOrigin))
	for currency, edges := range byOrigin {
		sort.SliceStable(edges, func(i, j int) bool { return canonicalLess(edges[i], edges[j]) })
		nodes[currency] = Node{Currency: currency, Edges: edges}
	}
	// materialize destination-only nodes (no outgoing edges) so Has/Node
	// reports them present, per spec §3 ("nodes auto-materialize for
	// every edge endpoint").
	for _, edges := range byOrigin {
		for _, e := range edges {
			if _, ok := nodes[e.To]; !ok {
				nodes[e.To] = Node{Currency: e.To}
			}
		}
	}
	return Graph{nodes: nodes}, nil
}
