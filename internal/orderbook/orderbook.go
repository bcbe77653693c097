// Package orderbook implements spec §3's Order and OrderBook: a typed
// offer with side, pair, bounds, rate, and optional fee policy, plus an
// iterable collection with a composable filter capability (spec §6's
// OrderFilter external collaborator).
package orderbook

import (
	"pathfx/internal/corefault"
	"pathfx/internal/feepolicy"
	"pathfx/internal/money"
	"pathfx/internal/tolerance"
)

// Order is a single offer to exchange Bounds.Min..Bounds.Max of
// Pair.Base at Rate, optionally subject to FeePolicy.
type Order struct {
	Side      feepolicy.Side
	Pair      money.AssetPair
	Bounds    money.OrderBounds
	Rate      money.ExchangeRate
	FeePolicy feepolicy.FeePolicy // nil means feepolicy.NoFee{}
}

// EffectiveFeePolicy returns o.FeePolicy, or NoFee{} when unset.
func (o Order) EffectiveFeePolicy() feepolicy.FeePolicy {
	if o.FeePolicy == nil {
		return feepolicy.NoFee{}
	}
	return o.FeePolicy
}

// NewOrder validates that Rate and Bounds are denominated consistently
// with Pair, and that any fee policy carries a non-empty fingerprint.
func NewOrder(side feepolicy.Side, pair money.AssetPair, bounds money.OrderBounds, rate money.ExchangeRate, policy feepolicy.FeePolicy) (Order, error) {
	if rate.Base != pair.Base || rate.Quote != pair.Quote {
		return Order{}, corefault.Invalid("rate %s/%s does not match pair %s/%s", rate.Base, rate.Quote, pair.Base, pair.Quote)
	}
	if bounds.Min.Currency() != pair.Base {
		return Order{}, corefault.Invalid("order bounds currency %s does not match pair base %s", bounds.Min.Currency(), pair.Base)
	}
	if policy != nil {
		if err := feepolicy.ValidateFingerprint(policy); err != nil {
			return Order{}, err
		}
	}
	return Order{Side: side, Pair: pair, Bounds: bounds, Rate: rate, FeePolicy: policy}, nil
}

// Filter decides whether an Order should be considered by a search.
type Filter interface {
	Accepts(o Order) bool
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(o Order) bool

func (f FilterFunc) Accepts(o Order) bool { return f(o) }

// All returns a Filter that accepts only when every given filter accepts.
func All(filters ...Filter) Filter {
	return FilterFunc(func(o Order) bool {
		for _, f := range filters {
			if !f.Accepts(o) {
				return false
			}
		}
		return true
	})
}

// Any returns a Filter that accepts when at least one given filter
// accepts. An empty filter list accepts nothing.
func Any(filters ...Filter) Filter {
	return FilterFunc(func(o Order) bool {
		for _, f := range filters {
			if f.Accepts(o) {
				return true
			}
		}
		return false
	})
}

// ByPair accepts orders whose Pair equals pair exactly (base and quote, in
// order — it does not match the reciprocal pair).
func ByPair(pair money.AssetPair) Filter {
	return FilterFunc(func(o Order) bool {
		return o.Pair.Base == pair.Base && o.Pair.Quote == pair.Quote
	})
}

// ByCurrencyRelevance accepts orders whose pair touches either currency in
// the two-currency set {a, b} (spec §4.10 step 2's byCurrencyPairRelevance
// filter for narrowing the order set before graph construction).
func ByCurrencyRelevance(currencies ...string) Filter {
	set := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		set[c] = true
	}
	return FilterFunc(func(o Order) bool {
		return set[o.Pair.Base] || set[o.Pair.Quote]
	})
}

// ByBoundsOverlap accepts orders whose base-amount bounds overlap spend
// (spec §4.10 step 2's byBoundsOverlap filter), matched against orders
// whose base currency equals spend's currency; orders in other currencies
// pass through unfiltered since the overlap test does not apply to them.
func ByBoundsOverlap(spend tolerance.Range) Filter {
	return FilterFunc(func(o Order) bool {
		if o.Bounds.Min.Currency() != spend.Currency() {
			return true
		}
		orderRange, err := tolerance.NewRange(o.Bounds.Min, o.Bounds.Max)
		if err != nil {
			return false
		}
		_, ok, err := orderRange.Intersect(spend)
		return err == nil && ok
	})
}

// Book is a collection of Orders kept in insertion order.
type Book struct {
	orders []Order
}

// New constructs a Book from the given orders.
func New(orders ...Order) Book {
	return Book{orders: append([]Order(nil), orders...)}
}

// Orders returns the book's orders in their original order.
func (b Book) Orders() []Order {
	return append([]Order(nil), b.orders...)
}

// Len reports the number of orders in the book.
func (b Book) Len() int { return len(b.orders) }

// Filter returns a new Book containing only orders f accepts.
func (b Book) Filter(f Filter) Book {
	if f == nil {
		return b
	}
	out := make([]Order, 0, len(b.orders))
	for _, o := range b.orders {
		if f.Accepts(o) {
			out = append(out, o)
		}
	}
	return Book{orders: out}
}
