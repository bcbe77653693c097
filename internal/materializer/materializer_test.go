package materializer

import (
	"testing"

	"github.com/shopspring/decimal"

	"pathfx/internal/feepolicy"
	"pathfx/internal/graph"
	"pathfx/internal/money"
	"pathfx/internal/orderbook"
)

func mustMoney(t *testing.T, currency, amount string, scale int32) money.Money {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m, err := money.NewMoney(currency, d, scale)
	if err != nil {
		t.Fatalf("NewMoney: %v", err)
	}
	return m
}

func mustOrder(t *testing.T, side feepolicy.Side, base, quote string, rate float64, min, max string, policy feepolicy.FeePolicy) orderbook.Order {
	t.Helper()
	pair, err := money.NewAssetPair(base, quote)
	if err != nil {
		t.Fatalf("NewAssetPair: %v", err)
	}
	r, err := money.NewExchangeRate(base, quote, decimal.NewFromFloat(rate), 18)
	if err != nil {
		t.Fatalf("NewExchangeRate: %v", err)
	}
	bounds, err := money.NewOrderBounds(mustMoney(t, base, min, 8), mustMoney(t, base, max, 8))
	if err != nil {
		t.Fatalf("NewOrderBounds: %v", err)
	}
	o, err := orderbook.NewOrder(side, pair, bounds, r, policy)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return o
}

func edgeFor(t *testing.T, order orderbook.Order) graph.Edge {
	t.Helper()
	g, err := graph.Build([]orderbook.Order{order}, 18)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var from string
	if order.Side == feepolicy.Buy {
		from = order.Pair.Base
	} else {
		from = order.Pair.Quote
	}
	node, ok := g.Node(from)
	if !ok || len(node.Edges) != 1 {
		t.Fatalf("expected exactly one edge from %s", from)
	}
	return node.Edges[0]
}

func TestMaterializeBuyNoFee(t *testing.T) {
	order := mustOrder(t, feepolicy.Buy, "EUR", "USD", 1.1, "1", "1000", nil)
	edge := edgeFor(t, order)
	spend := mustMoney(t, "EUR", "100", 8)

	result, err := Materialize([]graph.Edge{edge}, spend, "USD", 8, 18)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(result.Legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(result.Legs))
	}
	if result.Legs[0].Received.Currency() != "USD" {
		t.Errorf("expected received in USD, got %s", result.Legs[0].Received.Currency())
	}
}

func TestMaterializeRejectsWrongTarget(t *testing.T) {
	order := mustOrder(t, feepolicy.Buy, "EUR", "USD", 1.1, "1", "1000", nil)
	edge := edgeFor(t, order)
	spend := mustMoney(t, "EUR", "100", 8)

	if _, err := Materialize([]graph.Edge{edge}, spend, "GBP", 8, 18); err == nil {
		t.Fatal("expected error when final currency does not match target")
	}
}

func TestMaterializeSellNoFee(t *testing.T) {
	order := mustOrder(t, feepolicy.Sell, "EUR", "USD", 1.1, "1", "1000", nil)
	edge := edgeFor(t, order)
	spend := mustMoney(t, "USD", "110", 8) // quote

	result, err := Materialize([]graph.Edge{edge}, spend, "EUR", 8, 18)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if result.Legs[0].Received.Currency() != "EUR" {
		t.Errorf("expected received in EUR, got %s", result.Legs[0].Received.Currency())
	}
}

func TestMaterializeSellWithFeesConverges(t *testing.T) {
	rate, err := feepolicy.NewFlatRate(decimal.NewFromFloat(0.01), feepolicy.OnQuote)
	if err != nil {
		t.Fatalf("NewFlatRate: %v", err)
	}
	order := mustOrder(t, feepolicy.Sell, "EUR", "USD", 1.1, "1", "1000", rate)
	edge := edgeFor(t, order)
	spend := mustMoney(t, "USD", "108.9", 8) // ~100 EUR net of 1% quote fee on SELL

	result, err := Materialize([]graph.Edge{edge}, spend, "EUR", 8, 18)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	leg := result.Legs[0]
	if leg.Received.Currency() != "EUR" {
		t.Fatalf("expected EUR received, got %s", leg.Received.Currency())
	}
	// reconciled base should be close to 100 EUR.
	diff := leg.Received.Amount().Sub(decimal.NewFromInt(100)).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(0.5)) {
		t.Errorf("expected reconciled base near 100, got %s", leg.Received.String())
	}
}

func TestMaterializeTwoHop(t *testing.T) {
	hop1 := mustOrder(t, feepolicy.Buy, "EUR", "USD", 1.1, "1", "1000", nil)
	hop2 := mustOrder(t, feepolicy.Buy, "USD", "GBP", 0.8, "1", "2000", nil)
	edge1 := edgeFor(t, hop1)
	edge2 := edgeFor(t, hop2)
	spend := mustMoney(t, "EUR", "100", 8)

	result, err := Materialize([]graph.Edge{edge1, edge2}, spend, "GBP", 8, 18)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if len(result.Legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(result.Legs))
	}
	if result.TotalReceived.Currency() != "GBP" {
		t.Errorf("expected total received in GBP, got %s", result.TotalReceived.Currency())
	}
}
