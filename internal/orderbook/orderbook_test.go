package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"

	"pathfx/internal/feepolicy"
	"pathfx/internal/money"
	"pathfx/internal/tolerance"
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

func mustOrder(t *testing.T, side feepolicy.Side, base, quote string, rate float64, min, max string) Order {
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
	o, err := NewOrder(side, pair, bounds, r, nil)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return o
}

func TestNewOrderRejectsMismatchedRate(t *testing.T) {
	pair, _ := money.NewAssetPair("EUR", "USD")
	rate, _ := money.NewExchangeRate("GBP", "USD", decimal.NewFromFloat(1.2), 18)
	bounds, _ := money.NewOrderBounds(mustMoney(t, "EUR", "1", 8), mustMoney(t, "EUR", "10", 8))
	if _, err := NewOrder(feepolicy.Buy, pair, bounds, rate, nil); err == nil {
		t.Fatal("expected error for mismatched rate/pair")
	}
}

func TestBookFilterByPair(t *testing.T) {
	eurusd := mustOrder(t, feepolicy.Buy, "EUR", "USD", 1.1, "1", "100")
	btcusd := mustOrder(t, feepolicy.Sell, "BTC", "USD", 100, "1", "10")
	book := New(eurusd, btcusd)

	pair, _ := money.NewAssetPair("EUR", "USD")
	filtered := book.Filter(ByPair(pair))
	if filtered.Len() != 1 {
		t.Fatalf("expected 1 order, got %d", filtered.Len())
	}
}

func TestBookFilterAllAny(t *testing.T) {
	eurusd := mustOrder(t, feepolicy.Buy, "EUR", "USD", 1.1, "1", "100")
	btcusd := mustOrder(t, feepolicy.Sell, "BTC", "USD", 100, "1", "10")
	book := New(eurusd, btcusd)

	// BTC/USD touches USD, so both orders are relevant to {EUR, USD}.
	relevant := ByCurrencyRelevance("EUR", "USD")
	filtered := book.Filter(All(relevant))
	if filtered.Len() != 2 {
		t.Fatalf("expected 2 relevant orders, got %d", filtered.Len())
	}

	anyFilter := Any(ByCurrencyRelevance("BTC"), ByCurrencyRelevance("EUR"))
	filtered = book.Filter(anyFilter)
	if filtered.Len() != 2 {
		t.Fatalf("expected both orders via Any, got %d", filtered.Len())
	}
}

func TestByBoundsOverlap(t *testing.T) {
	eurusd := mustOrder(t, feepolicy.Buy, "EUR", "USD", 1.1, "1", "10")
	book := New(eurusd)

	spend, _ := tolerance.NewRange(mustMoney(t, "EUR", "5", 8), mustMoney(t, "EUR", "50", 8))
	filtered := book.Filter(ByBoundsOverlap(spend))
	if filtered.Len() != 1 {
		t.Fatalf("expected overlapping order retained, got %d", filtered.Len())
	}

	spendNoOverlap, _ := tolerance.NewRange(mustMoney(t, "EUR", "100", 8), mustMoney(t, "EUR", "200", 8))
	filtered = book.Filter(ByBoundsOverlap(spendNoOverlap))
	if filtered.Len() != 0 {
		t.Fatalf("expected no overlap, got %d", filtered.Len())
	}
}
