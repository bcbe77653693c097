package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func mustMoney(t *testing.T, currency, amount string, scale int32) Money {
	t.Helper()
	d, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("parse %s: %v", amount, err)
	}
	m, err := NewMoney(currency, d, scale)
	if err != nil {
		t.Fatalf("NewMoney(%s, %s, %d): %v", currency, amount, scale, err)
	}
	return m
}

func TestNewMoneyRejectsNegative(t *testing.T) {
	d := decimal.NewFromFloat(-1)
	if _, err := NewMoney("USD", d, 2); err == nil {
		t.Fatal("expected error for negative money")
	}
}

func TestNewMoneyRejectsBadCurrency(t *testing.T) {
	for _, cur := range []string{"us", "US1", "", "TOOLONGCURRENCYCODE"} {
		d := decimal.NewFromInt(1)
		if _, err := NewMoney(cur, d, 2); err == nil {
			t.Errorf("expected error for currency %q", cur)
		}
	}
}

func TestMoneyAddRequiresSameCurrency(t *testing.T) {
	usd := mustMoney(t, "USD", "10", 2)
	eur := mustMoney(t, "EUR", "10", 2)
	if _, err := usd.Add(eur); err == nil {
		t.Fatal("expected currency mismatch error")
	}
}

func TestMoneyAddResultScale(t *testing.T) {
	a := mustMoney(t, "USD", "1.1", 1)
	b := mustMoney(t, "USD", "2.22", 2)
	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Scale() != 2 {
		t.Errorf("expected result scale 2, got %d", sum.Scale())
	}
	if sum.String() != "3.32" {
		t.Errorf("expected 3.32, got %s", sum.String())
	}
}

func TestMoneySubNegativeIsFault(t *testing.T) {
	a := mustMoney(t, "USD", "1", 2)
	b := mustMoney(t, "USD", "2", 2)
	if _, err := a.Sub(b); err == nil {
		t.Fatal("expected fault for negative result")
	}
}

func TestMoneyDivScalarByZero(t *testing.T) {
	a := mustMoney(t, "USD", "10", 2)
	if _, err := a.DivScalar(decimal.Zero); err == nil {
		t.Fatal("expected division-by-zero fault")
	}
}

func TestAssetPairRejectsSameCurrency(t *testing.T) {
	if _, err := NewAssetPair("usd", "USD"); err == nil {
		t.Fatal("expected error for base == quote")
	}
}

func TestExchangeRateConvert(t *testing.T) {
	rate, err := NewExchangeRate("EUR", "USD", decimal.NewFromFloat(1.10), 18)
	if err != nil {
		t.Fatalf("NewExchangeRate: %v", err)
	}
	eur := mustMoney(t, "EUR", "100", 2)
	usd, err := rate.Convert(eur, 2)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if usd.Currency() != "USD" || usd.String() != "110.00" {
		t.Errorf("got %s %s, want USD 110.00", usd.Currency(), usd.String())
	}
}

func TestExchangeRateInvertRoundTrip(t *testing.T) {
	rate, err := NewExchangeRate("EUR", "USD", decimal.NewFromFloat(1.10), 18)
	if err != nil {
		t.Fatalf("NewExchangeRate: %v", err)
	}
	inv, err := rate.Invert()
	if err != nil {
		t.Fatalf("invert: %v", err)
	}
	back, err := inv.Invert()
	if err != nil {
		t.Fatalf("invert again: %v", err)
	}
	diff := back.Rate.Sub(rate.Rate).Abs()
	tolerance := decimal.NewFromFloat(0.000001)
	if diff.GreaterThan(tolerance) {
		t.Errorf("round-trip rate drifted by %s, want <= %s", diff.String(), tolerance.String())
	}
}

func TestExchangeRateRejectsNonPositiveRate(t *testing.T) {
	if _, err := NewExchangeRate("EUR", "USD", decimal.Zero, 18); err == nil {
		t.Fatal("expected error for zero rate")
	}
	if _, err := NewExchangeRate("EUR", "USD", decimal.NewFromInt(-1), 18); err == nil {
		t.Fatal("expected error for negative rate")
	}
}

func TestOrderBoundsContains(t *testing.T) {
	min := mustMoney(t, "USD", "10", 2)
	max := mustMoney(t, "USD", "100", 2)
	bounds, err := NewOrderBounds(min, max)
	if err != nil {
		t.Fatalf("NewOrderBounds: %v", err)
	}
	within := mustMoney(t, "USD", "50", 2)
	ok, err := bounds.Contains(within)
	if err != nil || !ok {
		t.Errorf("expected 50 to be within [10,100], ok=%v err=%v", ok, err)
	}
	atEdge, _ := bounds.Contains(min)
	if !atEdge {
		t.Error("expected inclusive lower bound")
	}
	outside := mustMoney(t, "USD", "200", 2)
	ok, _ = bounds.Contains(outside)
	if ok {
		t.Error("expected 200 to be outside [10,100]")
	}
}

func TestOrderBoundsRejectsMinGreaterThanMax(t *testing.T) {
	min := mustMoney(t, "USD", "100", 2)
	max := mustMoney(t, "USD", "10", 2)
	if _, err := NewOrderBounds(min, max); err == nil {
		t.Fatal("expected error for min > max")
	}
}
