package decimalx

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in    string
		scale int32
		want  string
	}{
		{"1.005", 2, "1.01"},
		{"1.004", 2, "1.00"},
		{"-1.005", 2, "-1.01"},
		{"2.5", 0, "3"},
		{"-2.5", 0, "-3"},
		{"1.000000", 3, "1.000"},
	}
	m := Default()
	for _, c := range cases {
		v, err := m.Parse(c.in)
		if err != nil {
			t.Fatalf("parse %s: %v", c.in, err)
		}
		got, err := m.Round(v, c.scale)
		if err != nil {
			t.Fatalf("round %s: %v", c.in, err)
		}
		if got.StringFixed(c.scale) != c.want {
			t.Errorf("Round(%s, %d) = %s, want %s", c.in, c.scale, got.StringFixed(c.scale), c.want)
		}
	}
}

func TestDivByZero(t *testing.T) {
	m := Default()
	_, err := m.Div(decimal.NewFromInt(1), decimal.Zero, 8)
	if err == nil {
		t.Fatal("expected error dividing by zero")
	}
}

func TestScaleOutOfRange(t *testing.T) {
	m := Default()
	if _, err := m.Round(decimal.NewFromInt(1), 51); err == nil {
		t.Fatal("expected error for scale > 50")
	}
	if _, err := m.Round(decimal.NewFromInt(1), -1); err == nil {
		t.Fatal("expected error for negative scale")
	}
}

func TestParseScientificNotation(t *testing.T) {
	m := Default()
	v, err := m.Parse("1e-3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, _ := m.Round(v, 3)
	if got.String() != "0.001" {
		t.Errorf("got %s, want 0.001", got.String())
	}
}

func TestParseNonNumeric(t *testing.T) {
	m := Default()
	if _, err := m.Parse("not-a-number"); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
}

func TestComp(t *testing.T) {
	m := Default()
	a, _ := m.Parse("1.10")
	b, _ := m.Parse("1.100001")
	got, err := m.Comp(a, b, 2)
	if err != nil {
		t.Fatalf("comp: %v", err)
	}
	if got != 0 {
		t.Errorf("expected equal at scale 2, got %d", got)
	}
}

func TestDivDeterministic(t *testing.T) {
	m := Default()
	one := decimal.NewFromInt(1)
	three := decimal.NewFromInt(3)
	got, err := m.Div(one, three, CanonicalScale)
	if err != nil {
		t.Fatalf("div: %v", err)
	}
	want := "0.333333333333333333"
	if got.String() != want {
		t.Errorf("1/3 at scale 18 = %s, want %s", got.String(), want)
	}
}
