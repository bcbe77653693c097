package guard

import (
	"testing"
	"time"
)

func fixedClock(times ...time.Time) Clock {
	i := -1
	return func() time.Time {
		if i < len(times)-1 {
			i++
		}
		return times[i]
	}
}

func TestNewConfigRejectsOutOfRange(t *testing.T) {
	if _, err := NewConfig(0, 10, nil, false); err == nil {
		t.Fatal("expected error for maxExpansions < 1")
	}
	if _, err := NewConfig(10, 0, nil, false); err == nil {
		t.Fatal("expected error for maxVisitedStates < 1")
	}
	zero := int64(0)
	if _, err := NewConfig(10, 10, &zero, false); err == nil {
		t.Fatal("expected error for timeBudgetMs < 1")
	}
}

func TestCanExpandStopsAtMaxExpansions(t *testing.T) {
	cfg, err := NewConfig(2, 100, nil, false)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	g := New(cfg, nil)
	if !g.CanExpand() {
		t.Fatal("expected CanExpand true initially")
	}
	g.RecordExpansion()
	if !g.CanExpand() {
		t.Fatal("expected CanExpand true after 1 of 2")
	}
	g.RecordExpansion()
	if g.CanExpand() {
		t.Fatal("expected CanExpand false after reaching limit")
	}
}

func TestCanExpandStopsAtMaxVisitedStates(t *testing.T) {
	cfg, _ := NewConfig(100, 1, nil, false)
	g := New(cfg, nil)
	g.RecordVisited()
	if g.CanExpand() {
		t.Fatal("expected CanExpand false after reaching visited-state limit")
	}
}

func TestTimeBudgetEqualityCountsAsExhausted(t *testing.T) {
	start := time.Unix(0, 0)
	atBudget := start.Add(50 * time.Millisecond)
	budget := int64(50)
	cfg, err := NewConfig(100, 100, &budget, false)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	clock := fixedClock(start, atBudget, atBudget)
	g := New(cfg, clock)
	if g.CanExpand() {
		t.Fatal("expected CanExpand false when elapsed == timeBudgetMs (>= semantics)")
	}
}

func TestFinalizeReportsBreaches(t *testing.T) {
	cfg, _ := NewConfig(1, 100, nil, false)
	g := New(cfg, nil)
	g.RecordExpansion()
	report := g.Finalize()
	if !report.ExpansionsBreached {
		t.Error("expected expansions breach in report")
	}
	if !report.Breached() {
		t.Error("expected Breached() true")
	}
}

func TestFinalizeNoBreachWhenUnderLimits(t *testing.T) {
	cfg, _ := NewConfig(100, 100, nil, false)
	g := New(cfg, nil)
	g.RecordExpansion()
	report := g.Finalize()
	if report.Breached() {
		t.Error("expected no breach under limits")
	}
}
