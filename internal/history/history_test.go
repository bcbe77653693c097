package history

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	outcome := Outcome{
		SearchID:       "search-1",
		SourceCurrency: "EUR",
		TargetCurrency: "USD",
		RecordedAt:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		PathCount:      3,
		BestCost:       "0.909090909090909091",
		ExpansionsUsed: 42,
		GuardBreached:  false,
	}
	if err := s.Record(outcome); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recorded outcome, got %d", len(recent))
	}
	if recent[0].SearchID != "search-1" || recent[0].PathCount != 3 {
		t.Errorf("unexpected recorded outcome: %+v", recent[0])
	}
}

func TestRecordReplacesBySearchID(t *testing.T) {
	s := openTestStore(t)

	base := Outcome{SearchID: "dup", SourceCurrency: "EUR", TargetCurrency: "USD", RecordedAt: time.Now(), PathCount: 1}
	if err := s.Record(base); err != nil {
		t.Fatalf("Record: %v", err)
	}
	base.PathCount = 5
	if err := s.Record(base); err != nil {
		t.Fatalf("Record (replace): %v", err)
	}

	recent, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected replace not duplicate, got %d rows", len(recent))
	}
	if recent[0].PathCount != 5 {
		t.Errorf("expected replaced path count 5, got %d", recent[0].PathCount)
	}
}
