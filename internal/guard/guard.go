// Package guard implements spec §4.6's SearchGuards: bounded expansions,
// visited-state budget, and wall-clock budget for a single path search,
// with an injectable clock for deterministic tests — the same shape as
// the teacher's bounded-radius BFS guards in internal/graph, generalized
// into a standalone, reusable configuration object.
package guard

import (
	"time"

	"pathfx/internal/corefault"
)

// Clock returns the current time; injectable for deterministic tests.
type Clock func() time.Time

// Config bounds a single search's resource consumption.
type Config struct {
	MaxExpansions    int
	MaxVisitedStates int
	TimeBudgetMs     *int64 // nil means unbounded
	ThrowOnLimit     bool
}

// NewConfig validates Config's invariants: MaxExpansions and
// MaxVisitedStates must be >= 1; TimeBudgetMs, if set, must be >= 1.
func NewConfig(maxExpansions, maxVisitedStates int, timeBudgetMs *int64, throwOnLimit bool) (Config, error) {
	if maxExpansions < 1 {
		return Config{}, corefault.Invalid("maxExpansions must be >= 1").WithValue(maxExpansions)
	}
	if maxVisitedStates < 1 {
		return Config{}, corefault.Invalid("maxVisitedStates must be >= 1").WithValue(maxVisitedStates)
	}
	if timeBudgetMs != nil && *timeBudgetMs < 1 {
		return Config{}, corefault.Invalid("timeBudgetMs must be >= 1 when set").WithValue(*timeBudgetMs)
	}
	return Config{
		MaxExpansions:    maxExpansions,
		MaxVisitedStates: maxVisitedStates,
		TimeBudgetMs:     timeBudgetMs,
		ThrowOnLimit:     throwOnLimit,
	}, nil
}

// Report summarizes a search's consumption against its guard limits.
type Report struct {
	MaxExpansions       int
	MaxVisitedStates    int
	TimeBudgetMs        *int64
	ExpansionsUsed      int
	VisitedStatesUsed   int
	ElapsedMs           int64
	ExpansionsBreached  bool
	VisitedStatesBreach bool
	TimeBudgetBreached  bool
}

// Breached reports whether any limit was hit.
func (r Report) Breached() bool {
	return r.ExpansionsBreached || r.VisitedStatesBreach || r.TimeBudgetBreached
}

// Guards tracks a single search's consumption against Config.
type Guards struct {
	cfg        Config
	clock      Clock
	startedAt  time.Time
	expansions int
	visited    int
}

// New constructs Guards for a single search, starting the wall clock now.
// A nil clock defaults to time.Now.
func New(cfg Config, clock Clock) *Guards {
	if clock == nil {
		clock = time.Now
	}
	return &Guards{cfg: cfg, clock: clock, startedAt: clock()}
}

func (g *Guards) elapsedMs() int64 {
	return g.clock().Sub(g.startedAt).Milliseconds()
}

func (g *Guards) timeBudgetReached() bool {
	if g.cfg.TimeBudgetMs == nil {
		return false
	}
	return g.elapsedMs() >= *g.cfg.TimeBudgetMs
}

// CanExpand reports whether another expansion may proceed: false once any
// configured limit has been reached.
func (g *Guards) CanExpand() bool {
	if g.expansions >= g.cfg.MaxExpansions {
		return false
	}
	if g.visited >= g.cfg.MaxVisitedStates {
		return false
	}
	return !g.timeBudgetReached()
}

// RecordExpansion increments the expansion counter. Callers are expected
// to increment the visited-state counter themselves via RecordVisited,
// since not every expansion discovers a new visited state.
func (g *Guards) RecordExpansion() {
	g.expansions++
}

// RecordVisited increments the visited-state counter.
func (g *Guards) RecordVisited() {
	g.visited++
}

// Finalize produces a Report reflecting this search's consumption.
func (g *Guards) Finalize() Report {
	expansionsBreached := g.expansions >= g.cfg.MaxExpansions
	visitedBreached := g.visited >= g.cfg.MaxVisitedStates
	timeBreached := g.timeBudgetReached()
	return Report{
		MaxExpansions:       g.cfg.MaxExpansions,
		MaxVisitedStates:    g.cfg.MaxVisitedStates,
		TimeBudgetMs:        g.cfg.TimeBudgetMs,
		ExpansionsUsed:      g.expansions,
		VisitedStatesUsed:   g.visited,
		ElapsedMs:           g.elapsedMs(),
		ExpansionsBreached:  expansionsBreached,
		VisitedStatesBreach: visitedBreached,
		TimeBudgetBreached:  timeBreached,
	}
}

// ErrGuardLimitExceeded is returned (wrapped with detail) when
// ThrowOnLimit is set and a search's guard report shows a breach.
func ErrGuardLimitExceeded(report Report) error {
	return corefault.New(corefault.GuardLimitExceeded, "search guard limit exceeded").WithReport(&report)
}
