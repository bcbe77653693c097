// Command pathfx-demo is a thin CLI over the path search core: it builds a
// small in-memory order book, runs one PathSearchService search, and
// prints the ranked results. CLI argument parsing, configuration files,
// and persistence are named non-goals for the core (spec.md §1) — this
// binary exists only to give the core a runnable entry point, in the
// teacher's own style (flag-based, banner-and-stats logging).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"pathfx/internal/config"
	"pathfx/internal/engine"
	"pathfx/internal/feepolicy"
	"pathfx/internal/guard"
	"pathfx/internal/history"
	"pathfx/internal/logger"
	"pathfx/internal/money"
	"pathfx/internal/orderbook"
	"pathfx/internal/pathfinder"
	"pathfx/internal/tolerance"
)

var version = "dev"

func main() {
	source := flag.String("source", "USD", "source currency")
	target := flag.String("target", "EUR", "target currency")
	spend := flag.String("spend", "1000", "desired spend amount, in source currency")
	configPath := flag.String("config", "", "path to a search-defaults JSON file (optional)")
	historyPath := flag.String("history", "", "path to a SQLite history database (optional)")
	flag.Parse()

	log := logger.Default()
	log.Banner(fmt.Sprintf("pathfx %s", version))

	defaults, err := config.Load(*configPath)
	if err != nil {
		log.Error("loading config: %v", err)
		os.Exit(1)
	}

	svc, err := buildService(defaults, log)
	if err != nil {
		log.Error("building service: %v", err)
		os.Exit(1)
	}

	book, err := sampleOrderBook()
	if err != nil {
		log.Error("building sample order book: %v", err)
		os.Exit(1)
	}

	constraints, err := spendConstraints(*source, *spend)
	if err != nil {
		log.Error("building spend constraints: %v", err)
		os.Exit(1)
	}

	outcome, err := svc.FindPaths(context.Background(), engine.Request{
		Orders:      book,
		Source:      *source,
		Target:      *target,
		Constraints: &constraints,
	})
	if err != nil {
		log.Error("search failed: %v", err)
		os.Exit(1)
	}

	report(log, *source, *target, outcome)

	if *historyPath != "" {
		if err := recordHistory(*historyPath, *source, *target, outcome, log); err != nil {
			log.Warn("recording history: %v", err)
		}
	}
}

// buildService assembles an engine.Service from ambient search defaults.
func buildService(defaults config.SearchDefaults, log *logger.Logger) (*engine.Service, error) {
	toleranceMin, err := decimal.NewFromString(defaults.ToleranceMin)
	if err != nil {
		return nil, fmt.Errorf("parsing tolerance_min: %w", err)
	}
	toleranceMax, err := decimal.NewFromString(defaults.ToleranceMax)
	if err != nil {
		return nil, fmt.Errorf("parsing tolerance_max: %w", err)
	}
	window, err := tolerance.NewWindow(toleranceMin, toleranceMax)
	if err != nil {
		return nil, err
	}

	guardCfg, err := guard.NewConfig(defaults.MaxExpansions, defaults.MaxVisitedStates, defaults.TimeBudgetMs, defaults.ThrowOnLimit)
	if err != nil {
		return nil, err
	}

	searchCfg, err := pathfinder.NewConfig(defaults.MaxHops, defaults.MinHops, window, defaults.TopK, guardCfg)
	if err != nil {
		return nil, err
	}

	cfg := engine.Config{Search: searchCfg, QuoteScale: defaults.QuoteScale, BaseScale: defaults.BaseScale}
	return engine.New(cfg, log), nil
}

func spendConstraints(sourceCurrency, spendAmount string) (tolerance.Constraints, error) {
	amount, err := decimal.NewFromString(spendAmount)
	if err != nil {
		return tolerance.Constraints{}, fmt.Errorf("parsing spend amount: %w", err)
	}
	desired, err := money.NewMoney(sourceCurrency, amount, 8)
	if err != nil {
		return tolerance.Constraints{}, err
	}
	zero, err := money.NewMoney(sourceCurrency, decimal.Zero, 8)
	if err != nil {
		return tolerance.Constraints{}, err
	}
	ceiling, err := desired.MulScalar(decimal.NewFromInt(10))
	if err != nil {
		return tolerance.Constraints{}, err
	}
	return tolerance.NewConstraints(zero, ceiling, &desired)
}

// sampleOrderBook builds a small illustrative order book: a direct
// USD/EUR quote plus a two-hop USD->BTC->EUR detour, so the demo shows
// both a direct route and tolerance-gated frontier widening.
func sampleOrderBook() ([]orderbook.Order, error) {
	direct, err := buildOrder(feepolicy.Buy, "USD", "EUR", "0.9", "1", "100000", nil)
	if err != nil {
		return nil, err
	}
	hop1, err := buildOrder(feepolicy.Sell, "BTC", "USD", "42000", "0.001", "50", nil)
	if err != nil {
		return nil, err
	}
	takerFee, err := feepolicy.NewFlatRate(decimal.NewFromFloat(0.001), feepolicy.OnQuote)
	if err != nil {
		return nil, err
	}
	hop2, err := buildOrder(feepolicy.Buy, "BTC", "EUR", "39000", "0.001", "50", takerFee)
	if err != nil {
		return nil, err
	}
	return []orderbook.Order{direct, hop1, hop2}, nil
}

func buildOrder(side feepolicy.Side, base, quote, rate, min, max string, policy feepolicy.FeePolicy) (orderbook.Order, error) {
	pair, err := money.NewAssetPair(base, quote)
	if err != nil {
		return orderbook.Order{}, err
	}
	rateDec, err := decimal.NewFromString(rate)
	if err != nil {
		return orderbook.Order{}, err
	}
	exchangeRate, err := money.NewExchangeRate(base, quote, rateDec, 18)
	if err != nil {
		return orderbook.Order{}, err
	}
	minDec, err := decimal.NewFromString(min)
	if err != nil {
		return orderbook.Order{}, err
	}
	maxDec, err := decimal.NewFromString(max)
	if err != nil {
		return orderbook.Order{}, err
	}
	minMoney, err := money.NewMoney(base, minDec, 8)
	if err != nil {
		return orderbook.Order{}, err
	}
	maxMoney, err := money.NewMoney(base, maxDec, 8)
	if err != nil {
		return orderbook.Order{}, err
	}
	bounds, err := money.NewOrderBounds(minMoney, maxMoney)
	if err != nil {
		return orderbook.Order{}, err
	}
	return orderbook.NewOrder(side, pair, bounds, exchangeRate, policy)
}

// report prints the ranked paths and guard metrics to the log.
func report(log *logger.Logger, source, target string, outcome engine.SearchOutcome) {
	log.Section(fmt.Sprintf("%s -> %s (search %s)", source, target, outcome.SearchID))
	if len(outcome.Paths) == 0 {
		log.Warn("no paths found within tolerance and guard limits")
	}
	for i, path := range outcome.Paths {
		log.Info("#%d: %s", i+1, engine.RouteDescriptor(path))
	}
	log.Stats("guard metrics", map[string]int64{
		"expansions_used":     int64(outcome.Guards.ExpansionsUsed),
		"visited_states_used": int64(outcome.Guards.VisitedStatesUsed),
		"max_expansions":      int64(outcome.Guards.MaxExpansions),
		"max_visited_states":  int64(outcome.Guards.MaxVisitedStates),
	})
	if outcome.Guards.Breached() {
		log.Warn("search guards breached: expansions=%v visited=%v time=%v",
			outcome.Guards.ExpansionsBreached, outcome.Guards.VisitedStatesBreach, outcome.Guards.TimeBudgetBreached)
	}
}

func recordHistory(path, source, target string, outcome engine.SearchOutcome, log *logger.Logger) error {
	store, err := history.Open(path, log)
	if err != nil {
		return err
	}
	defer store.Close()

	bestCost := ""
	if len(outcome.Paths) > 0 {
		bestCost = outcome.Paths[0].ResidualTolerance.String()
	}
	return store.Record(history.Outcome{
		SearchID:       outcome.SearchID,
		SourceCurrency: source,
		TargetCurrency: target,
		RecordedAt:     time.Now(),
		PathCount:      len(outcome.Paths),
		BestCost:       bestCost,
		ExpansionsUsed: outcome.Guards.ExpansionsUsed,
		GuardBreached:  outcome.Guards.Breached(),
	})
}
