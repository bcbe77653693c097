// Package engine implements the PathSearchService orchestrator: it
// narrows the order book, builds the graph, runs the path search,
// materializes and tolerance-filters each candidate, and packages the
// result with a guard report. Duplicate concurrent searches for the same
// (source, target) pair are coalesced with singleflight — the same
// duplicate-suppression idiom the teacher's ESI client uses for
// concurrent market-data fetches, moved here since the path search core
// itself stays single-threaded per request.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"pathfx/internal/corefault"
	"pathfx/internal/feepolicy"
	"pathfx/internal/graph"
	"pathfx/internal/guard"
	"pathfx/internal/logger"
	"pathfx/internal/materializer"
	"pathfx/internal/money"
	"pathfx/internal/orderbook"
	"pathfx/internal/pathfinder"
	"pathfx/internal/tolerance"
)

// Config bundles the static per-service settings: search behavior plus
// the scales used for quote and base amounts throughout the pipeline.
type Config struct {
	Search     pathfinder.Config
	QuoteScale int32
	BaseScale  int32
}

// PathResult is one materialized, tolerance-accepted path.
type PathResult struct {
	TotalSpent        money.Money
	TotalReceived     money.Money
	ResidualTolerance decimal.Decimal
	Legs              []materializer.Leg
	FeeBreakdown      map[string]money.Money
}

// SearchOutcome is the final packaged result of one FindPaths call.
type SearchOutcome struct {
	SearchID string
	Paths    []PathResult
	Guards   guard.Report
}

// Request describes one path search.
type Request struct {
	Orders      []orderbook.Order
	Source      string
	Target      string
	Constraints *tolerance.Constraints
}

// Service runs path searches against a caller-supplied order universe.
// It holds no order-book state of its own between calls.
type Service struct {
	cfg   Config
	group singleflight.Group
	log   *logger.Logger
}

// New constructs a Service. A nil logger uses logger.Default().
func New(cfg Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{cfg: cfg, log: log}
}

func sourceBoundsOf(e graph.Edge) graph.AmountRange {
	if e.OrderSide == feepolicy.Buy {
		return e.GrossBaseCapacity
	}
	return e.QuoteCapacity
}

// determineInitialSpend resolves the amount the first edge should be fed,
// per spec §4.10's seed-resolution rule: the caller's desired spend,
// clamped into the intersection of the caller's constraints and the
// first edge's source-side support. A 0-hop path (source == target) has
// no edges to bound against, so it uses the constraints alone.
func determineInitialSpend(constraints *tolerance.Constraints, edges []graph.Edge) (money.Money, error) {
	if len(edges) == 0 {
		if constraints == nil {
			return money.Money{}, corefault.Invalid("cannot resolve a 0-hop spend amount without constraints")
		}
		return constraints.ClampedDesired()
	}
	bounds := sourceBoundsOf(edges[0])
	if constraints == nil {
		return bounds.Max, nil
	}
	desired, err := constraints.ClampedDesired()
	if err != nil {
		return money.Money{}, err
	}
	firstRange, err := tolerance.NewRange(bounds.Min, bounds.Max)
	if err != nil {
		return money.Money{}, err
	}
	intersection, ok, err := constraints.Range().Intersect(firstRange)
	if err != nil {
		return money.Money{}, err
	}
	if !ok {
		return money.Money{}, corefault.Invalid("spend constraints do not overlap the first edge's supported range")
	}
	return intersection.Clamp(desired)
}

// candidateKey derives a key unique to one CandidatePath's cost, hop
// count, and traversed edges, used to recover the materialized result
// for whichever candidates the path finder's Top-K heap retains.
func candidateKey(c pathfinder.CandidatePath) string {
	parts := make([]string, 0, len(c.Edges)+2)
	parts = append(parts, c.Cost.String(), strconv.Itoa(c.Hops))
	for _, e := range c.Edges {
		parts = append(parts, e.From+">"+e.To+":"+e.Order.EffectiveFeePolicy().Fingerprint()+":"+e.OrderSide.String())
	}
	return strings.Join(parts, "|")
}

// FindPaths narrows orders, builds the graph, searches, materializes and
// tolerance-filters candidates, and returns the packaged outcome.
// Concurrent calls sharing a (source, target) pair coalesce onto one
// underlying search via singleflight.
func (s *Service) FindPaths(ctx context.Context, req Request) (SearchOutcome, error) {
	source := strings.ToUpper(strings.TrimSpace(req.Source))
	target := strings.ToUpper(strings.TrimSpace(req.Target))
	if target == "" {
		return SearchOutcome{}, corefault.Invalid("target currency must be non-empty")
	}
	if source == "" {
		return SearchOutcome{}, corefault.Invalid("source currency must be non-empty")
	}

	key := source + "->" + target
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.findPaths(source, target, req.Orders, req.Constraints)
	})
	if err != nil {
		return SearchOutcome{}, err
	}
	return v.(SearchOutcome), nil
}

func (s *Service) findPaths(source, target string, orders []orderbook.Order, constraints *tolerance.Constraints) (SearchOutcome, error) {
	searchID := uuid.NewString()

	relevance := orderbook.ByCurrencyRelevance(source, target)
	filter := relevance
	if constraints != nil {
		filter = orderbook.All(relevance, orderbook.ByBoundsOverlap(constraints.Range()))
	}
	filtered := orderbook.New(orders...).Filter(filter)

	if filtered.Len() == 0 {
		s.log.Warn("no orders relevant to %s->%s after filtering", source, target)
		return SearchOutcome{SearchID: searchID}, nil
	}

	g, err := graph.Build(filtered.Orders(), s.cfg.QuoteScale)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("building graph: %w", err)
	}
	if !g.Has(source) || !g.Has(target) {
		return SearchOutcome{SearchID: searchID}, nil
	}

	materializedByKey := map[string]PathResult{}
	evaluator := tolerance.NewEvaluator()
	var bestMaterializedCost *decimal.Decimal

	accept := func(candidate pathfinder.CandidatePath) (bool, error) {
		if candidate.Hops < s.cfg.Search.MinHops || candidate.Hops > s.cfg.Search.MaxHops {
			return false, nil
		}
		initialSpend, err := determineInitialSpend(constraints, candidate.Edges)
		if err != nil {
			return false, nil
		}
		result, err := materializer.Materialize(candidate.Edges, initialSpend, target, s.cfg.BaseScale, s.cfg.QuoteScale)
		if err != nil {
			return false, nil
		}

		desired := result.TotalSpent
		if constraints != nil {
			desired, err = constraints.ClampedDesired()
			if err != nil {
				return false, nil
			}
		}

		evalResult, err := evaluator.Evaluate(desired, result.TotalSpent, s.cfg.Search.Tolerance)
		if err != nil {
			return false, nil
		}
		if !evalResult.Accepted {
			return false, nil
		}

		if bestMaterializedCost != nil && candidate.Cost.GreaterThan(*bestMaterializedCost) {
			return false, nil
		}
		c := candidate.Cost
		bestMaterializedCost = &c

		materializedByKey[candidateKey(candidate)] = PathResult{
			TotalSpent:        result.TotalSpent,
			TotalReceived:     result.TotalReceived,
			ResidualTolerance: evalResult.Residual,
			Legs:              result.Legs,
			FeeBreakdown:      result.FeeBreakdown,
		}
		return true, nil
	}

	pf := pathfinder.New(s.cfg.Search)
	pfResult, err := pf.FindBestPaths(g, source, target, constraints, accept)
	if err != nil {
		return SearchOutcome{}, err
	}

	paths := make([]PathResult, 0, len(pfResult.Paths))
	for _, candidate := range pfResult.Paths {
		if result, ok := materializedByKey[candidateKey(candidate)]; ok {
			paths = append(paths, result)
		}
	}

	s.log.Stats(fmt.Sprintf("search %s (%s->%s)", searchID, source, target), map[string]int64{
		"expansions_used":     int64(pfResult.Guards.ExpansionsUsed),
		"visited_states_used": int64(pfResult.Guards.VisitedStatesUsed),
		"paths_found":         int64(len(paths)),
	})

	return SearchOutcome{SearchID: searchID, Paths: paths, Guards: pfResult.Guards}, nil
}
