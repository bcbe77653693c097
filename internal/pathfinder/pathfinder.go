// Package pathfinder implements the best-first frontier search that forms
// the core of this routing engine: a priority-ordered expansion over a
// currency graph with dominance pruning, a tolerance-amplified cost
// ceiling, a deterministic acceptance callback, and bounded Top-K result
// collection. The priority-queue shape is adapted from the teacher's
// container/heap Dijkstra implementation (internal/graph/dijkstra.go),
// generalized from integer jump-distance to decimal cost and extended
// with dominance pruning and spend-range propagation.
package pathfinder

import (
	"container/heap"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"pathfx/internal/corefault"
	"pathfx/internal/decimalx"
	"pathfx/internal/graph"
	"pathfx/internal/guard"
	"pathfx/internal/money"
	"pathfx/internal/tolerance"
)

// CandidatePath is a frontier-discovered path from source to target.
type CandidatePath struct {
	Cost          decimal.Decimal
	Product       decimal.Decimal
	Hops          int
	Edges         []graph.Edge
	AmountRange   *tolerance.Range
	DesiredAmount *money.Money
}

// AcceptFunc decides whether a CandidatePath should be kept in the Top-K
// result set. A nil AcceptFunc accepts every candidate. A non-nil error
// aborts the search immediately.
type AcceptFunc func(CandidatePath) (bool, error)

// Config configures a single run of FindBestPaths.
type Config struct {
	MaxHops   int
	MinHops   int
	Tolerance tolerance.Window
	TopK      int
	Guard     guard.Config
	Clock     guard.Clock // nil uses time.Now
}

// NewConfig validates the hop bounds and TopK.
func NewConfig(maxHops, minHops int, window tolerance.Window, topK int, guardCfg guard.Config) (Config, error) {
	if maxHops < 1 {
		return Config{}, corefault.Invalid("maxHops must be >= 1").WithValue(maxHops)
	}
	if minHops < 0 || minHops > maxHops {
		return Config{}, corefault.Invalid("minHops must be in [0, maxHops]").WithValue(minHops)
	}
	if topK < 1 {
		return Config{}, corefault.Invalid("topK must be >= 1").WithValue(topK)
	}
	return Config{MaxHops: maxHops, MinHops: minHops, Tolerance: window, TopK: topK, Guard: guardCfg}, nil
}

// PathFinder runs tolerance-aware best-first searches against a Graph.
// It holds no cross-search mutable state: every call to FindBestPaths
// builds and discards its own queue, registry, and Top-K heap.
type PathFinder struct {
	cfg Config
}

// New constructs a PathFinder from a validated Config.
func New(cfg Config) PathFinder { return PathFinder{cfg: cfg} }

type searchRecord struct {
	cost decimal.Decimal
	hops int
}

// dominates reports whether r dominates other: cost<=, hops<=, at least
// one strictly less.
func (r searchRecord) dominates(other searchRecord) bool {
	if r.cost.GreaterThan(other.cost) || r.hops > other.hops {
		return false
	}
	return r.cost.LessThan(other.cost) || r.hops < other.hops
}

type searchState struct {
	node           string
	cost           decimal.Decimal
	product        decimal.Decimal
	hops           int
	pathEdges      []graph.Edge
	signature      string
	routeSignature string
	visitedNodes   map[string]bool
	spendRange     *tolerance.Range
	desiredSpend   *money.Money
	insertionOrder int
}

func buildSignature(spendRange *tolerance.Range, desired *money.Money) string {
	var parts []string
	if spendRange == nil {
		parts = append(parts, "range:null")
	} else {
		parts = append(parts, fmt.Sprintf("range:%s:%s:%s", spendRange.Currency(), spendRange.Min.String(), spendRange.Max.String()))
	}
	if desired == nil {
		parts = append(parts, "desired:null")
	} else {
		parts = append(parts, fmt.Sprintf("desired:%s:%s", desired.Currency(), desired.String()))
	}
	return strings.Join(parts, "|")
}

func edgeToken(e graph.Edge) string {
	return fmt.Sprintf("%s>%s:%s:%d", e.From, e.To, e.Order.EffectiveFeePolicy().Fingerprint(), e.OrderSide)
}

func appendRouteSignature(prefix string, e graph.Edge) string {
	token := edgeToken(e)
	if prefix == "" {
		return token
	}
	return prefix + "|" + token
}

// canonicalLess implements the frontier's priority order: cost ascending,
// then hops ascending, then routeSignature lexicographically, then
// insertion order (FIFO tie-break).
func canonicalLess(a, b searchState) bool {
	if !a.cost.Equal(b.cost) {
		return a.cost.LessThan(b.cost)
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	if a.routeSignature != b.routeSignature {
		return a.routeSignature < b.routeSignature
	}
	return a.insertionOrder < b.insertionOrder
}

// frontierHeap is a min-heap over searchState ordered by canonicalLess,
// giving the frontier's extraction order.
type frontierHeap []searchState

func (h frontierHeap) Len() int            { return len(h) }
func (h frontierHeap) Less(i, j int) bool  { return canonicalLess(h[i], h[j]) }
func (h frontierHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *frontierHeap) Push(x interface{}) { *h = append(*h, x.(searchState)) }
func (h *frontierHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topKEntry pairs a finalized CandidatePath with the ordering fields used
// to compare it against others in the bounded Top-K heap.
type topKEntry struct {
	candidate      CandidatePath
	routeSignature string
	insertionOrder int
}

func topKLess(a, b topKEntry) bool {
	if !a.candidate.Cost.Equal(b.candidate.Cost) {
		return a.candidate.Cost.LessThan(b.candidate.Cost)
	}
	if a.candidate.Hops != b.candidate.Hops {
		return a.candidate.Hops < b.candidate.Hops
	}
	if a.routeSignature != b.routeSignature {
		return a.routeSignature < b.routeSignature
	}
	return a.insertionOrder < b.insertionOrder
}

// topKHeap is a bounded max-heap: the root is always the worst (highest
// priority value per topKLess) entry currently retained, so a strictly
// better new entry can replace it in O(log K).
type topKHeap []topKEntry

func (h topKHeap) Len() int      { return len(h) }
func (h topKHeap) Less(i, j int) bool {
	// max-heap: i is "less" (should sift up) if i is worse than j.
	return topKLess(h[j], h[i])
}
func (h topKHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x interface{}) { *h = append(*h, x.(topKEntry)) }
func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (h topKHeap) worst() topKEntry { return h[0] }

// Result is the outcome of a single FindBestPaths run.
type Result struct {
	Paths  []CandidatePath
	Guards guard.Report
}

// FindBestPaths runs one best-first search from source to target. Either
// constraints or accept may be nil (unconstrained spend propagation, or
// accept-all, respectively).
func (pf PathFinder) FindBestPaths(g graph.Graph, source, target string, constraints *tolerance.Constraints, accept AcceptFunc) (Result, error) {
	dm := decimalx.Default()
	guards := guard.New(pf.cfg.Guard, pf.cfg.Clock)

	var initialRange *tolerance.Range
	var initialDesired *money.Money
	if constraints != nil {
		r := constraints.Range()
		initialRange = &r
		desired, err := constraints.ClampedDesired()
		if err != nil {
			return Result{}, err
		}
		initialDesired = &desired
	}

	insertionCounter := 0
	nextInsertion := func() int { insertionCounter++; return insertionCounter }

	registry := make(map[string]map[string][]searchRecord)
	registerRecord := func(node, signature string, rec searchRecord) {
		bySig, ok := registry[node]
		if !ok {
			bySig = make(map[string][]searchRecord)
			registry[node] = bySig
		}
		existing := bySig[signature]
		kept := existing[:0]
		for _, e := range existing {
			if !rec.dominates(e) {
				kept = append(kept, e)
			}
		}
		bySig[signature] = append(kept, rec)
	}
	isDominated := func(node, signature string, rec searchRecord) bool {
		for _, e := range registry[node][signature] {
			if e.cost.LessThanOrEqual(rec.cost) && e.hops <= rec.hops {
				return true
			}
		}
		return false
	}

	frontier := &frontierHeap{}
	heap.Init(frontier)

	topK := &topKHeap{}
	heap.Init(topK)

	var bestTargetCost *decimal.Decimal

	amplifier, err := pf.cfg.Tolerance.Amplifier()
	if err != nil {
		return Result{}, err
	}

	ceilingFor := func(cost decimal.Decimal) (decimal.Decimal, bool) {
		if bestTargetCost == nil {
			return decimal.Decimal{}, false
		}
		ceiling, err := dm.Mul(*bestTargetCost, amplifier, decimalx.CanonicalScale)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return ceiling, true
	}

	tightenBestTargetCost := func(cost decimal.Decimal) {
		if bestTargetCost == nil || cost.LessThan(*bestTargetCost) {
			c := cost
			bestTargetCost = &c
		}
	}

	emit := func(state searchState) error {
		candidate := CandidatePath{
			Cost:          state.cost,
			Product:       state.product,
			Hops:          state.hops,
			Edges:         append([]graph.Edge(nil), state.pathEdges...),
			AmountRange:   state.spendRange,
			DesiredAmount: state.desiredSpend,
		}
		ok := true
		if accept != nil {
			var err error
			ok, err = accept(candidate)
			if err != nil {
				return err
			}
		}
		tightenBestTargetCost(state.cost)
		if ok {
			entry := topKEntry{candidate: candidate, routeSignature: state.routeSignature, insertionOrder: state.insertionOrder}
			if topK.Len() < pf.cfg.TopK {
				heap.Push(topK, entry)
			} else if topKLess(entry, (*topK)[0]) {
				heap.Pop(topK)
				heap.Push(topK, entry)
			}
		}
		return nil
	}

	one := decimal.NewFromInt(1)
	initialSig := buildSignature(initialRange, initialDesired)
	initialState := searchState{
		node:           source,
		cost:           one,
		product:        one,
		hops:           0,
		signature:      initialSig,
		routeSignature: "",
		visitedNodes:   map[string]bool{source: true},
		spendRange:     initialRange,
		desiredSpend:   initialDesired,
		insertionOrder: nextInsertion(),
	}

	if source == target {
		if err := emit(initialState); err != nil {
			return Result{}, err
		}
	}
	registerRecord(source, initialSig, searchRecord{cost: one, hops: 0})
	guards.RecordVisited()
	heap.Push(frontier, initialState)

	for frontier.Len() > 0 && guards.CanExpand() {
		s := heap.Pop(frontier).(searchState)
		guards.RecordExpansion()

		if s.hops > 0 && s.node == target && s.hops >= pf.cfg.MinHops {
			if err := emit(s); err != nil {
				return Result{}, err
			}
			continue
		}
		if s.hops == pf.cfg.MaxHops {
			continue
		}

		node, ok := g.Node(s.node)
		if !ok {
			continue
		}
		for _, e := range node.Edges {
			if e.EffectiveConversionRate.Sign() <= 0 {
				continue
			}
			if s.visitedNodes[e.To] {
				continue
			}

			nextRange, traversable, err := propagate(e, s.spendRange)
			if err != nil {
				return Result{}, err
			}
			if !traversable {
				continue
			}

			rate := e.EffectiveConversionRate
			newCost, err := dm.Div(s.cost, rate, decimalx.CanonicalScale)
			if err != nil {
				return Result{}, err
			}
			newProduct, err := dm.Mul(s.product, rate, decimalx.CanonicalScale)
			if err != nil {
				return Result{}, err
			}
			newHops := s.hops + 1

			if ceiling, has := ceilingFor(newCost); has && newCost.GreaterThan(ceiling) {
				continue
			}

			nextVisited := make(map[string]bool, len(s.visitedNodes)+1)
			for k := range s.visitedNodes {
				nextVisited[k] = true
			}
			nextVisited[e.To] = true

			sig := buildSignature(nextRange, s.desiredSpend)
			rec := searchRecord{cost: newCost, hops: newHops}
			if isDominated(e.To, sig, rec) {
				continue
			}
			registerRecord(e.To, sig, rec)
			guards.RecordVisited()

			nextState := searchState{
				node:           e.To,
				cost:           newCost,
				product:        newProduct,
				hops:           newHops,
				pathEdges:      append(append([]graph.Edge(nil), s.pathEdges...), e),
				signature:      sig,
				routeSignature: appendRouteSignature(s.routeSignature, e),
				visitedNodes:   nextVisited,
				spendRange:     nextRange,
				desiredSpend:   s.desiredSpend,
				insertionOrder: nextInsertion(),
			}
			heap.Push(frontier, nextState)
		}
	}

	report := guards.Finalize()
	if report.Breached() && pf.cfg.Guard.ThrowOnLimit {
		return Result{}, guard.ErrGuardLimitExceeded(report)
	}

	drained := make([]topKEntry, topK.Len())
	copy(drained, *topK)
	sort.Slice(drained, func(i, j int) bool { return topKLess(drained[i], drained[j]) })
	paths := make([]CandidatePath, len(drained))
	for i, e := range drained {
		paths[i] = e.candidate
	}

	return Result{Paths: paths, Guards: report}, nil
}

// propagate computes the edge's source-side support bounds, intersects
// them with current, and linearly interpolates the result into the
// edge's destination currency. A nil current range means the search is
// running unconstrained, so every edge is traversable with no range
// carried forward.
func propagate(e graph.Edge, current *tolerance.Range) (*tolerance.Range, bool, error) {
	if current == nil {
		return nil, true, nil
	}

	var sourceBounds graph.AmountRange
	var destBounds graph.AmountRange
	if e.OrderSide.String() == "BUY" {
		sourceBounds = e.GrossBaseCapacity
		destBounds = e.QuoteCapacity
	} else {
		sourceBounds = e.QuoteCapacity
		destBounds = e.BaseCapacity
	}

	sourceRange, err := tolerance.NewRange(sourceBounds.Min, sourceBounds.Max)
	if err != nil {
		return nil, false, err
	}
	if sourceRange.Currency() != current.Currency() {
		return nil, false, nil
	}

	intersection, ok, err := sourceRange.Intersect(*current)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	if intersection.IsZeroWidth() && !sourceRange.IsZeroWidth() {
		zeroSrc, _ := sourceBounds.Min.Cmp(intersection.Min)
		if zeroSrc != 0 {
			return nil, false, nil
		}
	}

	destMin, err := interpolate(intersection.Min, sourceBounds, destBounds)
	if err != nil {
		return nil, false, err
	}
	destMax, err := interpolate(intersection.Max, sourceBounds, destBounds)
	if err != nil {
		return nil, false, err
	}

	next, err := tolerance.NewRange(destMin, destMax)
	if err != nil {
		return nil, false, err
	}
	return &next, true, nil
}

// interpolate maps amount from [src.Min, src.Max] linearly into
// [dest.Min, dest.Max], clamping to dest's bounds when the mapped value
// would fall outside them.
func interpolate(amount money.Money, src, dest graph.AmountRange) (money.Money, error) {
	dm := decimalx.Default()
	scale := dest.Min.Scale()

	spanSrc, err := dm.Sub(src.Max.Amount(), src.Min.Amount(), decimalx.CanonicalScale)
	if err != nil {
		return money.Money{}, err
	}
	if spanSrc.IsZero() {
		return dest.Min.WithScale(scale)
	}

	offset, err := dm.Sub(amount.Amount(), src.Min.Amount(), decimalx.CanonicalScale)
	if err != nil {
		return money.Money{}, err
	}
	fraction, err := dm.Div(offset, spanSrc, decimalx.CanonicalScale)
	if err != nil {
		return money.Money{}, err
	}
	spanDest, err := dm.Sub(dest.Max.Amount(), dest.Min.Amount(), decimalx.CanonicalScale)
	if err != nil {
		return money.Money{}, err
	}
	delta, err := dm.Mul(fraction, spanDest, decimalx.CanonicalScale)
	if err != nil {
		return money.Money{}, err
	}
	mapped, err := dm.Add(dest.Min.Amount(), delta, decimalx.CanonicalScale)
	if err != nil {
		return money.Money{}, err
	}

	result, err := money.NewMoney(dest.Min.Currency(), mapped, scale)
	if err != nil {
		// Out-of-range amounts (negative, or beyond dest bounds) clamp to
		// the nearer destination bound instead of failing the traversal.
		if mapped.Sign() < 0 {
			return dest.Min, nil
		}
		return dest.Max, nil
	}
	clampRange, err := tolerance.NewRange(dest.Min, dest.Max)
	if err != nil {
		return money.Money{}, err
	}
	return clampRange.Clamp(result)
}
