// Package config holds the ambient, JSON-tagged search defaults used by
// the demo CLI and the orchestrator when a caller does not supply its
// own per-search configuration — the same plain-struct-plus-Default()
// shape as the teacher's internal/config.
package config

import (
	"encoding/json"
	"os"
)

// SearchDefaults is the default PathSearchService configuration, loaded
// from JSON on disk or falling back to Default() when absent.
type SearchDefaults struct {
	MaxHops          int     `json:"max_hops"`
	MinHops          int     `json:"min_hops"`
	ToleranceMin     string  `json:"tolerance_min"`
	ToleranceMax     string  `json:"tolerance_max"`
	TopK             int     `json:"top_k"`
	MaxExpansions    int     `json:"max_expansions"`
	MaxVisitedStates int     `json:"max_visited_states"`
	TimeBudgetMs     *int64  `json:"time_budget_ms,omitempty"`
	ThrowOnLimit     bool    `json:"throw_on_limit"`
	QuoteScale       int32   `json:"quote_scale"`
	BaseScale        int32   `json:"base_scale"`
}

// Default returns the built-in search defaults: up to 4 hops, a ±2%
// tolerance window, top 5 results, and generous but finite search
// guards.
func Default() SearchDefaults {
	return SearchDefaults{
		MaxHops:          4,
		MinHops:          0,
		ToleranceMin:     "0.02",
		ToleranceMax:     "0.02",
		TopK:             5,
		MaxExpansions:    50000,
		MaxVisitedStates: 50000,
		TimeBudgetMs:     nil,
		ThrowOnLimit:     false,
		QuoteScale:       18,
		BaseScale:        8,
	}
}

// Load reads SearchDefaults from a JSON file at path, falling back to
// Default() fields for anything the file omits.
func Load(path string) (SearchDefaults, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return SearchDefaults{}, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return SearchDefaults{}, err
	}
	return cfg, nil
}
