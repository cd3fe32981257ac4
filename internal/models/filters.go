package models

import (
	"github.com/shopspring/decimal"
)

// Filters are the caller-supplied constraints applied to an opportunity list.
// When served from cache they are applied without recomputation; a bankroll
// alone triggers stake recomputation, never re-detection.
type Filters struct {
	Sport            string              `json:"sport,omitempty"`
	MarketType       MarketType          `json:"market_type,omitempty"`
	MinArbPercentage decimal.NullDecimal `json:"min_arb_percentage,omitempty"` // minimum profit percentage
	MinProfit        decimal.NullDecimal `json:"min_profit,omitempty"`         // absolute currency
	Sources          []string            `json:"sources,omitempty"`
	LiveOnly         *bool               `json:"live_only,omitempty"`
	MaxStartHours    int                 `json:"max_start_hours,omitempty"` // 0 = unset
	Bankroll         decimal.NullDecimal `json:"bankroll,omitempty"`
	UseCache         bool                `json:"use_cache"`
}

// SourceSet returns the allow-list as a set, or nil when unrestricted
func (f *Filters) SourceSet() map[string]struct{} {
	if f == nil || len(f.Sources) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(f.Sources))
	for _, s := range f.Sources {
		set[s] = struct{}{}
	}
	return set
}
