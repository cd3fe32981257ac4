package engine

import (
	"math"
	"time"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// FreshnessConfig holds the staleness cutoffs. Live odds move fast and get a
// much tighter window than pre-match odds.
type FreshnessConfig struct {
	LiveMaxAge     time.Duration // e.g. 30s
	PrematchMaxAge time.Duration // e.g. 300s
}

// FreshnessFilter drops outcome records older than the staleness cutoff for
// the event's live flag. It has no side effects.
type FreshnessFilter struct {
	cfg FreshnessConfig
	now func() time.Time
}

// NewFreshnessFilter creates a freshness filter
func NewFreshnessFilter(cfg FreshnessConfig) *FreshnessFilter {
	return &FreshnessFilter{cfg: cfg, now: time.Now}
}

// MaxAge returns the cutoff window for the given live flag
func (f *FreshnessFilter) MaxAge(isLive bool) time.Duration {
	if isLive {
		return f.cfg.LiveMaxAge
	}
	return f.cfg.PrematchMaxAge
}

// FreshOutcomes returns the market's outcome groups with stale records
// removed. A record observed exactly at the cutoff is retained; one instant
// older is dropped. A market left with fewer than two outcome labels is not
// usable this cycle and yields nil, a normal filtering result rather than an error.
func (f *FreshnessFilter) FreshOutcomes(market *models.Market, isLive bool) map[string][]models.OutcomeRecord {
	cutoff := f.now().Add(-f.MaxAge(isLive))

	fresh := make(map[string][]models.OutcomeRecord, len(market.Outcomes))
	for label, group := range market.Outcomes {
		var kept []models.OutcomeRecord
		for _, rec := range group {
			if !rec.ObservedAt.Before(cutoff) {
				kept = append(kept, rec)
			}
		}
		if len(kept) > 0 {
			fresh[label] = kept
		}
	}

	if len(fresh) < 2 {
		return nil
	}
	return fresh
}

// FreshGroup filters a single outcome group by age, for callers that combine
// groups across markets and apply the two-outcome requirement themselves
func (f *FreshnessFilter) FreshGroup(group []models.OutcomeRecord, isLive bool) []models.OutcomeRecord {
	cutoff := f.now().Add(-f.MaxAge(isLive))
	var kept []models.OutcomeRecord
	for _, rec := range group {
		if !rec.ObservedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// freshnessWindow is the age at which a quote's freshness score reaches zero
const freshnessWindow = 300 * time.Second

// FreshnessScore maps the average age of the cited records onto [0,1]:
// 1.0 for brand-new data decaying linearly to 0.0 at five minutes old.
func FreshnessScore(records map[string]models.OutcomeRecord, now time.Time) float64 {
	if len(records) == 0 {
		return 0
	}
	var totalAge float64
	for _, rec := range records {
		totalAge += now.Sub(rec.ObservedAt).Seconds()
	}
	avg := totalAge / float64(len(records))
	score := 1 - avg/freshnessWindow.Seconds()
	if score < 0 {
		score = 0
	}
	return math.Round(score*1000) / 1000
}
