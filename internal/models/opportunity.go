package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StakeCalculation is the stake assigned to one leg of an opportunity.
// For a valid opportunity, stake_amount * price is equal across all legs
// up to currency rounding.
type StakeCalculation struct {
	OutcomeLabel    string          `json:"outcome_label"`
	SourceID        string          `json:"source_id"`
	StakeAmount     decimal.Decimal `json:"stake_amount"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
	SourceURL       string          `json:"source_url"`
}

// ArbitrageOpportunity is a detected combination of cross-source quotes whose
// combined implied probability is strictly below 100%. It references the
// records it cites; the same record may back several opportunities.
type ArbitrageOpportunity struct {
	ID               uuid.UUID                `json:"id"`
	EventName        string                   `json:"event_name"`
	Sport            string                   `json:"sport"`
	League           string                   `json:"league"`
	ScheduledStart   *time.Time               `json:"scheduled_start,omitempty"`
	IsLive           bool                     `json:"is_live"`
	MarketType       MarketType               `json:"market_type"`
	MarketDescriptor string                   `json:"market_descriptor"` // e.g. "totals 2.5" or "Middle 2.5/3.5"
	Outcomes         map[string]OutcomeRecord `json:"outcomes"`
	ArbPercentage    decimal.Decimal          `json:"arb_percentage"`
	ProfitPercentage decimal.Decimal          `json:"profit_percentage"`
	Bankroll         decimal.Decimal          `json:"bankroll"`
	GuaranteedProfit decimal.Decimal          `json:"guaranteed_profit"`
	Stakes           []StakeCalculation       `json:"stakes"`
	FreshnessScore   float64                  `json:"freshness_score"`
	DetectedAt       time.Time                `json:"detected_at"`
}

// SourceIDs returns the distinct sources funding the opportunity's legs
func (o *ArbitrageOpportunity) SourceIDs() []string {
	seen := make(map[string]struct{}, len(o.Outcomes))
	ids := make([]string, 0, len(o.Outcomes))
	for _, rec := range o.Outcomes {
		if _, ok := seen[rec.SourceID]; !ok {
			seen[rec.SourceID] = struct{}{}
			ids = append(ids, rec.SourceID)
		}
	}
	return ids
}

// DetectionSummary explains one detection cycle to the caller: how much input
// was considered and why the result may be empty or degraded.
type DetectionSummary struct {
	EventsConsidered  int            `json:"events_considered"`
	RecordsConsidered int            `json:"records_considered"`
	SourceCounts      map[string]int `json:"source_counts"`
	Opportunities     int            `json:"opportunities"`
	ProcessingTime    time.Duration  `json:"processing_time_ms"`
	Degraded          bool           `json:"degraded"`
	DegradedReason    string         `json:"degraded_reason,omitempty"`
	ComputedAt        time.Time      `json:"computed_at"`
}
