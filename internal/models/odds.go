package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MarketType identifies a bettable market within an event
type MarketType string

const (
	MarketMatchResult MarketType = "match_result" // 1X2
	MarketMoneyline   MarketType = "moneyline"    // two-way winner
	MarketTotals      MarketType = "totals"       // over/under a line
	MarketHandicap    MarketType = "handicap"     // point spread
)

// minDecimalPrice is the lowest valid decimal price; anything at or below
// implies a probability >= 100% and signals corrupt source data
var minDecimalPrice = decimal.NewFromInt(1)

// OutcomeRecord is one source's quote for one outcome of one market of one
// event. Records are immutable once created; later quotes for the same
// (source, outcome) supersede earlier ones, they never mutate them.
type OutcomeRecord struct {
	ID             uuid.UUID           `json:"id"`
	SourceID       string              `json:"source_id"`
	EventName      string              `json:"event_name"`
	Sport          string              `json:"sport"`
	League         string              `json:"league"`
	ScheduledStart *time.Time          `json:"scheduled_start,omitempty"`
	IsLive         bool                `json:"is_live"`
	MarketType     MarketType          `json:"market_type"`
	Line           decimal.NullDecimal `json:"line,omitempty"`
	OutcomeLabel   string              `json:"outcome_label"`
	Price          decimal.Decimal     `json:"price"`
	ObservedAt     time.Time           `json:"observed_at"`
	SourceURL      string              `json:"source_url"`
}

// OutcomeRecordParams holds the inputs for NewOutcomeRecord
type OutcomeRecordParams struct {
	SourceID       string
	EventName      string
	Sport          string
	League         string
	ScheduledStart *time.Time
	IsLive         bool
	MarketType     MarketType
	Line           decimal.NullDecimal
	OutcomeLabel   string
	Price          decimal.Decimal
	ObservedAt     time.Time
	SourceURL      string
}

// NewOutcomeRecord creates an OutcomeRecord, enforcing the price > 1.0
// invariant at creation time
func NewOutcomeRecord(p OutcomeRecordParams) (OutcomeRecord, error) {
	if p.Price.LessThanOrEqual(minDecimalPrice) {
		return OutcomeRecord{}, fmt.Errorf("invalid price %s for %s/%s: decimal price must be > 1.0",
			p.Price.String(), p.SourceID, p.OutcomeLabel)
	}
	if p.SourceID == "" {
		return OutcomeRecord{}, fmt.Errorf("outcome record requires a source_id")
	}
	if p.OutcomeLabel == "" {
		return OutcomeRecord{}, fmt.Errorf("outcome record requires an outcome_label")
	}
	if p.ObservedAt.IsZero() {
		p.ObservedAt = time.Now().UTC()
	}

	return OutcomeRecord{
		ID:             uuid.New(),
		SourceID:       p.SourceID,
		EventName:      p.EventName,
		Sport:          p.Sport,
		League:         p.League,
		ScheduledStart: p.ScheduledStart,
		IsLive:         p.IsLive,
		MarketType:     p.MarketType,
		Line:           p.Line,
		OutcomeLabel:   p.OutcomeLabel,
		Price:          p.Price,
		ObservedAt:     p.ObservedAt,
		SourceURL:      p.SourceURL,
	}, nil
}

// ImpliedProbability returns 1/price
func (r OutcomeRecord) ImpliedProbability() decimal.Decimal {
	return decimal.NewFromInt(1).DivRound(r.Price, 12)
}

// MarketKey identifies a market within an event by type and line
type MarketKey struct {
	Type MarketType
	Line string // empty when the market has no line
}

// NewMarketKey builds a comparable key from market type and optional line
func NewMarketKey(t MarketType, line decimal.NullDecimal) MarketKey {
	key := MarketKey{Type: t}
	if line.Valid {
		key.Line = line.Decimal.String()
	}
	return key
}

// String renders the key as a market descriptor, e.g. "totals 2.5"
func (k MarketKey) String() string {
	if k.Line == "" {
		return string(k.Type)
	}
	return fmt.Sprintf("%s %s", k.Type, k.Line)
}

// Market groups the current quotes for one bettable market. Each outcome
// label holds at most one current record per source: a later record for the
// same (source, outcome) replaces the earlier one, decided by observed_at
// rather than arrival order.
type Market struct {
	Type     MarketType                 `json:"market_type"`
	Line     decimal.NullDecimal        `json:"line,omitempty"`
	Outcomes map[string][]OutcomeRecord `json:"outcomes"`
}

// NewMarket creates an empty market
func NewMarket(t MarketType, line decimal.NullDecimal) *Market {
	return &Market{
		Type:     t,
		Line:     line,
		Outcomes: make(map[string][]OutcomeRecord),
	}
}

// Upsert installs a record into the given outcome group, replacing any
// existing record from the same source when the new one is more recent.
// An older record arriving late never displaces a newer one.
func (m *Market) Upsert(label string, rec OutcomeRecord) {
	group := m.Outcomes[label]
	for i, existing := range group {
		if existing.SourceID == rec.SourceID {
			if rec.ObservedAt.After(existing.ObservedAt) {
				group[i] = rec
			}
			return
		}
	}
	m.Outcomes[label] = append(group, rec)
}

// Labels returns the outcome labels in deterministic (sorted) order
func (m *Market) Labels() []string {
	labels := make([]string, 0, len(m.Outcomes))
	for label := range m.Outcomes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// CanonicalEvent is the deduplicated cross-source identity of one real-world
// fixture. It owns its markets for the duration of one detection cycle.
type CanonicalEvent struct {
	CanonicalName  string                 `json:"canonical_name"`
	Sport          string                 `json:"sport"`
	League         string                 `json:"league"`
	ScheduledStart *time.Time             `json:"scheduled_start,omitempty"`
	IsLive         bool                   `json:"is_live"`
	Markets        map[MarketKey]*Market  `json:"-"`
}

// NewCanonicalEvent seeds a canonical event from the first record matched to it
func NewCanonicalEvent(rec OutcomeRecord) *CanonicalEvent {
	return &CanonicalEvent{
		CanonicalName:  rec.EventName,
		Sport:          rec.Sport,
		League:         rec.League,
		ScheduledStart: rec.ScheduledStart,
		IsLive:         rec.IsLive,
		Markets:        make(map[MarketKey]*Market),
	}
}

// MarketFor returns the market for (type, line), creating it if absent
func (e *CanonicalEvent) MarketFor(t MarketType, line decimal.NullDecimal) *Market {
	key := NewMarketKey(t, line)
	market, ok := e.Markets[key]
	if !ok {
		market = NewMarket(t, line)
		e.Markets[key] = market
	}
	return market
}

// MarketKeys returns the event's market keys in deterministic order
func (e *CanonicalEvent) MarketKeys() []MarketKey {
	keys := make([]MarketKey, 0, len(e.Markets))
	for key := range e.Markets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Line < keys[j].Line
	})
	return keys
}
