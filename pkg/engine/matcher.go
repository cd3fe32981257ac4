package engine

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// MatcherConfig holds fuzzy identity resolution parameters
type MatcherConfig struct {
	SimilarityThreshold float64       // 0-100, minimum TokenSetRatio to match
	StartTimeTolerance  time.Duration // per-source clock/display skew for pre-match events
}

// EventMatcher groups outcome records from heterogeneous sources into
// canonical events and markets using fuzzy identity resolution
type EventMatcher struct {
	cfg    MatcherConfig
	logger zerolog.Logger
}

// NewEventMatcher creates an event matcher
func NewEventMatcher(cfg MatcherConfig, logger zerolog.Logger) *EventMatcher {
	return &EventMatcher{
		cfg:    cfg,
		logger: logger.With().Str("component", "event_matcher").Logger(),
	}
}

// matchedEvent pairs a canonical event with its normalized name so each
// incoming record is scored against normalized forms only
type matchedEvent struct {
	event *models.CanonicalEvent
	norm  string
}

// Match resolves a flat batch of records into canonical events with markets
// populated. A record that matches no existing event above threshold seeds a
// new singleton event; singletons are filtered naturally downstream by the
// two-outcomes-two-sources requirement.
func (m *EventMatcher) Match(records []models.OutcomeRecord) []*models.CanonicalEvent {
	matched := make([]matchedEvent, 0, len(records)/4+1)

	for _, rec := range records {
		norm := NormalizeName(rec.EventName)

		bestIdx := -1
		var bestScore, secondScore float64
		for i := range matched {
			cand := &matched[i]
			if !strings.EqualFold(cand.event.Sport, rec.Sport) {
				continue
			}
			if !m.startCompatible(cand.event, rec) {
				continue
			}
			score := TokenSetRatio(cand.norm, norm)
			if score < m.cfg.SimilarityThreshold {
				continue
			}
			if score > bestScore {
				secondScore = bestScore
				bestScore = score
				bestIdx = i
			} else if score > secondScore {
				secondScore = score
			}
		}

		if bestIdx < 0 {
			matched = append(matched, matchedEvent{
				event: models.NewCanonicalEvent(rec),
				norm:  norm,
			})
			bestIdx = len(matched) - 1
		} else if secondScore >= m.cfg.SimilarityThreshold {
			// Ambiguous between two events above threshold: keep the higher
			// score, never fail the batch.
			m.logger.Debug().
				Str("event_name", rec.EventName).
				Str("source_id", rec.SourceID).
				Float64("best_score", bestScore).
				Float64("second_score", secondScore).
				Msg("ambiguous event match resolved by highest score")
		}

		m.addRecord(matched[bestIdx].event, rec)
	}

	events := make([]*models.CanonicalEvent, len(matched))
	for i := range matched {
		events[i] = matched[i].event
	}

	m.logger.Debug().
		Int("records", len(records)).
		Int("events", len(events)).
		Msg("matched records into canonical events")

	return events
}

// startCompatible reports whether a record's scheduled start is close enough
// to an event's. Live events skip the check; an unknown start on either side
// is tolerated rather than rejected.
func (m *EventMatcher) startCompatible(ev *models.CanonicalEvent, rec models.OutcomeRecord) bool {
	if ev.IsLive || rec.IsLive {
		return true
	}
	if ev.ScheduledStart == nil || rec.ScheduledStart == nil {
		return true
	}
	diff := ev.ScheduledStart.Sub(*rec.ScheduledStart)
	if diff < 0 {
		diff = -diff
	}
	return diff <= m.cfg.StartTimeTolerance
}

// addRecord installs a record into the event's market for (type, line),
// resolving the outcome label against existing groups with the same fuzzy
// match used for events
func (m *EventMatcher) addRecord(ev *models.CanonicalEvent, rec models.OutcomeRecord) {
	// Enrich the canonical identity with details a later source may carry.
	if ev.ScheduledStart == nil && rec.ScheduledStart != nil {
		ev.ScheduledStart = rec.ScheduledStart
	}
	if ev.League == "" {
		ev.League = rec.League
	}
	if rec.IsLive {
		ev.IsLive = true
	}

	market := ev.MarketFor(rec.MarketType, rec.Line)
	label := m.resolveLabel(market, rec.OutcomeLabel)
	market.Upsert(label, rec)
}

// resolveLabel maps a raw outcome label onto an existing outcome group when
// the normalized names are close enough (team identity across sources),
// otherwise starts a new group under the normalized label
func (m *EventMatcher) resolveLabel(market *models.Market, raw string) string {
	norm := NormalizeName(raw)
	if _, ok := market.Outcomes[norm]; ok {
		return norm
	}
	// Sorted order so the group a close label lands in never depends on map
	// iteration.
	for _, existing := range market.Labels() {
		if TokenSetRatio(existing, norm) >= m.cfg.SimilarityThreshold {
			return existing
		}
	}
	return norm
}
