package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// Config holds the engine's detection parameters
type Config struct {
	Matcher             MatcherConfig
	Freshness           FreshnessConfig
	MinProfitPercentage decimal.Decimal // opportunities below this profit are discarded
	DefaultBankroll     decimal.Decimal // stake basis when the caller supplies none
}

// Engine matches a cycle's snapshot of outcome records into canonical events
// and surfaces every cross-source combination that locks in a profit. It is a
// pure, single-pass transformation over an immutable input batch: no internal
// locking, no shared state.
type Engine struct {
	cfg      Config
	matcher  *EventMatcher
	fresh    *FreshnessFilter
	selector Selector
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEngine creates a detection engine. A nil selector falls back to the
// greedy default.
func NewEngine(cfg Config, selector Selector, logger zerolog.Logger) *Engine {
	if selector == nil {
		selector = GreedySelector{}
	}
	return &Engine{
		cfg:      cfg,
		matcher:  NewEventMatcher(cfg.Matcher, logger),
		fresh:    NewFreshnessFilter(cfg.Freshness),
		selector: selector,
		logger:   logger.With().Str("component", "engine").Logger(),
		now:      time.Now,
	}
}

// DetectCycle runs one full detection pass over a batch of records. The
// optional source allow-list restricts which sources may fund a leg. Per-event
// failures are logged and skipped so one bad event never blocks the batch.
func (e *Engine) DetectCycle(records []models.OutcomeRecord, allowed map[string]struct{}) ([]models.ArbitrageOpportunity, models.DetectionSummary) {
	started := e.now()

	sourceCounts := make(map[string]int)
	for _, rec := range records {
		sourceCounts[rec.SourceID]++
	}

	events := e.matcher.Match(records)

	var opportunities []models.ArbitrageOpportunity
	for _, ev := range events {
		for _, key := range ev.MarketKeys() {
			opp, err := e.detectMarket(ev, ev.Markets[key], key, allowed)
			if err != nil {
				e.logger.Warn().
					Err(err).
					Str("event", ev.CanonicalName).
					Str("market", key.String()).
					Msg("skipping market with corrupt quotes")
				continue
			}
			if opp != nil {
				opportunities = append(opportunities, *opp)
			}
		}
		opportunities = append(opportunities, e.detectMiddles(ev, allowed)...)
	}

	sortOpportunities(opportunities)

	summary := models.DetectionSummary{
		EventsConsidered:  len(events),
		RecordsConsidered: len(records),
		SourceCounts:      sourceCounts,
		Opportunities:     len(opportunities),
		ProcessingTime:    e.now().Sub(started),
		ComputedAt:        e.now(),
	}
	if len(events) == 0 {
		summary.Degraded = true
		summary.DegradedReason = "no usable odds data this cycle"
	}

	e.logger.Info().
		Int("records", len(records)).
		Int("events", len(events)).
		Int("opportunities", len(opportunities)).
		Dur("took", summary.ProcessingTime).
		Msg("detection cycle complete")

	return opportunities, summary
}

// detectMarket runs the freshness -> selection -> calculation -> allocation
// pipeline for one market. A nil opportunity with nil error is the normal
// no-arbitrage outcome.
func (e *Engine) detectMarket(ev *models.CanonicalEvent, market *models.Market, key models.MarketKey, allowed map[string]struct{}) (*models.ArbitrageOpportunity, error) {
	groups := e.fresh.FreshOutcomes(market, ev.IsLive)
	if groups == nil {
		return nil, nil
	}

	selection := e.selector.Select(groups, allowed)
	if selection == nil {
		return nil, nil
	}

	calc, ok, err := CalculateArbitrage(selection)
	if err != nil {
		return nil, err
	}
	if !ok || calc.ProfitPercentage.LessThan(e.cfg.MinProfitPercentage) {
		return nil, nil
	}

	opp := e.buildOpportunity(ev, market.Type, key.String(), selection, calc)
	return &opp, nil
}

// buildOpportunity assembles the output record for a profitable selection
func (e *Engine) buildOpportunity(ev *models.CanonicalEvent, marketType models.MarketType, descriptor string, selection map[string]models.OutcomeRecord, calc ArbCalculation) models.ArbitrageOpportunity {
	bankroll := e.cfg.DefaultBankroll
	return models.ArbitrageOpportunity{
		ID:               uuid.New(),
		EventName:        ev.CanonicalName,
		Sport:            ev.Sport,
		League:           ev.League,
		ScheduledStart:   ev.ScheduledStart,
		IsLive:           ev.IsLive,
		MarketType:       marketType,
		MarketDescriptor: descriptor,
		Outcomes:         selection,
		ArbPercentage:    calc.ArbPercentage,
		ProfitPercentage: calc.ProfitPercentage,
		Bankroll:         bankroll,
		GuaranteedProfit: GuaranteedProfit(bankroll, calc.ProfitPercentage),
		Stakes:           AllocateStakes(selection, bankroll),
		FreshnessScore:   FreshnessScore(selection, e.now()),
		DetectedAt:       e.now(),
	}
}

// sortOpportunities orders by profit percentage descending, ties broken by
// earliest scheduled start (events with no start sort last)
func sortOpportunities(opps []models.ArbitrageOpportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if !opps[i].ProfitPercentage.Equal(opps[j].ProfitPercentage) {
			return opps[i].ProfitPercentage.GreaterThan(opps[j].ProfitPercentage)
		}
		si, sj := opps[i].ScheduledStart, opps[j].ScheduledStart
		switch {
		case si == nil:
			return false
		case sj == nil:
			return true
		default:
			return si.Before(*sj)
		}
	})
}

// FilterOpportunities applies caller filters to an already computed list
// without re-detection. A bankroll filter recomputes stakes in place via
// RecomputeStakes; arb and profit percentages are never touched.
func (e *Engine) FilterOpportunities(opps []models.ArbitrageOpportunity, filters *models.Filters) []models.ArbitrageOpportunity {
	if filters == nil {
		return opps
	}

	allowed := filters.SourceSet()
	minProfitPct := e.cfg.MinProfitPercentage
	if filters.MinArbPercentage.Valid {
		minProfitPct = filters.MinArbPercentage.Decimal
	}

	out := make([]models.ArbitrageOpportunity, 0, len(opps))
	for _, opp := range opps {
		if filters.Sport != "" && opp.Sport != filters.Sport {
			continue
		}
		if filters.MarketType != "" && opp.MarketType != filters.MarketType {
			continue
		}
		if filters.LiveOnly != nil && *filters.LiveOnly != opp.IsLive {
			continue
		}
		if filters.MaxStartHours > 0 && opp.ScheduledStart != nil {
			horizon := e.now().Add(time.Duration(filters.MaxStartHours) * time.Hour)
			if opp.ScheduledStart.After(horizon) {
				continue
			}
		}
		if opp.ProfitPercentage.LessThan(minProfitPct) {
			continue
		}
		if allowed != nil && !sourcesWithin(&opp, allowed) {
			continue
		}
		if filters.Bankroll.Valid && !filters.Bankroll.Decimal.Equal(opp.Bankroll) {
			opp = RecomputeStakes(opp, filters.Bankroll.Decimal)
		}
		if filters.MinProfit.Valid && opp.GuaranteedProfit.LessThan(filters.MinProfit.Decimal) {
			continue
		}
		out = append(out, opp)
	}
	return out
}

// RecomputeStakes returns a copy of the opportunity with stakes, bankroll and
// guaranteed profit recomputed for a new bankroll. Percentages are a property
// of the odds alone and are left untouched.
func RecomputeStakes(opp models.ArbitrageOpportunity, bankroll decimal.Decimal) models.ArbitrageOpportunity {
	opp.Bankroll = bankroll
	opp.Stakes = AllocateStakes(opp.Outcomes, bankroll)
	opp.GuaranteedProfit = GuaranteedProfit(bankroll, opp.ProfitPercentage)
	return opp
}

func sourcesWithin(opp *models.ArbitrageOpportunity, allowed map[string]struct{}) bool {
	for _, id := range opp.SourceIDs() {
		if _, ok := allowed[id]; !ok {
			return false
		}
	}
	return true
}
