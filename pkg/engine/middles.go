package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// middleLineGap is the only line spacing considered for middles. Wider gaps
// are a policy exclusion, not a technical limit.
var middleLineGap = decimal.NewFromInt(1)

// detectMiddles looks for cross-line opportunities within one event: for two
// totals (or handicap) markets whose lines differ by exactly 1.0, backing
// "Over L" on the lower line and "Under L+1" on the higher line wins both
// legs when the result lands exactly between them. The synthetic two-outcome
// selection goes through the standard calculator and allocator unchanged.
func (e *Engine) detectMiddles(ev *models.CanonicalEvent, allowed map[string]struct{}) []models.ArbitrageOpportunity {
	var opportunities []models.ArbitrageOpportunity

	for _, marketType := range []models.MarketType{models.MarketTotals, models.MarketHandicap} {
		lined := e.linedMarkets(ev, marketType)

		for i := 0; i < len(lined); i++ {
			for j := i + 1; j < len(lined); j++ {
				lower, higher := lined[i], lined[j]
				if !higher.line.Sub(lower.line).Abs().Equal(middleLineGap) {
					continue
				}
				if lower.line.GreaterThan(higher.line) {
					lower, higher = higher, lower
				}

				opp, err := e.detectMiddle(ev, marketType, lower, higher, allowed)
				if err != nil {
					e.logger.Warn().
						Err(err).
						Str("event", ev.CanonicalName).
						Str("lines", lower.line.String()+"/"+higher.line.String()).
						Msg("skipping middle with corrupt quotes")
					continue
				}
				if opp != nil {
					opportunities = append(opportunities, *opp)
				}
			}
		}
	}

	return opportunities
}

type linedMarket struct {
	line   decimal.Decimal
	market *models.Market
}

// linedMarkets returns the event's markets of the given type that carry a
// line, in deterministic key order
func (e *Engine) linedMarkets(ev *models.CanonicalEvent, marketType models.MarketType) []linedMarket {
	var lined []linedMarket
	for _, key := range ev.MarketKeys() {
		if key.Type != marketType {
			continue
		}
		market := ev.Markets[key]
		if market.Line.Valid {
			lined = append(lined, linedMarket{line: market.Line.Decimal, market: market})
		}
	}
	return lined
}

// detectMiddle forms the synthetic Over-lower/Under-higher selection for one
// line pair and evaluates it exactly like a single-market selection
func (e *Engine) detectMiddle(ev *models.CanonicalEvent, marketType models.MarketType, lower, higher linedMarket, allowed map[string]struct{}) (*models.ArbitrageOpportunity, error) {
	overs := e.fresh.FreshGroup(findOutcomeGroup(lower.market, "over"), ev.IsLive)
	unders := e.fresh.FreshGroup(findOutcomeGroup(higher.market, "under"), ev.IsLive)
	if len(overs) == 0 || len(unders) == 0 {
		return nil, nil
	}

	overLabel := fmt.Sprintf("Over %s", lower.line.String())
	underLabel := fmt.Sprintf("Under %s", higher.line.String())

	selection := e.selector.Select(map[string][]models.OutcomeRecord{
		overLabel:  overs,
		underLabel: unders,
	}, allowed)
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

	descriptor := fmt.Sprintf("Middle %s/%s", lower.line.String(), higher.line.String())
	opp := e.buildOpportunity(ev, marketType, descriptor, selection, calc)
	return &opp, nil
}

// findOutcomeGroup locates the outcome group whose normalized label contains
// the given word ("over"/"under")
func findOutcomeGroup(market *models.Market, word string) []models.OutcomeRecord {
	if group, ok := market.Outcomes[word]; ok {
		return group
	}
	for label, group := range market.Outcomes {
		if strings.Contains(label, word) {
			return group
		}
	}
	return nil
}
