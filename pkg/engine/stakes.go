package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// AllocateStakes splits a bankroll across the selected outcomes so that the
// return is equal regardless of result: each leg is staked in proportion to
// its implied probability. It is a pure function of (selection, bankroll) and
// can be re-run for a different bankroll without recomputing the arbitrage.
func AllocateStakes(selection map[string]models.OutcomeRecord, bankroll decimal.Decimal) []models.StakeCalculation {
	totalImplied := decimal.Zero
	for _, rec := range selection {
		totalImplied = totalImplied.Add(rec.ImpliedProbability())
	}
	if totalImplied.IsZero() {
		return nil
	}

	labels := make([]string, 0, len(selection))
	for label := range selection {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	stakes := make([]models.StakeCalculation, 0, len(labels))
	for _, label := range labels {
		rec := selection[label]
		stake := bankroll.Mul(rec.ImpliedProbability()).DivRound(totalImplied, 2)
		potentialReturn := stake.Mul(rec.Price)
		stakes = append(stakes, models.StakeCalculation{
			OutcomeLabel:    label,
			SourceID:        rec.SourceID,
			StakeAmount:     stake,
			PotentialProfit: potentialReturn.Sub(bankroll).Round(2),
			SourceURL:       rec.SourceURL,
		})
	}
	return stakes
}

// GuaranteedProfit is the locked-in profit for a bankroll at the given
// profit percentage, rounded to currency precision
func GuaranteedProfit(bankroll, profitPercentage decimal.Decimal) decimal.Decimal {
	return bankroll.Mul(profitPercentage).DivRound(hundred, 2)
}
