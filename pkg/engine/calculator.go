package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// ErrInvalidPrice signals a quoted price at or below 1.0 reaching the
// calculator. Valid data never carries such a price, so this is a
// data-quality failure for that selection, not a normal negative result.
var ErrInvalidPrice = errors.New("price must be greater than 1.0")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// ArbCalculation is the numeric result for one selection
type ArbCalculation struct {
	TotalImplied     decimal.Decimal
	ArbPercentage    decimal.Decimal // total implied probability x100, strictly < 100 for an arbitrage
	ProfitPercentage decimal.Decimal // (1/total - 1) x100
}

// CalculateArbitrage computes the total implied probability and profit
// percentage for a selection of at least two records from distinct sources.
// A total implied probability >= 1.0 means no arbitrage exists and returns
// ok=false with no error; that is the common case, not a failure.
func CalculateArbitrage(selection map[string]models.OutcomeRecord) (ArbCalculation, bool, error) {
	if len(selection) < 2 {
		return ArbCalculation{}, false, nil
	}

	total := decimal.Zero
	for label, rec := range selection {
		if rec.Price.LessThanOrEqual(one) {
			return ArbCalculation{}, false, fmt.Errorf("outcome %q from %s has price %s: %w",
				label, rec.SourceID, rec.Price.String(), ErrInvalidPrice)
		}
		total = total.Add(rec.ImpliedProbability())
	}

	if total.GreaterThanOrEqual(one) {
		return ArbCalculation{}, false, nil
	}

	profit := one.DivRound(total, 12).Sub(one).Mul(hundred)

	return ArbCalculation{
		TotalImplied:     total,
		ArbPercentage:    total.Mul(hundred).Round(4),
		ProfitPercentage: profit.Round(4),
	}, true, nil
}
