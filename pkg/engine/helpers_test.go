package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// testRecord builds a valid outcome record for tests, failing the test on
// invalid inputs so broken fixtures surface immediately
func testRecord(t *testing.T, p models.OutcomeRecordParams) models.OutcomeRecord {
	t.Helper()
	if p.Sport == "" {
		p.Sport = "football"
	}
	if p.MarketType == "" {
		p.MarketType = models.MarketMatchResult
	}
	if p.ObservedAt.IsZero() {
		p.ObservedAt = time.Now().UTC()
	}
	rec, err := models.NewOutcomeRecord(p)
	require.NoError(t, err)
	return rec
}

// price is shorthand for decimal prices in fixtures
func price(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// line wraps a float as a valid market line
func line(v float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(v), Valid: true}
}

// threeWaySelection builds the classic profitable 1X2 selection: prices
// 2.50 / 3.60 / 4.00 across three distinct sources sum to an implied
// probability of about 0.9278.
func threeWaySelection(t *testing.T) map[string]models.OutcomeRecord {
	t.Helper()
	return map[string]models.OutcomeRecord{
		"home": testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_alpha", EventName: "Team A vs Team B",
			OutcomeLabel: "home", Price: price(2.50),
		}),
		"draw": testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_beta", EventName: "Team A vs Team B",
			OutcomeLabel: "draw", Price: price(3.60),
		}),
		"away": testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_gamma", EventName: "Team A vs Team B",
			OutcomeLabel: "away", Price: price(4.00),
		}),
	}
}
