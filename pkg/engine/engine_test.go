package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// matchResultRecord builds a 1X2 quote for the given fixture name
func matchResultRecord(t *testing.T, source, event, label string, p float64) models.OutcomeRecord {
	t.Helper()
	return testRecord(t, models.OutcomeRecordParams{
		SourceID:     source,
		EventName:    event,
		League:       "Premier League",
		OutcomeLabel: label,
		Price:        price(p),
	})
}

// profitableBatch quotes the same fixture under per-source name variants with
// best prices 2.50/3.60/4.00 split across three sources
func profitableBatch(t *testing.T) []models.OutcomeRecord {
	t.Helper()
	return []models.OutcomeRecord{
		matchResultRecord(t, "book_alpha", "Manchester United vs Liverpool", "home", 2.50),
		matchResultRecord(t, "book_alpha", "Manchester United vs Liverpool", "draw", 3.30),
		matchResultRecord(t, "book_alpha", "Manchester United vs Liverpool", "away", 3.80),
		matchResultRecord(t, "book_beta", "Manchester Utd - Liverpool FC", "home", 2.40),
		matchResultRecord(t, "book_beta", "Manchester Utd - Liverpool FC", "draw", 3.60),
		matchResultRecord(t, "book_beta", "Manchester Utd - Liverpool FC", "away", 3.70),
		matchResultRecord(t, "book_gamma", "Liverpool v Manchester United", "home", 2.35),
		matchResultRecord(t, "book_gamma", "Liverpool v Manchester United", "draw", 3.40),
		matchResultRecord(t, "book_gamma", "Liverpool v Manchester United", "away", 4.00),
	}
}

// TestDetectCycle_CrossSourceArbitrage tests the full pipeline: name variants
// merge into one event and the best price per outcome locks in a profit
func TestDetectCycle_CrossSourceArbitrage(t *testing.T) {
	e := setupTestEngine()

	opportunities, summary := e.DetectCycle(profitableBatch(t), nil)

	require.Len(t, opportunities, 1)
	opp := opportunities[0]

	assert.InDelta(t, 92.7778, opp.ArbPercentage.InexactFloat64(), 0.0001)
	assert.InDelta(t, 7.7844, opp.ProfitPercentage.InexactFloat64(), 0.0001)
	assert.Equal(t, models.MarketMatchResult, opp.MarketType)
	assert.Equal(t, "book_alpha", opp.Outcomes["home"].SourceID)
	assert.Equal(t, "book_beta", opp.Outcomes["draw"].SourceID)
	assert.Equal(t, "book_gamma", opp.Outcomes["away"].SourceID)

	assert.True(t, opp.Bankroll.Equal(decimal.NewFromInt(1000)))
	assert.InDelta(t, 77.84, opp.GuaranteedProfit.InexactFloat64(), 0.01)
	require.Len(t, opp.Stakes, 3)
	assert.Greater(t, opp.FreshnessScore, 0.9)

	assert.Equal(t, 1, summary.EventsConsidered)
	assert.Equal(t, 9, summary.RecordsConsidered)
	assert.Equal(t, 1, summary.Opportunities)
	assert.Equal(t, 3, summary.SourceCounts["book_alpha"])
	assert.False(t, summary.Degraded)
}

// TestDetectCycle_NoOverround tests that a batch with an overround on every
// market produces no opportunities
func TestDetectCycle_NoOverround(t *testing.T) {
	e := setupTestEngine()

	records := []models.OutcomeRecord{
		matchResultRecord(t, "book_alpha", "Arsenal vs Chelsea", "home", 1.80),
		matchResultRecord(t, "book_beta", "Arsenal vs Chelsea", "draw", 3.20),
		matchResultRecord(t, "book_gamma", "Arsenal vs Chelsea", "away", 2.00),
	}

	opportunities, summary := e.DetectCycle(records, nil)

	assert.Empty(t, opportunities)
	assert.Equal(t, 1, summary.EventsConsidered)
	assert.Equal(t, 0, summary.Opportunities)
	assert.False(t, summary.Degraded)
}

// TestDetectCycle_EmptyBatchIsDegraded tests that a cycle with no usable data
// is flagged rather than silently empty
func TestDetectCycle_EmptyBatchIsDegraded(t *testing.T) {
	e := setupTestEngine()

	opportunities, summary := e.DetectCycle(nil, nil)

	assert.Empty(t, opportunities)
	assert.True(t, summary.Degraded)
	assert.NotEmpty(t, summary.DegradedReason)
}

// TestDetectCycle_SourceAllowList tests that the allow-list restricts which
// sources may fund legs during detection
func TestDetectCycle_SourceAllowList(t *testing.T) {
	e := setupTestEngine()

	// Only two of the three sources are allowed; the best selection needs
	// all three, so no opportunity survives.
	allowed := map[string]struct{}{"book_alpha": {}, "book_beta": {}}
	opportunities, _ := e.DetectCycle(profitableBatch(t), allowed)

	for _, opp := range opportunities {
		for _, id := range opp.SourceIDs() {
			_, ok := allowed[id]
			assert.True(t, ok, "source %s not in allow-list", id)
		}
	}
}

// TestDetectCycle_OrdersByProfit tests that opportunities come back sorted by
// profit percentage descending
func TestDetectCycle_OrdersByProfit(t *testing.T) {
	e := setupTestEngine()

	records := profitableBatch(t)
	// A second fixture with a thinner edge: 2.10/2.10 two-way.
	records = append(records,
		testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_alpha", EventName: "Lakers vs Warriors", Sport: "basketball",
			MarketType: models.MarketMoneyline, OutcomeLabel: "Lakers", Price: price(2.10),
		}),
		testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_beta", EventName: "Lakers vs Warriors", Sport: "basketball",
			MarketType: models.MarketMoneyline, OutcomeLabel: "Warriors", Price: price(2.10),
		}),
	)

	opportunities, _ := e.DetectCycle(records, nil)

	require.Len(t, opportunities, 2)
	assert.True(t, opportunities[0].ProfitPercentage.GreaterThanOrEqual(opportunities[1].ProfitPercentage))
	assert.Equal(t, "football", opportunities[0].Sport)
	assert.Equal(t, "basketball", opportunities[1].Sport)
}

// TestDetectCycle_StaleQuotesExcluded tests that stale records never reach a
// selection even when they carry the best price
func TestDetectCycle_StaleQuotesExcluded(t *testing.T) {
	e := setupTestEngine()
	now := time.Now().UTC()

	records := []models.OutcomeRecord{
		testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_alpha", EventName: "Arsenal vs Chelsea",
			OutcomeLabel: "home", Price: price(2.50), ObservedAt: now,
		}),
		// Best away price, but observed 400s ago.
		testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_beta", EventName: "Arsenal vs Chelsea",
			OutcomeLabel: "away", Price: price(4.00), ObservedAt: now.Add(-400 * time.Second),
		}),
		testRecord(t, models.OutcomeRecordParams{
			SourceID: "book_gamma", EventName: "Arsenal vs Chelsea",
			OutcomeLabel: "away", Price: price(3.60), ObservedAt: now,
		}),
	}

	opportunities, _ := e.DetectCycle(records, nil)

	// 1/2.5 + 1/3.6 > 1, so dropping the stale 4.00 kills the edge.
	assert.Empty(t, opportunities)
}

// TestFilterOpportunities tests post-detection filtering without re-detection
func TestFilterOpportunities(t *testing.T) {
	e := setupTestEngine()
	opportunities, _ := e.DetectCycle(profitableBatch(t), nil)
	require.Len(t, opportunities, 1)

	// Sport mismatch filters everything out.
	out := e.FilterOpportunities(opportunities, &models.Filters{Sport: "tennis"})
	assert.Empty(t, out)

	// Matching sport passes through.
	out = e.FilterOpportunities(opportunities, &models.Filters{Sport: "football"})
	assert.Len(t, out, 1)

	// A profit floor above the opportunity's edge filters it out.
	out = e.FilterOpportunities(opportunities, &models.Filters{
		MinArbPercentage: decimal.NewNullDecimal(decimal.NewFromInt(10)),
	})
	assert.Empty(t, out)

	// A source restriction missing one funding source filters it out.
	out = e.FilterOpportunities(opportunities, &models.Filters{
		Sources: []string{"book_alpha", "book_beta"},
	})
	assert.Empty(t, out)

	// Nil filters are a no-op.
	out = e.FilterOpportunities(opportunities, nil)
	assert.Len(t, out, 1)
}

// TestFilterOpportunities_BankrollRecomputesStakes tests that a bankroll
// filter rescales stakes without touching the percentages
func TestFilterOpportunities_BankrollRecomputesStakes(t *testing.T) {
	e := setupTestEngine()
	opportunities, _ := e.DetectCycle(profitableBatch(t), nil)
	require.Len(t, opportunities, 1)
	originalProfit := opportunities[0].ProfitPercentage

	out := e.FilterOpportunities(opportunities, &models.Filters{
		Bankroll: decimal.NewNullDecimal(decimal.NewFromInt(5000)),
	})

	require.Len(t, out, 1)
	assert.True(t, out[0].Bankroll.Equal(decimal.NewFromInt(5000)))
	assert.True(t, out[0].ProfitPercentage.Equal(originalProfit))
	assert.InDelta(t, 389.22, out[0].GuaranteedProfit.InexactFloat64(), 0.01)

	total := decimal.Zero
	for _, s := range out[0].Stakes {
		total = total.Add(s.StakeAmount)
	}
	assert.InDelta(t, 5000, total.InexactFloat64(), 0.05)
}

// TestRecomputeStakes tests the pure bankroll rescale
func TestRecomputeStakes(t *testing.T) {
	e := setupTestEngine()
	opportunities, _ := e.DetectCycle(profitableBatch(t), nil)
	require.Len(t, opportunities, 1)

	rescaled := RecomputeStakes(opportunities[0], decimal.NewFromInt(200))

	assert.True(t, rescaled.Bankroll.Equal(decimal.NewFromInt(200)))
	assert.True(t, rescaled.ArbPercentage.Equal(opportunities[0].ArbPercentage))
	// The original is untouched.
	assert.True(t, opportunities[0].Bankroll.Equal(decimal.NewFromInt(1000)))
}
