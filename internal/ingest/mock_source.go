package ingest

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// mockFixture is one synthetic real-world event shared by all mock sources.
// Base prices carry no bookmaker margin; each source applies its own margin
// and jitter, so cross-source arbitrages appear occasionally, like real
// pricing disagreement.
type mockFixture struct {
	name    string
	altName string // name variant some sources publish
	sport   string
	league  string
	markets []mockMarket
}

type mockMarket struct {
	marketType models.MarketType
	line       string // empty for no line
	outcomes   map[string]float64 // label -> fair decimal price
}

var mockFixtures = []mockFixture{
	{
		name:    "Manchester United vs Liverpool",
		altName: "Manchester Utd - Liverpool FC",
		sport:   "football",
		league:  "Premier League",
		markets: []mockMarket{
			{marketType: models.MarketMatchResult, outcomes: map[string]float64{
				"Home": 2.80, "Draw": 3.50, "Away": 2.60,
			}},
			{marketType: models.MarketTotals, line: "2.5", outcomes: map[string]float64{
				"Over": 1.95, "Under": 1.95,
			}},
			{marketType: models.MarketTotals, line: "3.5", outcomes: map[string]float64{
				"Over": 2.90, "Under": 1.45,
			}},
		},
	},
	{
		name:    "Real Madrid vs Barcelona",
		altName: "Real Madrid CF - FC Barcelona",
		sport:   "football",
		league:  "La Liga",
		markets: []mockMarket{
			{marketType: models.MarketMatchResult, outcomes: map[string]float64{
				"Home": 2.40, "Draw": 3.60, "Away": 3.00,
			}},
			{marketType: models.MarketTotals, line: "2.5", outcomes: map[string]float64{
				"Over": 1.80, "Under": 2.10,
			}},
		},
	},
	{
		name:    "Lakers vs Warriors",
		altName: "LA Lakers - Golden State Warriors",
		sport:   "basketball",
		league:  "NBA",
		markets: []mockMarket{
			{marketType: models.MarketMoneyline, outcomes: map[string]float64{
				"Home": 1.90, "Away": 2.00,
			}},
		},
	},
}

// MockSource generates synthetic cross-source odds without live credentials.
// All mock sources quote the same fixtures with per-source jitter so the
// downstream matcher and detector exercise realistic disagreement.
type MockSource struct {
	name string
	mu   sync.Mutex
	rng  *rand.Rand
	now  func() time.Time
}

// NewMockSource creates a mock source seeded deterministically from its name
func NewMockSource(name string) *MockSource {
	h := fnv.New64a()
	h.Write([]byte(name))
	return &MockSource{
		name: name,
		rng:  rand.New(rand.NewSource(int64(h.Sum64()))),
		now:  time.Now,
	}
}

// Name implements OddsSource
func (s *MockSource) Name() string { return s.name }

// FetchOdds implements OddsSource
func (s *MockSource) FetchOdds(ctx context.Context) ([]models.OutcomeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var records []models.OutcomeRecord

	for i, fixture := range mockFixtures {
		eventName := fixture.name
		if s.usesAltNames() {
			eventName = fixture.altName
		}
		start := now.Add(time.Duration(6+i*12) * time.Hour)

		for _, market := range fixture.markets {
			line := decimal.NullDecimal{}
			if market.line != "" {
				d, err := decimal.NewFromString(market.line)
				if err != nil {
					continue
				}
				line = decimal.NullDecimal{Decimal: d, Valid: true}
			}

			for label, fairPrice := range market.outcomes {
				price := s.quote(fairPrice)
				rec, err := models.NewOutcomeRecord(models.OutcomeRecordParams{
					SourceID:       s.name,
					EventName:      eventName,
					Sport:          fixture.sport,
					League:         fixture.league,
					ScheduledStart: &start,
					MarketType:     market.marketType,
					Line:           line,
					OutcomeLabel:   label,
					Price:          price,
					ObservedAt:     now,
					SourceURL:      s.mockURL(eventName),
				})
				if err != nil {
					continue // jitter drove the price out of range, drop quietly
				}
				records = append(records, rec)
			}
		}
	}

	return records, nil
}

// quote applies this source's margin and random disagreement to a fair price
func (s *MockSource) quote(fairPrice float64) decimal.Decimal {
	// Margin shaves 2-6% off the fair price; jitter of up to +/-7% models
	// cross-source disagreement and is what opens arbitrage windows.
	margin := 0.94 + s.rng.Float64()*0.04
	jitter := 0.93 + s.rng.Float64()*0.14
	return decimal.NewFromFloat(fairPrice * margin * jitter).Round(2)
}

// usesAltNames makes some sources publish the variant spelling so the fuzzy
// matcher is exercised on every mock run
func (s *MockSource) usesAltNames() bool {
	h := fnv.New32a()
	h.Write([]byte(s.name))
	return h.Sum32()%2 == 1
}

func (s *MockSource) mockURL(eventName string) string {
	slug := strings.ReplaceAll(strings.ToLower(eventName), " ", "-")
	return fmt.Sprintf("https://%s.example.com/event/%s", s.name, slug)
}
