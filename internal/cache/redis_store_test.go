package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// testRedisStoreSetup is a helper struct to hold test dependencies
type testRedisStoreSetup struct {
	store     *RedisStore
	miniRedis *miniredis.Miniredis
	ctx       context.Context
}

// setupTestRedisStore creates a test store with miniredis
func setupTestRedisStore(t *testing.T) *testRedisStoreSetup {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	store := NewRedisStore(RedisStoreConfig{
		Addr:     mr.Addr(),
		Password: "",
		DB:       0,
		TTL:      15 * time.Minute,
	}, zerolog.Nop())

	return &testRedisStoreSetup{
		store:     store,
		miniRedis: mr,
		ctx:       context.Background(),
	}
}

// cleanup cleans up test resources
func (s *testRedisStoreSetup) cleanup() {
	s.store.Close()
	s.miniRedis.Close()
}

// testSnapshot builds a snapshot with one opportunity
func testSnapshot() Snapshot {
	now := time.Now().UTC().Truncate(time.Second)
	return Snapshot{
		Opportunities: []models.ArbitrageOpportunity{
			{
				ID:               uuid.New(),
				EventName:        "Manchester United vs Liverpool",
				Sport:            "football",
				League:           "Premier League",
				MarketType:       models.MarketMatchResult,
				MarketDescriptor: "match_result",
				ArbPercentage:    decimal.NewFromFloat(92.7778),
				ProfitPercentage: decimal.NewFromFloat(7.7844),
				Bankroll:         decimal.NewFromInt(1000),
				GuaranteedProfit: decimal.NewFromFloat(77.84),
				FreshnessScore:   0.97,
				DetectedAt:       now,
			},
		},
		Summary: models.DetectionSummary{
			EventsConsidered:  1,
			RecordsConsidered: 9,
			Opportunities:     1,
			ComputedAt:        now,
		},
		ComputedAt: now,
	}
}

// TestNewRedisStore tests store creation
func TestNewRedisStore(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.cleanup()

	assert.NotNil(t, setup.store)
	assert.NotNil(t, setup.store.client)
	assert.Equal(t, 15*time.Minute, setup.store.ttl)
}

// TestPublishSnapshot_RoundTrip tests publishing and reading back a snapshot
func TestPublishSnapshot_RoundTrip(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.cleanup()

	snap := testSnapshot()
	err := setup.store.PublishSnapshot(setup.ctx, snap)
	require.NoError(t, err)

	got, err := setup.store.LatestSnapshot(setup.ctx)
	require.NoError(t, err)
	require.Len(t, got.Opportunities, 1)
	assert.Equal(t, snap.Opportunities[0].ID, got.Opportunities[0].ID)
	assert.Equal(t, snap.Opportunities[0].EventName, got.Opportunities[0].EventName)
	assert.True(t, got.Opportunities[0].ProfitPercentage.Equal(snap.Opportunities[0].ProfitPercentage))
	assert.Equal(t, snap.Summary.RecordsConsidered, got.Summary.RecordsConsidered)
}

// TestPublishSnapshot_SetsTTL tests that the published key expires
func TestPublishSnapshot_SetsTTL(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.cleanup()

	require.NoError(t, setup.store.PublishSnapshot(setup.ctx, testSnapshot()))

	setup.miniRedis.FastForward(16 * time.Minute)

	_, err := setup.store.LatestSnapshot(setup.ctx)
	assert.Error(t, err)
}

// TestLatestSnapshot_Empty tests reading before anything was published
func TestLatestSnapshot_Empty(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.cleanup()

	_, err := setup.store.LatestSnapshot(setup.ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no snapshot")
}

// TestPing tests connection verification against a live and a stopped server
func TestPing(t *testing.T) {
	setup := setupTestRedisStore(t)
	defer setup.cleanup()

	assert.NoError(t, setup.store.Ping(setup.ctx))

	setup.miniRedis.Close()
	assert.Error(t, setup.store.Ping(setup.ctx))
}
