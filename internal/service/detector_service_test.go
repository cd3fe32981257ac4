package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cypherlabdev/arb-detection-service/internal/cache"
	"github.com/cypherlabdev/arb-detection-service/internal/mocks"
	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// testDetectorSetup is a helper struct to hold test dependencies
type testDetectorSetup struct {
	service       *DetectorService
	mockCollector *mocks.MockOddsCollector
	mockEngine    *mocks.MockDetectionEngine
	mockStore     *mocks.MockSnapshotStore
	cache         *cache.ResultCache
	ctrl          *gomock.Controller
}

// setupTestDetector creates a detector service with mocked collaborators and
// a real result cache
func setupTestDetector(t *testing.T) *testDetectorSetup {
	ctrl := gomock.NewController(t)

	mockCollector := mocks.NewMockOddsCollector(ctrl)
	mockEngine := mocks.NewMockDetectionEngine(ctrl)
	mockStore := mocks.NewMockSnapshotStore(ctrl)
	resultCache := cache.NewResultCache(30*time.Second, 300*time.Second, zerolog.Nop())

	svc := NewDetectorService(
		mockCollector,
		mockEngine,
		resultCache,
		mockStore,
		nil,
		[]string{"book_alpha", "book_beta"},
		5*time.Second,
		zerolog.Nop(),
	)

	return &testDetectorSetup{
		service:       svc,
		mockCollector: mockCollector,
		mockEngine:    mockEngine,
		mockStore:     mockStore,
		cache:         resultCache,
		ctrl:          ctrl,
	}
}

// cleanup cleans up test resources
func (s *testDetectorSetup) cleanup() {
	s.ctrl.Finish()
}

// testOpportunity builds one minimal opportunity
func testOpportunity() models.ArbitrageOpportunity {
	return models.ArbitrageOpportunity{
		ID:               uuid.New(),
		EventName:        "Team A vs Team B",
		Sport:            "football",
		MarketType:       models.MarketMatchResult,
		ArbPercentage:    decimal.NewFromFloat(92.7778),
		ProfitPercentage: decimal.NewFromFloat(7.7844),
		Bankroll:         decimal.NewFromInt(1000),
		DetectedAt:       time.Now().UTC(),
	}
}

// TestGetOpportunities_CachedPath tests that the cached path detects once and
// serves subsequent calls from the cache
func TestGetOpportunities_CachedPath(t *testing.T) {
	setup := setupTestDetector(t)
	defer setup.cleanup()

	records := []models.OutcomeRecord{{SourceID: "book_alpha"}}
	counts := map[string]int{"book_alpha": 1}
	opps := []models.ArbitrageOpportunity{testOpportunity()}
	summary := models.DetectionSummary{EventsConsidered: 1, ComputedAt: time.Now().UTC()}

	setup.mockCollector.EXPECT().Collect(gomock.Any()).Return(records, counts, nil).Times(1)
	setup.mockEngine.EXPECT().DetectCycle(records, nil).Return(opps, summary).Times(1)
	setup.mockStore.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	setup.mockEngine.EXPECT().
		FilterOpportunities(opps, gomock.Any()).
		Return(opps).
		Times(2)

	filters := &models.Filters{UseCache: true}

	got, gotSummary, err := setup.service.GetOpportunities(context.Background(), filters)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, counts, gotSummary.SourceCounts)

	// Second call is served from the fresh cache: no new Collect/DetectCycle.
	got, _, err = setup.service.GetOpportunities(context.Background(), filters)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// TestGetOpportunities_BypassCache tests that use_cache=false runs a direct
// detection with the caller's source allow-list
func TestGetOpportunities_BypassCache(t *testing.T) {
	setup := setupTestDetector(t)
	defer setup.cleanup()

	records := []models.OutcomeRecord{{SourceID: "book_alpha"}}
	counts := map[string]int{"book_alpha": 1}
	opps := []models.ArbitrageOpportunity{testOpportunity()}

	filters := &models.Filters{UseCache: false, Sources: []string{"book_alpha"}}
	expectedAllowed := map[string]struct{}{"book_alpha": {}}

	setup.mockCollector.EXPECT().Collect(gomock.Any()).Return(records, counts, nil)
	setup.mockEngine.EXPECT().DetectCycle(records, expectedAllowed).
		Return(opps, models.DetectionSummary{EventsConsidered: 1})
	setup.mockStore.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockEngine.EXPECT().FilterOpportunities(opps, filters).Return(opps)

	got, _, err := setup.service.GetOpportunities(context.Background(), filters)

	require.NoError(t, err)
	assert.Len(t, got, 1)

	// A direct detection goes around the cache and installs nothing.
	_, ok := setup.cache.Latest()
	assert.False(t, ok)
}

// TestGetOpportunities_NilFiltersDefaultToCache tests the nil-filters default
func TestGetOpportunities_NilFiltersDefaultToCache(t *testing.T) {
	setup := setupTestDetector(t)
	defer setup.cleanup()

	opps := []models.ArbitrageOpportunity{testOpportunity()}
	setup.mockCollector.EXPECT().Collect(gomock.Any()).
		Return([]models.OutcomeRecord{{SourceID: "book_alpha"}}, map[string]int{"book_alpha": 1}, nil)
	setup.mockEngine.EXPECT().DetectCycle(gomock.Any(), nil).
		Return(opps, models.DetectionSummary{EventsConsidered: 1})
	setup.mockStore.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockEngine.EXPECT().FilterOpportunities(opps, gomock.Any()).Return(opps)

	got, _, err := setup.service.GetOpportunities(context.Background(), nil)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "fresh", string(setup.cache.State()))
}

// TestGetOpportunities_CollectFailureIsDegraded tests that a failed first
// cycle yields an empty list with a degraded summary, never an error
func TestGetOpportunities_CollectFailureIsDegraded(t *testing.T) {
	setup := setupTestDetector(t)
	defer setup.cleanup()

	setup.mockCollector.EXPECT().Collect(gomock.Any()).
		Return(nil, nil, errors.New("all sources down"))

	got, summary, err := setup.service.GetOpportunities(context.Background(), &models.Filters{UseCache: true})

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, summary.Degraded)
	assert.Contains(t, summary.DegradedReason, "all sources down")
}

// TestGetOpportunities_FailedRefreshServesPrevious tests that a stale cache
// plus a failing refresh serves the previous results flagged as degraded
func TestGetOpportunities_FailedRefreshServesPrevious(t *testing.T) {
	setup := setupTestDetector(t)
	defer setup.cleanup()

	records := []models.OutcomeRecord{{SourceID: "book_alpha"}}
	counts := map[string]int{"book_alpha": 1}
	opps := []models.ArbitrageOpportunity{testOpportunity()}

	// First cycle succeeds but is already past the freshness window, so the
	// next request must attempt a refresh.
	setup.mockCollector.EXPECT().Collect(gomock.Any()).Return(records, counts, nil)
	setup.mockEngine.EXPECT().DetectCycle(records, nil).
		Return(opps, models.DetectionSummary{EventsConsidered: 1, ComputedAt: time.Now().Add(-10 * time.Minute)})
	setup.mockStore.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockEngine.EXPECT().FilterOpportunities(opps, gomock.Any()).Return(opps).Times(2)

	_, _, err := setup.service.GetOpportunities(context.Background(), &models.Filters{UseCache: true})
	require.NoError(t, err)

	setup.mockCollector.EXPECT().Collect(gomock.Any()).
		Return(nil, nil, errors.New("sources flapping"))

	got, summary, err := setup.service.GetOpportunities(context.Background(), &models.Filters{UseCache: true})

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, summary.Degraded)
	assert.Contains(t, summary.DegradedReason, "sources flapping")
}

// TestGetOpportunities_RefreshSurvivesCallerCancel tests that a caller
// disconnecting mid-refresh does not abort the cycle for other callers joined
// on the same flight
func TestGetOpportunities_RefreshSurvivesCallerCancel(t *testing.T) {
	setup := setupTestDetector(t)
	defer setup.cleanup()

	records := []models.OutcomeRecord{{SourceID: "book_alpha"}}
	counts := map[string]int{"book_alpha": 1}
	opps := []models.ArbitrageOpportunity{testOpportunity()}
	summary := models.DetectionSummary{EventsConsidered: 1, ComputedAt: time.Now().UTC()}

	// The collector blocks until the gate opens, holding the refresh in
	// flight. It must only ever run once.
	gate := make(chan struct{})
	setup.mockCollector.EXPECT().Collect(gomock.Any()).
		DoAndReturn(func(ctx context.Context) ([]models.OutcomeRecord, map[string]int, error) {
			select {
			case <-gate:
				return records, counts, nil
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}).Times(1)
	setup.mockEngine.EXPECT().DetectCycle(records, nil).Return(opps, summary).Times(1)
	setup.mockStore.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	setup.mockEngine.EXPECT().FilterOpportunities(opps, gomock.Any()).Return(opps).Times(2)

	type result struct {
		got     []models.ArbitrageOpportunity
		summary models.DetectionSummary
		err     error
	}
	results := make(chan result, 2)
	call := func(ctx context.Context) {
		got, sum, err := setup.service.GetOpportunities(ctx, nil)
		results <- result{got: got, summary: sum, err: err}
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	go call(cancelCtx)

	require.Eventually(t, func() bool {
		return setup.cache.State() == cache.StateRefreshing
	}, time.Second, 5*time.Millisecond)

	go call(context.Background())
	time.Sleep(50 * time.Millisecond)

	// The first caller disconnects while the second is still waiting.
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(gate)

	for i := 0; i < 2; i++ {
		res := <-results
		require.NoError(t, res.err)
		assert.False(t, res.summary.Degraded)
		assert.Len(t, res.got, 1)
	}
	assert.Equal(t, cache.StateFresh, setup.cache.State())
}

// TestStatus tests the operational status report
func TestStatus(t *testing.T) {
	setup := setupTestDetector(t)
	defer setup.cleanup()

	status := setup.service.Status()
	assert.Equal(t, "empty", status.CacheState)
	assert.Equal(t, []string{"book_alpha", "book_beta"}, status.Sources)
	assert.Equal(t, "5s", status.CycleTimeout)
	assert.Nil(t, status.LastComputedAt)

	opps := []models.ArbitrageOpportunity{testOpportunity()}
	setup.mockCollector.EXPECT().Collect(gomock.Any()).
		Return([]models.OutcomeRecord{{SourceID: "book_alpha"}}, map[string]int{"book_alpha": 1}, nil)
	setup.mockEngine.EXPECT().DetectCycle(gomock.Any(), nil).
		Return(opps, models.DetectionSummary{EventsConsidered: 1})
	setup.mockStore.EXPECT().PublishSnapshot(gomock.Any(), gomock.Any()).Return(nil)
	setup.mockEngine.EXPECT().FilterOpportunities(opps, gomock.Any()).Return(opps)

	_, _, err := setup.service.GetOpportunities(context.Background(), nil)
	require.NoError(t, err)

	status = setup.service.Status()
	assert.Equal(t, "fresh", status.CacheState)
	assert.Equal(t, 1, status.Opportunities)
	require.NotNil(t, status.LastComputedAt)
}
