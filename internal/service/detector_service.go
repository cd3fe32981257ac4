package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/arb-detection-service/internal/cache"
	"github.com/cypherlabdev/arb-detection-service/internal/metrics"
	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// DetectorService orchestrates one detection pipeline: collect a snapshot,
// run the engine over it, cache the result and publish it. Callers always
// receive a well-formed (possibly empty) opportunity list plus a summary
// explaining why it is empty or degraded, never a raw error.
type DetectorService struct {
	collector    OddsCollector
	engine       DetectionEngine
	cache        *cache.ResultCache
	store        SnapshotStore // optional, best-effort publishing
	metrics      *metrics.Metrics
	sources      []string
	cycleTimeout time.Duration
	logger       zerolog.Logger
}

// NewDetectorService creates a detector service. store and m may be nil.
func NewDetectorService(
	collector OddsCollector,
	engine DetectionEngine,
	resultCache *cache.ResultCache,
	store SnapshotStore,
	m *metrics.Metrics,
	sources []string,
	cycleTimeout time.Duration,
	logger zerolog.Logger,
) *DetectorService {
	return &DetectorService{
		collector:    collector,
		engine:       engine,
		cache:        resultCache,
		store:        store,
		metrics:      m,
		sources:      sources,
		cycleTimeout: cycleTimeout,
		logger:       logger.With().Str("component", "detector_service").Logger(),
	}
}

// GetOpportunities serves the caller's filtered opportunity list. With
// use_cache the cached set is served when Fresh and only the filters are
// applied; a stale cache triggers exactly one recomputation regardless of
// caller concurrency. With use_cache=false a direct detection runs with the
// caller's source allow-list.
func (s *DetectorService) GetOpportunities(ctx context.Context, filters *models.Filters) ([]models.ArbitrageOpportunity, models.DetectionSummary, error) {
	if filters == nil {
		filters = &models.Filters{UseCache: true}
	}

	if !filters.UseCache {
		snap, err := s.runDetection(ctx, filters.SourceSet())
		if err != nil {
			return []models.ArbitrageOpportunity{}, degradedSummary(err), nil
		}
		return s.engine.FilterOpportunities(snap.Opportunities, filters), snap.Summary, nil
	}

	snap, err := s.cache.GetOrRefresh(ctx, func(ctx context.Context) (cache.Snapshot, error) {
		// The refresh is shared by every caller joined on the flight, so it
		// must not die with the caller that happened to start it. Only the
		// cycle budget may abort it.
		return s.runDetection(context.WithoutCancel(ctx), nil)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.DegradedRefreshes.Inc()
		}
		if snap.ComputedAt.IsZero() {
			// No previous result to fall back on.
			return []models.ArbitrageOpportunity{}, degradedSummary(err), nil
		}
		// Serving the previous snapshot: flag the degradation.
		snap.Summary.Degraded = true
		snap.Summary.DegradedReason = "refresh failed, serving previous results: " + err.Error()
	}

	return s.engine.FilterOpportunities(snap.Opportunities, filters), snap.Summary, nil
}

// runDetection executes one full cycle under the cycle time budget
func (s *DetectorService) runDetection(ctx context.Context, allowed map[string]struct{}) (cache.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
	defer cancel()

	started := time.Now()

	records, counts, err := s.collector.Collect(ctx)
	if err != nil {
		return cache.Snapshot{}, err
	}
	if err := ctx.Err(); err != nil {
		// The cycle blew its budget during collection; abort the refresh and
		// leave whatever was cached before in place.
		return cache.Snapshot{}, err
	}

	opportunities, summary := s.engine.DetectCycle(records, allowed)

	// Collector counts include sources that returned nothing.
	summary.SourceCounts = counts
	summary.ProcessingTime = time.Since(started)

	hasLive := false
	for i := range records {
		if records[i].IsLive {
			hasLive = true
			break
		}
	}

	snap := cache.Snapshot{
		Opportunities: opportunities,
		Summary:       summary,
		ComputedAt:    summary.ComputedAt,
		HasLive:       hasLive,
	}

	s.observeCycle(snap, counts)
	s.publish(ctx, snap)

	return snap, nil
}

// observeCycle updates Prometheus instruments for one completed cycle
func (s *DetectorService) observeCycle(snap cache.Snapshot, counts map[string]int) {
	if s.metrics == nil {
		return
	}
	s.metrics.CyclesTotal.Inc()
	s.metrics.CycleDuration.Observe(snap.Summary.ProcessingTime.Seconds())
	s.metrics.OpportunitiesDetected.Set(float64(len(snap.Opportunities)))
	for source, count := range counts {
		s.metrics.RecordsConsidered.WithLabelValues(source).Add(float64(count))
	}
}

// publish pushes the snapshot to the store; failures are logged, never fatal
func (s *DetectorService) publish(ctx context.Context, snap cache.Snapshot) {
	if s.store == nil {
		return
	}
	if err := s.store.PublishSnapshot(ctx, snap); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish snapshot")
	}
}

// degradedSummary is served when a cycle produced nothing usable
func degradedSummary(err error) models.DetectionSummary {
	return models.DetectionSummary{
		SourceCounts:   map[string]int{},
		Degraded:       true,
		DegradedReason: err.Error(),
		ComputedAt:     time.Now().UTC(),
	}
}

// Status describes the service for operational endpoints
type Status struct {
	CacheState     string     `json:"cache_state"`
	LastComputedAt *time.Time `json:"last_computed_at,omitempty"`
	Opportunities  int        `json:"opportunities"`
	Sources        []string   `json:"sources"`
	CycleTimeout   string     `json:"cycle_timeout"`
}

// Status reports cache state, the last computed snapshot and the running configuration
func (s *DetectorService) Status() Status {
	status := Status{
		CacheState:   string(s.cache.State()),
		Sources:      s.sources,
		CycleTimeout: s.cycleTimeout.String(),
	}
	if snap, ok := s.cache.Latest(); ok {
		status.LastComputedAt = &snap.ComputedAt
		status.Opportunities = len(snap.Opportunities)
	}
	return status
}

// Invalidate discards the cached results, forcing the next request to recompute
func (s *DetectorService) Invalidate() {
	s.cache.Invalidate()
}
