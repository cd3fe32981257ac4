package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// Collector fetches the current odds from every registered source
// concurrently, bounded by a maximum in-flight count. Each fetch is
// independent: a failing source is captured, logged and excluded from the
// batch rather than aborting the cycle.
type Collector struct {
	registry    *Registry
	maxInFlight int
	logger      zerolog.Logger
}

// NewCollector creates a collector over the given registry
func NewCollector(registry *Registry, maxInFlight int, logger zerolog.Logger) *Collector {
	if maxInFlight < 1 {
		maxInFlight = 1
	}
	return &Collector{
		registry:    registry,
		maxInFlight: maxInFlight,
		logger:      logger.With().Str("component", "collector").Logger(),
	}
}

// Collect gathers one discrete snapshot of records for a detection cycle and
// returns it together with per-source record counts. It only errors when no
// sources are registered; per-source failures show up as a zero count.
func (c *Collector) Collect(ctx context.Context) ([]models.OutcomeRecord, map[string]int, error) {
	sources := c.registry.Sources()
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no odds sources registered")
	}

	started := time.Now()

	// Each source fetches into its own slot; the batch is flattened in
	// registry (sorted name) order afterwards so goroutine scheduling cannot
	// change the order the engine sees.
	var mu sync.Mutex
	perSource := make([][]models.OutcomeRecord, len(sources))
	counts := make(map[string]int, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxInFlight)

	for i, src := range sources {
		g.Go(func() error {
			records, err := src.FetchOdds(ctx)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Str("source", src.Name()).
					Msg("source fetch failed, excluded from batch")
				mu.Lock()
				counts[src.Name()] = 0
				mu.Unlock()
				return nil // isolation: never abort the cycle for one source
			}
			mu.Lock()
			perSource[i] = records
			counts[src.Name()] = len(records)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	batch := make([]models.OutcomeRecord, 0, 64)
	for _, records := range perSource {
		batch = append(batch, records...)
	}

	c.logger.Debug().
		Int("sources", len(sources)).
		Int("records", len(batch)).
		Dur("took", time.Since(started)).
		Msg("collected odds snapshot")

	return batch, counts, nil
}
