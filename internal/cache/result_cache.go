package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// State is the result cache lifecycle state
type State string

const (
	StateEmpty      State = "empty"
	StateFresh      State = "fresh"
	StateStale      State = "stale"
	StateRefreshing State = "refreshing"
)

// Snapshot is one fully computed opportunity set with its summary
type Snapshot struct {
	Opportunities []models.ArbitrageOpportunity `json:"opportunities"`
	Summary       models.DetectionSummary      `json:"summary"`
	ComputedAt    time.Time                    `json:"computed_at"`
	HasLive       bool                         `json:"has_live"`
}

// RefreshFunc computes a new snapshot. It is invoked at most once at a time
// per cache instance regardless of caller concurrency.
type RefreshFunc func(ctx context.Context) (Snapshot, error)

// ResultCache holds the latest computed opportunity set. Once installed a
// snapshot is Fresh for a window that depends on whether any contributing
// event is live; past the window it is Stale and the next request triggers a
// single-flight recomputation. Concurrent callers observing Stale data wait
// on the in-flight recomputation rather than starting their own. A failed
// refresh leaves the previous snapshot in place.
type ResultCache struct {
	liveInterval     time.Duration
	prematchInterval time.Duration

	mu         sync.Mutex
	snapshot   *Snapshot
	refreshing bool

	group  singleflight.Group
	logger zerolog.Logger
	now    func() time.Time
}

// NewResultCache creates an empty result cache
func NewResultCache(liveInterval, prematchInterval time.Duration, logger zerolog.Logger) *ResultCache {
	return &ResultCache{
		liveInterval:     liveInterval,
		prematchInterval: prematchInterval,
		logger:           logger.With().Str("component", "result_cache").Logger(),
		now:              time.Now,
	}
}

// State reports the current lifecycle state
func (c *ResultCache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *ResultCache) stateLocked() State {
	if c.refreshing {
		return StateRefreshing
	}
	if c.snapshot == nil {
		return StateEmpty
	}
	if c.now().Sub(c.snapshot.ComputedAt) <= c.window(c.snapshot.HasLive) {
		return StateFresh
	}
	return StateStale
}

// window returns the freshness window: live content goes stale much sooner
func (c *ResultCache) window(hasLive bool) time.Duration {
	if hasLive {
		return c.liveInterval
	}
	return c.prematchInterval
}

// GetOrRefresh returns the cached snapshot when Fresh; otherwise it runs (or
// joins) a single-flight refresh. When the refresh fails and a previous
// snapshot exists, that snapshot is returned along with the error so the
// caller can serve degraded data.
func (c *ResultCache) GetOrRefresh(ctx context.Context, refresh RefreshFunc) (Snapshot, error) {
	c.mu.Lock()
	if c.snapshot != nil && c.stateLocked() == StateFresh {
		snap := *c.snapshot
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	result, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		// A previous flight may have refreshed between the staleness check
		// and this flight starting.
		c.mu.Lock()
		if c.snapshot != nil && c.stateLocked() == StateFresh {
			snap := *c.snapshot
			c.mu.Unlock()
			return snap, nil
		}
		c.refreshing = true
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			c.refreshing = false
			c.mu.Unlock()
		}()

		snap, err := refresh(ctx)
		if err != nil {
			return nil, err
		}
		if snap.ComputedAt.IsZero() {
			snap.ComputedAt = c.now()
		}

		c.mu.Lock()
		c.snapshot = &snap
		c.mu.Unlock()

		c.logger.Debug().
			Time("computed_at", snap.ComputedAt).
			Int("opportunities", len(snap.Opportunities)).
			Bool("has_live", snap.HasLive).
			Msg("installed refreshed snapshot")

		return snap, nil
	})

	if err != nil {
		c.mu.Lock()
		prev := c.snapshot
		c.mu.Unlock()
		if prev != nil {
			c.logger.Warn().Err(err).Msg("refresh failed, serving previous snapshot")
			return *prev, err
		}
		return Snapshot{}, err
	}

	return result.(Snapshot), nil
}

// Latest returns the current snapshot without triggering a refresh
func (c *ResultCache) Latest() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return Snapshot{}, false
	}
	return *c.snapshot, true
}

// Invalidate discards the cached snapshot, returning the cache to Empty
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
	c.logger.Debug().Msg("cache invalidated")
}
