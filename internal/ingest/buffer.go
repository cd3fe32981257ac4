package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// bufferKey identifies one (source, event, market, outcome) quote stream
type bufferKey struct {
	source string
	event  string
	market models.MarketKey
	label  string
}

// Buffer accumulates pushed outcome records between detection cycles and
// exposes the current contents as an OddsSource snapshot. Only the latest
// record per quote stream is kept, decided by observed_at rather than arrival
// order, so out-of-order delivery cannot roll a price back.
type Buffer struct {
	name   string
	mu     sync.Mutex
	latest map[bufferKey]models.OutcomeRecord
	logger zerolog.Logger
}

// NewBuffer creates an empty ingestion buffer
func NewBuffer(name string, logger zerolog.Logger) *Buffer {
	return &Buffer{
		name:   name,
		latest: make(map[bufferKey]models.OutcomeRecord),
		logger: logger.With().Str("component", "ingest_buffer").Logger(),
	}
}

// Add installs a record, superseding any older record for the same stream
func (b *Buffer) Add(rec models.OutcomeRecord) {
	key := bufferKey{
		source: rec.SourceID,
		event:  rec.EventName,
		market: models.NewMarketKey(rec.MarketType, rec.Line),
		label:  rec.OutcomeLabel,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.latest[key]; ok && !rec.ObservedAt.After(existing.ObservedAt) {
		return
	}
	b.latest[key] = rec
}

// Prune drops records older than maxAge and returns how many were removed.
// The freshness filter is the correctness gate; pruning only bounds memory.
func (b *Buffer) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for key, rec := range b.latest {
		if rec.ObservedAt.Before(cutoff) {
			delete(b.latest, key)
			removed++
		}
	}
	if removed > 0 {
		b.logger.Debug().Int("removed", removed).Msg("pruned stale buffered records")
	}
	return removed
}

// Len returns the number of buffered quote streams
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.latest)
}

// Name implements OddsSource
func (b *Buffer) Name() string { return b.name }

// FetchOdds implements OddsSource: it returns a snapshot of the buffer's
// current contents. The snapshot is a copy; the buffer keeps accumulating.
func (b *Buffer) FetchOdds(ctx context.Context) ([]models.OutcomeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	records := make([]models.OutcomeRecord, 0, len(b.latest))
	for _, rec := range b.latest {
		records = append(records, rec)
	}
	return records, nil
}
