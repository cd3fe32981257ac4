package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// snapshotKey is where the latest computed opportunity set is published for
// sibling services (alerting, dashboards) to read
const snapshotKey = "arbs:latest"

// RedisStore publishes the latest opportunity snapshot to Redis. Publishing
// is best-effort: a Redis failure never fails a detection cycle.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisStoreConfig holds Redis store configuration
type RedisStoreConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // e.g. 15 * time.Minute
}

// NewRedisStore creates a Redis snapshot store
func NewRedisStore(config RedisStoreConfig, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisStore{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_store").Logger(),
	}
}

// PublishSnapshot stores the snapshot under a TTL
func (s *RedisStore) PublishSnapshot(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := s.client.Set(ctx, snapshotKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot in Redis: %w", err)
	}

	s.logger.Debug().
		Int("opportunities", len(snap.Opportunities)).
		Dur("ttl", s.ttl).
		Msg("published opportunity snapshot")

	return nil
}

// LatestSnapshot retrieves the last published snapshot, if any
func (s *RedisStore) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no snapshot published")
	} else if err != nil {
		return nil, fmt.Errorf("failed to get snapshot from Redis: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return &snap, nil
}

// Ping checks the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
