package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

// OutcomeBatchMessage is the Kafka payload pushed by upstream normalizers
type OutcomeBatchMessage struct {
	Records   []models.OutcomeRecord `json:"records"`
	BatchID   string                 `json:"batch_id"`
	Timestamp time.Time              `json:"timestamp"`
}

// KafkaIngestor consumes normalized outcome records from Kafka and feeds them
// into an accumulating buffer that detection cycles drain as a snapshot
type KafkaIngestor struct {
	reader *kafka.Reader
	buffer *Buffer
	logger zerolog.Logger
}

// KafkaIngestorConfig holds Kafka consumer configuration
type KafkaIngestorConfig struct {
	Brokers []string // e.g. ["localhost:9092"]
	Topic   string   // e.g. "outcome_records"
	GroupID string   // e.g. "arb-detection"
}

// NewKafkaIngestor creates a Kafka ingestor writing into the given buffer
func NewKafkaIngestor(config KafkaIngestorConfig, buffer *Buffer, logger zerolog.Logger) *KafkaIngestor {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       1e3,  // 1KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &KafkaIngestor{
		reader: reader,
		buffer: buffer,
		logger: logger.With().Str("component", "kafka_ingestor").Logger(),
	}
}

// Start begins consuming messages from Kafka until ctx is canceled
func (c *KafkaIngestor) Start(ctx context.Context) error {
	c.logger.Info().
		Str("topic", c.reader.Config().Topic).
		Str("group_id", c.reader.Config().GroupID).
		Msg("started consuming outcome records from Kafka")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("stopping Kafka ingestor")
			return c.reader.Close()

		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if err == context.Canceled {
					return nil
				}
				c.logger.Error().Err(err).Msg("failed to fetch message")
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Int64("offset", msg.Offset).
					Str("key", string(msg.Key)).
					Msg("failed to process message")
				// Don't commit if processing failed
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("failed to commit message")
			}
		}
	}
}

// processMessage parses one batch and buffers its valid records
func (c *KafkaIngestor) processMessage(msg kafka.Message) error {
	var batch OutcomeBatchMessage
	if err := json.Unmarshal(msg.Value, &batch); err != nil {
		return fmt.Errorf("failed to unmarshal outcome batch: %w", err)
	}

	accepted := 0
	for _, rec := range batch.Records {
		// A price at or below 1.0 is corrupt data: exclude just that record.
		if rec.Price.LessThanOrEqual(decimal.NewFromInt(1)) {
			c.logger.Warn().
				Str("source", rec.SourceID).
				Str("event", rec.EventName).
				Str("outcome", rec.OutcomeLabel).
				Str("price", rec.Price.String()).
				Msg("dropping record with invalid price")
			continue
		}
		c.buffer.Add(rec)
		accepted++
	}

	c.logger.Debug().
		Int("received", len(batch.Records)).
		Int("accepted", accepted).
		Str("batch_id", batch.BatchID).
		Msg("buffered outcome record batch")

	return nil
}

// Close closes the Kafka reader
func (c *KafkaIngestor) Close() error {
	return c.reader.Close()
}
