package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cypherlabdev/arb-detection-service/internal/cache"
	"github.com/cypherlabdev/arb-detection-service/internal/config"
	httpHandler "github.com/cypherlabdev/arb-detection-service/internal/handler/http"
	"github.com/cypherlabdev/arb-detection-service/internal/ingest"
	"github.com/cypherlabdev/arb-detection-service/internal/metrics"
	"github.com/cypherlabdev/arb-detection-service/internal/service"
	"github.com/cypherlabdev/arb-detection-service/pkg/engine"
)

func main() {
	// Load configuration
	configPath := os.Getenv("ARB_DETECTION_CONFIG")
	if configPath == "" {
		if _, err := os.Stat("config/config.yaml"); err == nil {
			configPath = "config/config.yaml"
		}
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting arb-detection-service")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create Redis snapshot store; publishing is best-effort, so a missing
	// Redis only disables it rather than failing startup.
	var store service.SnapshotStore
	redisStore := cache.NewRedisStore(
		cache.RedisStoreConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		},
		logger,
	)
	defer redisStore.Close()

	if err := redisStore.Ping(ctx); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, snapshot publishing disabled")
	} else {
		store = redisStore
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
	}

	// Build the source registry from the configured list. Sources register
	// explicitly here; registration order never affects detection results.
	registry := ingest.NewRegistry()
	buffer := ingest.NewBuffer("kafka_buffer", logger)
	for _, name := range cfg.Ingestion.Sources {
		if err := registry.Register(ingest.NewMockSource(name)); err != nil {
			logger.Fatal().Err(err).Str("source", name).Msg("failed to register source")
		}
	}

	// Optional Kafka ingestion: records accumulate in the buffer, which
	// detection cycles drain as one more source.
	if cfg.Kafka.Enabled {
		if err := registry.Register(buffer); err != nil {
			logger.Fatal().Err(err).Msg("failed to register ingestion buffer")
		}

		ingestor := ingest.NewKafkaIngestor(
			ingest.KafkaIngestorConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.Topic,
				GroupID: cfg.Kafka.GroupID,
			},
			buffer,
			logger,
		)
		defer ingestor.Close()

		go func() {
			if err := ingestor.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka ingestor failed")
			}
		}()

		go pruneBufferLoop(ctx, buffer, cfg.Detection.PrematchMaxAge)
	}
	logger.Info().Strs("sources", registry.Names()).Msg("source registry initialized")

	// Create metrics
	registerer := prometheus.DefaultRegisterer
	m := metrics.New(registerer)

	// Create collector, engine and result cache
	collector := ingest.NewCollector(registry, cfg.Ingestion.MaxInFlight, logger)
	eng := engine.NewEngine(cfg.Detection.ToEngineConfig(), nil, logger)
	resultCache := cache.NewResultCache(
		cfg.Detection.LiveRefreshInterval,
		cfg.Detection.PrematchRefreshInterval,
		logger,
	)
	logger.Info().Msg("detection engine initialized")

	// Create detector service layer
	detectorService := service.NewDetectorService(
		collector,
		eng,
		resultCache,
		store,
		m,
		registry.Names(),
		cfg.Detection.CycleTimeout,
		logger,
	)
	logger.Info().Msg("detector service initialized")

	// Initialize HTTP handler
	arbsHandler := httpHandler.NewArbsHandler(detectorService, logger)

	// Setup HTTP server routes
	mux := http.NewServeMux()

	// Health and monitoring endpoints
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, store)
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Register API routes
	arbsHandler.RegisterRoutes(mux)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop ingestion
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// pruneBufferLoop bounds the ingestion buffer's memory; the freshness filter
// remains the correctness gate for staleness
func pruneBufferLoop(ctx context.Context, buffer *ingest.Buffer, maxAge time.Duration) {
	ticker := time.NewTicker(maxAge)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			buffer.Prune(2 * maxAge)
		}
	}
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "arb-detection").Logger()
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 if service is ready to accept traffic
func readyHandler(w http.ResponseWriter, r *http.Request, store service.SnapshotStore) {
	// The snapshot store is optional; readiness only degrades when a
	// configured store stops answering.
	if store != nil {
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Redis unavailable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
