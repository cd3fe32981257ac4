package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/cypherlabdev/arb-detection-service/pkg/engine"
)

// Config holds all configuration for arb-detection-service
type Config struct {
	Server    ServerConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Detection DetectionConfig
	Ingestion IngestionConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds Kafka configuration for the odds ingestion topic
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"` // topic carrying normalized outcome records
	GroupID string   `mapstructure:"group_id"`
}

// RedisConfig holds Redis snapshot store configuration
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// DetectionConfig holds the engine and cache parameters
type DetectionConfig struct {
	FuzzyThreshold          float64       `mapstructure:"fuzzy_threshold"`           // 0-100 token-set similarity floor
	StartTimeTolerance      time.Duration `mapstructure:"start_time_tolerance"`      // pre-match scheduled-start skew tolerance
	LiveMaxAge              time.Duration `mapstructure:"live_max_age"`              // staleness cutoff for live events
	PrematchMaxAge          time.Duration `mapstructure:"prematch_max_age"`          // staleness cutoff for pre-match events
	MinArbPercentage        float64       `mapstructure:"min_arb_percentage"`        // minimum profit percentage to keep
	DefaultBankroll         float64       `mapstructure:"default_bankroll"`          // stake basis when no bankroll is supplied
	LiveRefreshInterval     time.Duration `mapstructure:"live_refresh_interval"`     // cache freshness window with live events
	PrematchRefreshInterval time.Duration `mapstructure:"prematch_refresh_interval"` // cache freshness window, pre-match only
	CycleTimeout            time.Duration `mapstructure:"cycle_timeout"`             // overall budget for one detection cycle
}

// IngestionConfig bounds concurrent odds collection
type IngestionConfig struct {
	MaxInFlight int      `mapstructure:"max_in_flight"` // maximum concurrent source fetches
	Sources     []string `mapstructure:"sources"`       // fixed source list built into the registry at startup
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "outcome_records")
	v.SetDefault("kafka.group_id", "arb-detection")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 15*time.Minute)

	v.SetDefault("detection.fuzzy_threshold", 82.0)
	v.SetDefault("detection.start_time_tolerance", 15*time.Minute)
	v.SetDefault("detection.live_max_age", 30*time.Second)
	v.SetDefault("detection.prematch_max_age", 300*time.Second)
	v.SetDefault("detection.min_arb_percentage", 0.5)
	v.SetDefault("detection.default_bankroll", 1000.0)
	v.SetDefault("detection.live_refresh_interval", 30*time.Second)
	v.SetDefault("detection.prematch_refresh_interval", 300*time.Second)
	v.SetDefault("detection.cycle_timeout", 45*time.Second)

	v.SetDefault("ingestion.max_in_flight", 4)
	v.SetDefault("ingestion.sources", []string{"mock_alpha", "mock_beta", "mock_gamma"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("ARB_DETECTION")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal to struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// ToEngineConfig converts detection settings to engine parameters
func (c *DetectionConfig) ToEngineConfig() engine.Config {
	return engine.Config{
		Matcher: engine.MatcherConfig{
			SimilarityThreshold: c.FuzzyThreshold,
			StartTimeTolerance:  c.StartTimeTolerance,
		},
		Freshness: engine.FreshnessConfig{
			LiveMaxAge:     c.LiveMaxAge,
			PrematchMaxAge: c.PrematchMaxAge,
		},
		MinProfitPercentage: decimal.NewFromFloat(c.MinArbPercentage),
		DefaultBankroll:     decimal.NewFromFloat(c.DefaultBankroll),
	}
}
