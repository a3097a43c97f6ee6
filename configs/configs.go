// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables; a .env file is honoured for local runs.
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportHTTP = "http"
	TransportWS   = "ws"

	// MaxTradeCount is the largest page Deribit serves for a trades-by-time query.
	MaxTradeCount = 1000
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad() and hand the pieces to each component.
type AppConfig struct {
	// LogLevel is a logrus level name (debug, info, warn, ...).
	LogLevel string

	// Deribit contains exchange connection settings.
	Deribit DeribitConfig

	// Collector contains what to collect and how often.
	Collector CollectorConfig

	// Storage contains the artifact tree location.
	Storage StorageConfig

	// Kafka contains settings for publishing combined records.
	Kafka KafkaConfig
}

// DeribitConfig holds exchange connection settings.
// Only public endpoints are called, so no credentials are kept.
type DeribitConfig struct {
	// BaseURL is the REST API root (e.g., "https://www.deribit.com/api/v2").
	BaseURL string

	// WSURL is the JSON-RPC websocket endpoint.
	WSURL string

	// Transport selects how requests are issued: "http" or "ws".
	Transport string

	// RequestsPerSecond bounds the outgoing request rate.
	RequestsPerSecond float64

	// RequestTimeout bounds a single request round trip.
	RequestTimeout time.Duration
}

// CollectorConfig holds collection parameters.
type CollectorConfig struct {
	// Instrument is the tradable symbol (e.g., "BTC-PERPETUAL").
	Instrument string

	// Depth is the number of price levels requested per side.
	Depth int

	// Interval is the pause between two successful cycles.
	Interval time.Duration

	// Duration is how long the scheduler keeps running.
	Duration time.Duration

	// TradeLookback is the trade window size ending at the cycle time.
	TradeLookback time.Duration

	// TradeCount is the maximum number of trades requested per window.
	TradeCount int

	// IncludeTrades toggles the trade and combine steps.
	IncludeTrades bool

	// RecoveryDelay is the pause after a failed cycle. Must be shorter than Interval.
	RecoveryDelay time.Duration

	// RecoveryMaxDelay caps the recovery pause when RecoveryMultiplier > 1. Must be shorter than Interval then.
	RecoveryMaxDelay time.Duration

	// RecoveryMultiplier grows the recovery pause on consecutive failures. 1 keeps it fixed.
	RecoveryMultiplier float64
}

// StorageConfig holds filesystem settings.
type StorageConfig struct {
	// BaseDir holds the orderbook, trades and combined subdirectories.
	BaseDir string
}

// KafkaConfig holds Kafka connection settings.
type KafkaConfig struct {
	// Enabled turns on publishing of combined records.
	Enabled bool

	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic receives one message per combined record.
	Topic string
}

// AppLoad loads all application configuration from environment variables
// and validates it.
func AppLoad() (*AppConfig, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Load reads the configuration without validating it, for callers that apply
// overrides (e.g. command line flags) before calling Validate.
// It attempts to load a .env file first (for local development).
func Load() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Deribit: DeribitConfig{
			BaseURL:           getEnv("DERIBIT_BASE_URL", "https://www.deribit.com/api/v2"),
			WSURL:             getEnv("DERIBIT_WS_URL", "wss://www.deribit.com/ws/api/v2"),
			Transport:         strings.ToLower(getEnv("DERIBIT_TRANSPORT", TransportHTTP)),
			RequestsPerSecond: getEnvFloat("DERIBIT_REQUESTS_PER_SECOND", 5),
			RequestTimeout:    getEnvDuration("DERIBIT_REQUEST_TIMEOUT", 10*time.Second),
		},
		Collector: CollectorConfig{
			Instrument:         getEnv("INSTRUMENT", "BTC-PERPETUAL"),
			Depth:              getEnvInt("ORDERBOOK_DEPTH", 15),
			Interval:           getEnvDuration("COLLECT_INTERVAL", 5*time.Minute),
			Duration:           getEnvDuration("COLLECT_DURATION", 24*time.Hour),
			TradeLookback:      getEnvDuration("TRADE_LOOKBACK", 5*time.Minute),
			TradeCount:         getEnvInt("TRADE_COUNT", MaxTradeCount),
			IncludeTrades:      getEnvBool("INCLUDE_TRADES", true),
			RecoveryDelay:      getEnvDuration("RECOVERY_DELAY", 30*time.Second),
			RecoveryMaxDelay:   getEnvDuration("RECOVERY_MAX_DELAY", 2*time.Minute),
			RecoveryMultiplier: getEnvFloat("RECOVERY_MULTIPLIER", 1),
		},
		Storage: StorageConfig{
			BaseDir: getEnv("DATA_DIR", "deribit_data"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "deribit_combined"),
		},
	}
}

// Validate checks the values AppLoad produced (or a hand-built config in tests).
func (c *AppConfig) Validate() error {
	if c.Deribit.Transport != TransportHTTP && c.Deribit.Transport != TransportWS {
		return fmt.Errorf("DERIBIT_TRANSPORT must be %q or %q, got %q", TransportHTTP, TransportWS, c.Deribit.Transport)
	}
	if c.Deribit.RequestsPerSecond <= 0 {
		return fmt.Errorf("DERIBIT_REQUESTS_PER_SECOND must be positive, got %v", c.Deribit.RequestsPerSecond)
	}
	if c.Deribit.RequestTimeout <= 0 {
		return fmt.Errorf("DERIBIT_REQUEST_TIMEOUT must be positive")
	}

	col := c.Collector
	if strings.TrimSpace(col.Instrument) == "" {
		return fmt.Errorf("INSTRUMENT is required")
	}
	if col.Depth <= 0 {
		return fmt.Errorf("ORDERBOOK_DEPTH must be positive, got %d", col.Depth)
	}
	if col.Interval <= 0 {
		return fmt.Errorf("COLLECT_INTERVAL must be positive")
	}
	if col.Duration <= 0 {
		return fmt.Errorf("COLLECT_DURATION must be positive")
	}
	if col.TradeLookback <= 0 {
		return fmt.Errorf("TRADE_LOOKBACK must be positive")
	}
	if col.TradeCount < 1 || col.TradeCount > MaxTradeCount {
		return fmt.Errorf("TRADE_COUNT must be within 1..%d, got %d", MaxTradeCount, col.TradeCount)
	}
	if col.RecoveryDelay <= 0 || col.RecoveryDelay >= col.Interval {
		return fmt.Errorf("RECOVERY_DELAY must be positive and shorter than COLLECT_INTERVAL")
	}
	if col.RecoveryMultiplier < 1 {
		return fmt.Errorf("RECOVERY_MULTIPLIER must be >= 1, got %v", col.RecoveryMultiplier)
	}
	if col.RecoveryMultiplier > 1 && col.RecoveryMaxDelay >= col.Interval {
		return fmt.Errorf("RECOVERY_MAX_DELAY must be shorter than COLLECT_INTERVAL when RECOVERY_MULTIPLIER > 1")
	}

	if strings.TrimSpace(c.Storage.BaseDir) == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Kafka.Enabled && (c.Kafka.Broker == "" || c.Kafka.Topic == "") {
		return fmt.Errorf("KAFKA_BROKER and KAFKA_TOPIC are required when KAFKA_ENABLED is set")
	}
	return nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvDuration accepts Go duration strings ("30s", "5m").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
