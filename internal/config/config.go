package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported DATABASE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	APIPrefix       string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	DatabaseDriver string
	DatabaseURL    string

	// Change feed. Publishing is skipped entirely when KafkaEnabled is false.
	KafkaEnabled       bool
	KafkaBrokers       []string
	KafkaTopic         string
	BatchSize          int
	BatchFlushInterval time.Duration
	// ChangeQueueSize bounds the events buffered ahead of the publisher.
	ChangeQueueSize int

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	maxBody, err := parsePositiveInt64("MAX_BODY_BYTES", 1<<20)
	if err != nil {
		return nil, err
	}

	queueSize, err := parsePositiveInt64("CHANGE_QUEUE_SIZE", 1024)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		APIPrefix:       normalizePrefix(sharedcfg.EnvOrDefault("API_PREFIX", "/anuga/api")),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MaxBodyBytes:    maxBody,

		DatabaseDriver: sharedcfg.EnvOrDefault("DATABASE_DRIVER", DriverSQLite),
		DatabaseURL:    sharedcfg.EnvOrDefault("DATABASE_URL", "file:hydrology.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),

		KafkaEnabled:       sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "hydrology-record-changes"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		ChangeQueueSize:    int(queueSize),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	switch cfg.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// normalizePrefix yields "/anuga/api" style prefixes: one leading slash, no trailing slash.
func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func parsePositiveInt64(key string, def int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
