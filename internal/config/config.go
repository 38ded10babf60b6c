package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const maxDecodeWorkers = 64

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputDir      string
	InputPattern  string
	CatalogPath   string
	SiteTablePath string
	SiteCacheSize int
	DecodeWorkers int
	RenderDir     string

	KafkaBrokers    []string
	KafkaSinkTopic  string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	workers, err := parsePositiveInt("DECODE_WORKERS", 4, maxDecodeWorkers)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("SITE_CACHE_SIZE", 256, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputDir:      sharedcfg.EnvOrDefault("INPUT_DIR", "data/incoming"),
		InputPattern:  sharedcfg.EnvOrDefault("INPUT_PATTERN", "*"),
		CatalogPath:   sharedcfg.EnvOrDefault("CATALOG_PATH", "radar-etl.db"),
		SiteTablePath: os.Getenv("SITE_TABLE_PATH"),
		SiteCacheSize: cacheSize,
		DecodeWorkers: workers,
		RenderDir:     os.Getenv("RENDER_DIR"),

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "radar-volumes"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.InputDir == "" {
		return nil, errors.New("INPUT_DIR is required")
	}
	if _, err := filepath.Match(cfg.InputPattern, ""); err != nil {
		return nil, fmt.Errorf("invalid INPUT_PATTERN: %w", err)
	}
	if cfg.CatalogPath == "" {
		return nil, errors.New("CATALOG_PATH is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// parsePositiveInt reads an integer env var that must be at least 1 and, when
// upper is non-zero, at most upper.
func parsePositiveInt(key string, fallback, upper int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || (upper > 0 && n > upper) {
		if upper > 0 {
			return 0, fmt.Errorf("invalid %s: must be between 1 and %d", key, upper)
		}
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}
