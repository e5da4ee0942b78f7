package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SoilGrids endpoints and resilience.
	SoilGridsRestURL string
	SoilGridsWcsURL  string
	ElevationURL     string
	FetchTimeout     time.Duration
	WCSConcurrency   int

	// CacheDir backs the spatial cache and API health state with files;
	// empty keeps both in memory only.
	CacheDir string

	// Optional Kafka analytics sink for detection events.
	KafkaBrokers         []string
	KafkaEnabled         bool
	KafkaDetectionsTopic string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	concurrency := 4
	if s := os.Getenv("WCS_CONCURRENCY"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, errors.New("invalid WCS_CONCURRENCY")
		}
		concurrency = n
	}

	brokers := parseBrokers(envOrDefault("KAFKA_BROKERS", ""))
	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SoilGridsRestURL: envOrDefault("SOILGRIDS_REST_URL", "https://rest.isric.org/soilgrids/v2.0/properties/query"),
		SoilGridsWcsURL:  envOrDefault("SOILGRIDS_WCS_URL", "https://maps.isric.org/mapserv"),
		ElevationURL:     envOrDefault("ELEVATION_URL", "https://api.open-elevation.com/api/v1/lookup"),
		FetchTimeout:     fetchTimeout,
		WCSConcurrency:   concurrency,

		CacheDir: os.Getenv("CACHE_DIR"),

		KafkaBrokers:         brokers,
		KafkaEnabled:         kafkaEnabled,
		KafkaDetectionsTopic: envOrDefault("KAFKA_DETECTIONS_TOPIC", "soil-detections"),
	}

	if cfg.SoilGridsRestURL == "" {
		return nil, errors.New("SOILGRIDS_REST_URL is required")
	}
	if cfg.SoilGridsWcsURL == "" {
		return nil, errors.New("SOILGRIDS_WCS_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
