package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string
	RedisURL    string

	LogLevel  string
	LogFormat string

	CatalogSeedFile string

	StoreRetryAttempts int
	StoreRetryBackoff  time.Duration

	OutboxRelaySchedule string
	OutboxBatchSize     int
	BusBufferSize       int

	// RNGSeed fixes the bonus draw sequence when non-zero.
	RNGSeed uint64

	// OTELEndpoint is the OTLP/gRPC collector address. Empty disables span
	// export.
	OTELEndpoint string
	MetricsPath  string
}

var envKeys = map[string]string{
	"service_name":          "SERVICE_NAME",
	"http_port":             "HTTP_PORT",
	"postgres_dsn":          "POSTGRES_DSN",
	"redis_url":             "REDIS_URL",
	"log_level":             "LOG_LEVEL",
	"log_format":            "LOG_FORMAT",
	"catalog_seed_file":     "CATALOG_SEED_FILE",
	"store_retry_attempts":  "STORE_RETRY_ATTEMPTS",
	"store_retry_backoff":   "STORE_RETRY_BACKOFF",
	"outbox_relay_schedule": "OUTBOX_RELAY_SCHEDULE",
	"outbox_batch_size":     "OUTBOX_BATCH_SIZE",
	"bus_buffer_size":       "BUS_BUFFER_SIZE",
	"rng_seed":              "RNG_SEED",
	"otel_endpoint":         "OTEL_EXPORTER_OTLP_ENDPOINT",
	"metrics_path":          "METRICS_PATH",
}

// Load reads an optional config.yaml from the working directory or ./config
// and lets environment variables override every key.
func Load() (Config, error) {
	return load(viper.New(), true)
}

func load(v *viper.Viper, readFile bool) (Config, error) {
	v.SetDefault("service_name", "contracthub")
	v.SetDefault("http_port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("store_retry_attempts", 3)
	v.SetDefault("store_retry_backoff", "25ms")
	v.SetDefault("outbox_relay_schedule", "@every 2s")
	v.SetDefault("outbox_batch_size", 100)
	v.SetDefault("bus_buffer_size", 128)
	v.SetDefault("rng_seed", 0)
	v.SetDefault("metrics_path", "/metrics")

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if readFile {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := Config{
		ServiceName:         strings.TrimSpace(v.GetString("service_name")),
		HTTPPort:            strings.TrimSpace(v.GetString("http_port")),
		PostgresDSN:         strings.TrimSpace(v.GetString("postgres_dsn")),
		RedisURL:            strings.TrimSpace(v.GetString("redis_url")),
		LogLevel:            strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:           strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
		CatalogSeedFile:     strings.TrimSpace(v.GetString("catalog_seed_file")),
		StoreRetryAttempts:  v.GetInt("store_retry_attempts"),
		StoreRetryBackoff:   v.GetDuration("store_retry_backoff"),
		OutboxRelaySchedule: strings.TrimSpace(v.GetString("outbox_relay_schedule")),
		OutboxBatchSize:     v.GetInt("outbox_batch_size"),
		BusBufferSize:       v.GetInt("bus_buffer_size"),
		RNGSeed:             v.GetUint64("rng_seed"),
		OTELEndpoint:        strings.TrimSpace(v.GetString("otel_endpoint")),
		MetricsPath:         strings.TrimSpace(v.GetString("metrics_path")),
	}
	if cfg.StoreRetryAttempts <= 0 {
		return Config{}, fmt.Errorf("STORE_RETRY_ATTEMPTS must be positive, got %d", cfg.StoreRetryAttempts)
	}
	if cfg.OutboxBatchSize <= 0 {
		return Config{}, fmt.Errorf("OUTBOX_BATCH_SIZE must be positive, got %d", cfg.OutboxBatchSize)
	}
	if cfg.BusBufferSize <= 0 {
		return Config{}, fmt.Errorf("BUS_BUFFER_SIZE must be positive, got %d", cfg.BusBufferSize)
	}
	if !strings.HasPrefix(cfg.MetricsPath, "/") {
		return Config{}, fmt.Errorf("METRICS_PATH must start with /, got %q", cfg.MetricsPath)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	return cfg, nil
}
