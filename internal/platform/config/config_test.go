package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "contracthub" || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected identity defaults: %+v", cfg)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected log defaults: %+v", cfg)
	}
	if cfg.StoreRetryAttempts != 3 || cfg.StoreRetryBackoff != 25*time.Millisecond {
		t.Fatalf("unexpected retry defaults: %+v", cfg)
	}
	if cfg.OutboxRelaySchedule != "@every 2s" || cfg.OutboxBatchSize != 100 || cfg.RNGSeed != 0 {
		t.Fatalf("unexpected worker defaults: %+v", cfg)
	}
	if cfg.OTELEndpoint != "" || cfg.MetricsPath != "/metrics" || cfg.BusBufferSize != 128 {
		t.Fatalf("unexpected observability defaults: %+v", cfg)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", " 9090 ")
	t.Setenv("POSTGRES_DSN", "postgres://app@localhost/contracthub")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "Text")
	t.Setenv("STORE_RETRY_ATTEMPTS", "5")
	t.Setenv("STORE_RETRY_BACKOFF", "100ms")
	t.Setenv("RNG_SEED", "42")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	cfg, err := load(viper.New(), false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "9090" || cfg.PostgresDSN != "postgres://app@localhost/contracthub" {
		t.Fatalf("unexpected connection settings: %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "text" {
		t.Fatalf("unexpected log settings: %+v", cfg)
	}
	if cfg.StoreRetryAttempts != 5 || cfg.StoreRetryBackoff != 100*time.Millisecond || cfg.RNGSeed != 42 {
		t.Fatalf("unexpected retry settings: %+v", cfg)
	}
	if cfg.OTELEndpoint != "otel-collector:4317" {
		t.Fatalf("expected OTELEndpoint otel-collector:4317, got %s", cfg.OTELEndpoint)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "log format", key: "LOG_FORMAT", value: "xml"},
		{name: "retry attempts", key: "STORE_RETRY_ATTEMPTS", value: "0"},
		{name: "batch size", key: "OUTBOX_BATCH_SIZE", value: "-1"},
		{name: "metrics path", key: "METRICS_PATH", value: "metrics"},
		{name: "bus buffer", key: "BUS_BUFFER_SIZE", value: "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := load(viper.New(), false); err == nil {
				t.Fatalf("expected %s=%s to be rejected", tc.key, tc.value)
			}
		})
	}
}
