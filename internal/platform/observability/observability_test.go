package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func shutdownWithin(t *testing.T, shutdown func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestInitMetricsServesCustomCounter(t *testing.T) {
	handler, shutdown, err := InitMetrics()
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer shutdownWithin(t, shutdown)

	counter, err := otel.Meter("contracthub-test").Int64Counter("contracthub_test_approvals")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	counter.Add(context.Background(), 7)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "contracthub_test_approvals") || !strings.Contains(body, " 7") {
		t.Fatalf("expected custom counter in scrape, got:\n%s", body)
	}
}

func TestInitMetricsTwice(t *testing.T) {
	for i := 0; i < 2; i++ {
		_, shutdown, err := InitMetrics()
		if err != nil {
			t.Fatalf("init %d: %v", i, err)
		}
		shutdownWithin(t, shutdown)
	}
}

func TestInitTracerWithoutCollector(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "contracthub", "")
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if shutdown == nil {
		t.Fatal("expected shutdown function to be non-nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown: %v", err)
	}
	if otel.GetTextMapPropagator() == nil {
		t.Fatal("expected propagator to be installed")
	}
}

func TestInitTracerLazyCollector(t *testing.T) {
	// gRPC dials lazily, so an unreachable collector does not fail init.
	shutdown, err := InitTracer(context.Background(), "contracthub", "localhost:4317")
	if err != nil {
		t.Logf("InitTracer returned error (may be expected in test environment): %v", err)
		return
	}
	shutdownWithin(t, shutdown)
}
