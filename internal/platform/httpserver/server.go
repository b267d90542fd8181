package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	leaderboardservice "contracthub/contexts/community/leaderboard-service"
	leaderboarderrors "contracthub/contexts/community/leaderboard-service/domain/errors"
	jobservice "contracthub/contexts/progression/job-service"
	jobhttpadapter "contracthub/contexts/progression/job-service/adapters/http"
	joberrors "contracthub/contexts/progression/job-service/domain/errors"
	jobhttp "contracthub/contexts/progression/job-service/transport/http"
	rewardengine "contracthub/contexts/rewards/reward-engine"
	rewarderrors "contracthub/contexts/rewards/reward-engine/domain/errors"
	"contracthub/internal/platform/logging"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	_ "contracthub/internal/platform/httpserver/docs"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	addr        string
	jobs        jobservice.Module
	rewards     rewardengine.Module
	leaderboard leaderboardservice.Module
}

func New(
	jobs jobservice.Module,
	rewards rewardengine.Module,
	leaderboard leaderboardservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:         http.NewServeMux(),
		logger:      logger,
		addr:        addr,
		jobs:        jobs,
		rewards:     rewards,
		leaderboard: leaderboard,
	}
	s.registerRoutes()
	return s
}

// Handler returns the routed mux wrapped in request-id and tracing
// middleware.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(withTracing(s.mux))
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting",
			"event", "http_server_starting",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"addr", s.addr,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.registerJobRoutes()
	s.registerEventRoutes()
	s.registerLeaderboardRoutes()
}

// HandleMetrics mounts the scrape handler at path.
func (s *Server) HandleMetrics(path string, handler http.Handler) {
	if handler == nil {
		return
	}
	if path == "" {
		path = "/metrics"
	}
	s.mux.Handle("GET "+path, handler)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}

// withTracing continues an incoming W3C trace, if any, in a server span.
func withTracing(next http.Handler) http.Handler {
	tracer := otel.Tracer("internal/platform/httpserver")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" request",
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.String("request.id", logging.RequestIDFromContext(ctx)),
			),
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validation jobhttpadapter.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, jobhttp.ErrorResponse{
			Code:    "validation_failed",
			Message: err.Error(),
			Fields:  validation.Fields,
		})
	case errors.Is(err, joberrors.ErrTransientStore),
		errors.Is(err, rewarderrors.ErrTransientStore),
		errors.Is(err, leaderboarderrors.ErrTransientStore):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	case errors.Is(err, joberrors.ErrValidation),
		errors.Is(err, rewarderrors.ErrValidation),
		errors.Is(err, leaderboarderrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, joberrors.ErrState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, joberrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, joberrors.ErrNotFound),
		errors.Is(err, rewarderrors.ErrNotFound),
		errors.Is(err, leaderboarderrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		logging.FromContext(r.Context(), s.logger).Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, jobhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
