package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/lakecleaner/internal/logger"
	"github.com/marmos91/lakecleaner/pkg/api/handlers"
	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/metrics"
	"github.com/marmos91/lakecleaner/pkg/task"
	"github.com/marmos91/lakecleaner/pkg/workerpool"
)

// Dependencies are the components the router exposes over HTTP.
type Dependencies struct {
	Dispatcher *task.Dispatcher

	// Results may be nil, in which case responses carry no per-path detail
	// and GET /api/v1/tasks/{id} is not routed.
	Results *cleanup.ResultLog

	Pool   *workerpool.Pool
	Checks map[string]handlers.Checker

	// RequestTimeout bounds each request. Zero uses 30s.
	RequestTimeout time.Duration
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout so a stuck deletion cannot hold a connection forever
//
// Routes:
//   - GET  /health           - Liveness check
//   - GET  /health/ready     - Readiness check (pool and storage checks)
//   - POST /api/v1/tasks     - Dispatch a task synchronously
//   - GET  /api/v1/tasks/{id} - Last recorded result of a task
//   - GET  /metrics          - Prometheus metrics, when enabled
func NewRouter(deps Dependencies) http.Handler {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	healthHandler := handlers.NewHealthHandler(deps.Pool, deps.Checks)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	taskHandler := handlers.NewTaskHandler(deps.Dispatcher, deps.Results)
	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Post("/", taskHandler.Submit)
		if deps.Results != nil {
			r.Get("/{id}", taskHandler.Get)
		}
	})

	if metrics.IsEnabled() {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			logger.KeyRequestID, requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("API request completed",
			logger.KeyRequestID, requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		)
	})
}
