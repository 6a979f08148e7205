package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/lakecleaner/pkg/workerpool"
)

// Checker checks one dependency, typically a storage backend.
type Checker func(ctx context.Context) error

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	pool   *workerpool.Pool
	checks map[string]Checker
}

// NewHealthHandler creates a new health handler. pool may be nil, in which
// case readiness always fails.
func NewHealthHandler(pool *workerpool.Pool, checks map[string]Checker) *HealthHandler {
	return &HealthHandler{pool: pool, checks: checks}
}

// Liveness handles GET /health - simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "lakecleaner",
	}))
}

// CheckResult is the outcome of a single readiness check.
type CheckResult struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// ReadinessResponse is the payload of GET /health/ready.
type ReadinessResponse struct {
	Pool   *workerpool.Stats      `json:"pool,omitempty"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// Readiness handles GET /health/ready.
//
// Returns 200 when the worker pool exists and every check passes, and 503
// Service Unavailable otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData("worker pool not initialized", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats := h.pool.Stats()
	resp := ReadinessResponse{
		Pool:   &stats,
		Checks: make(map[string]CheckResult, len(h.checks)),
	}

	healthy := true
	for name, check := range h.checks {
		start := time.Now()
		if err := check(ctx); err != nil {
			healthy = false
			resp.Checks[name] = CheckResult{Status: "unhealthy", Error: err.Error()}
			continue
		}
		resp.Checks[name] = CheckResult{Status: "healthy", Latency: time.Since(start).String()}
	}

	if !healthy {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponseWithData("dependency check failed", resp))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(resp))
}
