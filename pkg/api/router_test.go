package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/lakecleaner/pkg/cleanup"
	"github.com/marmos91/lakecleaner/pkg/metrics"
	"github.com/marmos91/lakecleaner/pkg/storage"
	"github.com/marmos91/lakecleaner/pkg/storage/memory"
	"github.com/marmos91/lakecleaner/pkg/task"
	"github.com/marmos91/lakecleaner/pkg/workerpool"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	pool := workerpool.New(workerpool.Config{Workers: 1})
	pool.Start()
	t.Cleanup(func() { pool.Stop(time.Second) })

	results := cleanup.NewResultLog(4)
	h := cleanup.NewHandler(storage.Static(memory.New()), pool, cleanup.WithResultHook(results.Record))

	return NewRouter(Dependencies{
		Dispatcher: task.NewDispatcher(h),
		Results:    results,
		Pool:       pool,
	})
}

func TestRouter_Routes(t *testing.T) {
	metrics.Reset()
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"liveness", "GET", "/health", "", http.StatusOK},
		{"readiness", "GET", "/health/ready", "", http.StatusOK},
		{"root redirect", "GET", "/", "", http.StatusTemporaryRedirect},
		{"submit empty task", "POST", "/api/v1/tasks",
			`{"kind":"TABLE_CONTENT_CLEANUP","data":{"tableIdentifier":{"namespace":["db1"],"name":"t"},"paths":[]}}`,
			http.StatusOK},
		{"unknown result", "GET", "/api/v1/tasks/nope", "", http.StatusNotFound},
		{"metrics disabled", "GET", "/metrics", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouter_MetricsEnabled(t *testing.T) {
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)

	router := newTestRouter(t)
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("Expected Go runtime metrics in exposition output")
	}
}

func TestAPIConfig_ApplyDefaults(t *testing.T) {
	var cfg APIConfig
	cfg.ApplyDefaults()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.RequestTimeout != 5*time.Minute {
		t.Errorf("Expected default request timeout 5m, got %v", cfg.RequestTimeout)
	}
	if cfg.WriteTimeout < cfg.RequestTimeout {
		t.Errorf("Write timeout %v must cover request timeout %v", cfg.WriteTimeout, cfg.RequestTimeout)
	}
}
