package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marmos91/lakecleaner/pkg/workerpool"
)

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, nil)
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}
	if data["service"] != "lakecleaner" {
		t.Errorf("Expected service 'lakecleaner', got '%v'", data["service"])
	}
}

func TestReadiness_NoPool_Returns503(t *testing.T) {
	handler := NewHealthHandler(nil, nil)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Error != "worker pool not initialized" {
		t.Errorf("Expected error 'worker pool not initialized', got '%s'", resp.Error)
	}
}

func TestReadiness_ChecksPass_ReturnsOK(t *testing.T) {
	pool := workerpool.New(workerpool.Config{Workers: 2})
	handler := NewHealthHandler(pool, map[string]Checker{
		"storage": func(context.Context) error { return nil },
	})
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		Status string            `json:"status"`
		Data   ReadinessResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Data.Pool == nil || resp.Data.Pool.Workers != 2 {
		t.Errorf("Expected pool stats with 2 workers, got %+v", resp.Data.Pool)
	}
	if resp.Data.Checks["storage"].Status != "healthy" {
		t.Errorf("Expected storage check healthy, got %+v", resp.Data.Checks["storage"])
	}
}

func TestReadiness_CheckFails_Returns503(t *testing.T) {
	pool := workerpool.New(workerpool.Config{Workers: 1})
	handler := NewHealthHandler(pool, map[string]Checker{
		"storage": func(context.Context) error { return errors.New("bucket unreachable") },
	})
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp struct {
		Status string            `json:"status"`
		Data   ReadinessResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got '%s'", resp.Status)
	}
	if resp.Data.Checks["storage"].Error != "bucket unreachable" {
		t.Errorf("Expected check error to be reported, got %+v", resp.Data.Checks["storage"])
	}
}
