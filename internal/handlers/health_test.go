package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeDependency struct {
	err error
}

func (f *fakeDependency) HealthCheck(ctx context.Context) error {
	return f.err
}

func TestHealthChecker_BasicMode(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want %q", resp.Status, "healthy")
	}
	if resp.Checks != nil {
		t.Errorf("basic mode should not report checks, got %v", resp.Checks)
	}
}

func TestHealthChecker_ExtendedMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cache      DependencyChecker
		queue      DependencyChecker
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all dependencies healthy",
			cache:      &fakeDependency{},
			queue:      &fakeDependency{},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{"cache": "healthy", "queue": "healthy"},
		},
		{
			name:       "cache unhealthy",
			cache:      &fakeDependency{err: errors.New("connection refused")},
			queue:      &fakeDependency{},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"cache": "unhealthy: connection refused", "queue": "healthy"},
		},
		{
			name:       "queue unhealthy",
			cache:      &fakeDependency{},
			queue:      &fakeDependency{err: errors.New("channel closed")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"cache": "healthy", "queue": "unhealthy: channel closed"},
		},
		{
			name:       "unconfigured dependencies skipped",
			cache:      nil,
			queue:      nil,
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthCheckerWithDeps(nil, tt.cache, tt.queue)
			req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
			rec := httptest.NewRecorder()

			h.HealthCheck(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}

			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, tt.wantStatus)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks = %v, want %v", resp.Checks, tt.wantChecks)
			}
			for k, want := range tt.wantChecks {
				got, ok := resp.Checks[k]
				if !ok {
					t.Errorf("missing check %q", k)
					continue
				}
				if !strings.HasPrefix(got, want) {
					t.Errorf("check[%s] = %q, want prefix %q", k, got, want)
				}
			}
		})
	}
}
