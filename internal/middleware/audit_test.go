package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		handlerStatus int
		forwardedFor  string
		wantEvent     string
		wantIP        string
	}{
		{
			name:          "unauthorized logs security event",
			handlerStatus: http.StatusUnauthorized,
			forwardedFor:  "203.0.113.7",
			wantEvent:     "security_event",
			wantIP:        "203.0.113.7",
		},
		{
			name:          "forbidden logs security event",
			handlerStatus: http.StatusForbidden,
			forwardedFor:  "203.0.113.7, 10.0.0.1",
			wantEvent:     "security_event",
			wantIP:        "203.0.113.7",
		},
		{
			name:          "rate limited logs violation",
			handlerStatus: http.StatusTooManyRequests,
			wantEvent:     "rate_limit_violation",
		},
		{
			name:          "success logs nothing",
			handlerStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})
			wrapped := Audit(zap.New(core))(handler)

			req := httptest.NewRequest("GET", "/api/v1/meals", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			if tt.forwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.forwardedFor)
			}
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}

			if tt.wantEvent == "" {
				if logs.Len() != 0 {
					t.Fatalf("Expected no log entries, got %d", logs.Len())
				}
				return
			}

			entries := logs.FilterMessage(tt.wantEvent).All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 %q entry, got %d", tt.wantEvent, len(entries))
			}
			if tt.wantIP != "" {
				fields := entries[0].ContextMap()
				if got := fields["ip"]; got != tt.wantIP {
					t.Errorf("Expected ip %q, got %v", tt.wantIP, got)
				}
			}
		})
	}
}
