package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, args ...any)          {}
func (mockLogger) Info(ctx context.Context, msg string, args ...any)           {}
func (mockLogger) Warn(ctx context.Context, msg string, args ...any)           {}
func (mockLogger) Error(ctx context.Context, msg string, args ...any)          {}
func (mockLogger) Debugc(ctx context.Context, c int, msg string, args ...any) {}
func (mockLogger) Infoc(ctx context.Context, c int, msg string, args ...any)  {}
func (mockLogger) Warnc(ctx context.Context, c int, msg string, args ...any)  {}
func (mockLogger) Errorc(ctx context.Context, c int, msg string, args ...any) {}

func serve(s *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		historyErr error
		breakers   map[string]string
		wantCode   int
		wantStatus string
	}{
		{
			name:       "healthy",
			breakers:   map[string]string{"jupiter/price": "closed", "raydium/pool": "half-open"},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "store_down",
			historyErr: errors.New("connection refused"),
			breakers:   map[string]string{"jupiter/price": "closed"},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
		{
			name:       "breaker_open",
			breakers:   map[string]string{"orca/price": "open"},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, "v1", mockLogger{})
			s.RegisterCheck("history", PingCheck(func(context.Context) error { return tt.historyErr }))
			s.RegisterCheck("venues", BreakerCheck(func() map[string]string { return tt.breakers }))

			rec := serve(s, "/health")
			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}

			var status Status
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if status.Status != tt.wantStatus || status.Version != "v1" || len(status.Checks) != 2 {
				t.Errorf("status = %+v", status)
			}

			ready := serve(s, "/ready")
			if ready.Code != tt.wantCode {
				t.Errorf("/ready code = %d, want %d", ready.Code, tt.wantCode)
			}
		})
	}
}

func TestLive(t *testing.T) {
	s := NewServer(0, "v1", mockLogger{})
	s.RegisterCheck("history", PingCheck(func(context.Context) error { return errors.New("down") }))

	if rec := serve(s, "/live"); rec.Code != http.StatusOK || rec.Body.String() != "alive" {
		t.Errorf("/live = %d %q", rec.Code, rec.Body.String())
	}
}

func TestBreakerCheck_Message(t *testing.T) {
	ok, msg := BreakerCheck(func() map[string]string {
		return map[string]string{"b": "closed", "a": "open"}
	})(context.Background())

	if ok {
		t.Error("open breaker must fail the check")
	}
	if msg != "a=open b=closed" {
		t.Errorf("message = %q", msg)
	}
}
