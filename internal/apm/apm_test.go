package apm

import (
	"context"
	"errors"
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

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders("x-honeycomb-team=abc, api-key=k=v ,broken,=empty")
	if len(got) != 2 {
		t.Fatalf("headers = %v", got)
	}
	if got["x-honeycomb-team"] != "abc" || got["api-key"] != "k=v" {
		t.Errorf("headers = %v", got)
	}
}

func TestNewTraceProvider_None(t *testing.T) {
	for _, p := range []Provider{"", EmptyProvider} {
		tp, err := NewTraceProvider(context.Background(), Config{Provider: p}, mockLogger{})
		if err != nil {
			t.Fatalf("provider %q: %v", p, err)
		}
		if err := tp.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	}
}

func TestNewTraceProvider_Unknown(t *testing.T) {
	if _, err := NewTraceProvider(context.Background(), Config{Provider: "jaeger"}, mockLogger{}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewTraceProvider_Stdout(t *testing.T) {
	tp, err := NewTraceProvider(context.Background(), Config{Provider: StdoutProvider, ServiceName: "test"}, mockLogger{})
	if err != nil {
		t.Fatalf("NewTraceProvider: %v", err)
	}
	defer tp.Stop()

	_, span := NewTracer("apm-test").StartSpan(context.Background(), "op")
	span.NoticeError(errors.New("boom"))
	span.End()
}
