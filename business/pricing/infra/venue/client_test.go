package venue

import (
	"context"
	"errors"
	"testing"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var solBonk = domain.Pair{Base: asset.SOL, Quote: asset.BONK}

func fixed(name string, price float64, err error) Strategy {
	return NewStrategy(name, func(context.Context, domain.Pair) (float64, error) {
		return price, err
	})
}

func TestClient_FirstUsableStrategyWins(t *testing.T) {
	tests := []struct {
		name         string
		strategies   []Strategy
		wantPrice    float64
		wantStrategy string
		wantCode     apperror.Code
	}{
		{
			name:         "primary",
			strategies:   []Strategy{fixed("price", 1.5, nil), fixed("quote", 2, nil)},
			wantPrice:    1.5,
			wantStrategy: "price",
		},
		{
			name: "fallback_after_absent",
			strategies: []Strategy{
				fixed("price", 0, apperror.New(apperror.CodeQuoteAbsent)),
				fixed("quote", 2, nil),
			},
			wantPrice:    2,
			wantStrategy: "quote",
		},
		{
			name:         "zero_price_is_not_a_quote",
			strategies:   []Strategy{fixed("price", 0, nil), fixed("quote", 3, nil)},
			wantPrice:    3,
			wantStrategy: "quote",
		},
		{
			name: "all_absent",
			strategies: []Strategy{
				fixed("price", 0, apperror.New(apperror.CodeQuoteAbsent)),
				fixed("quote", 0, apperror.FromStatus(400, "quote")),
			},
			wantCode: apperror.CodeQuoteAbsent,
		},
		{
			name: "transient_surfaces_for_retry",
			strategies: []Strategy{
				fixed("price", 0, apperror.FromStatus(503, "price")),
				fixed("quote", 0, apperror.New(apperror.CodeQuoteAbsent)),
			},
			wantCode: apperror.CodeVenueServerError,
		},
		{
			name: "untyped_error_is_absent",
			strategies: []Strategy{
				fixed("price", 0, errors.New("odd shape")),
			},
			wantCode: apperror.CodeQuoteAbsent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(domain.VenueJupiter, &mockLogger{}, tt.strategies...)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			q, err := c.Fetch(context.Background(), solBonk)
			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", apperror.GetCode(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if q.Price != tt.wantPrice || q.Strategy != tt.wantStrategy {
				t.Errorf("got %v via %s, want %v via %s", q.Price, q.Strategy, tt.wantPrice, tt.wantStrategy)
			}
			if q.Venue != domain.VenueJupiter || !q.Matches(solBonk) {
				t.Errorf("quote not stamped with venue and pair: %+v", q)
			}
		})
	}
}

func TestClient_PanicIsContained(t *testing.T) {
	boom := NewStrategy("price", func(context.Context, domain.Pair) (float64, error) {
		panic("nil map")
	})
	c, err := New(domain.VenueOrca, &mockLogger{}, boom, fixed("quote", 4, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	q, err := c.Fetch(context.Background(), solBonk)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q.Price != 4 {
		t.Errorf("price = %v, want the next strategy's 4", q.Price)
	}
}

func TestClient_BreakerOpensOnTransientOnly(t *testing.T) {
	var calls int
	flaky := NewStrategy("price", func(context.Context, domain.Pair) (float64, error) {
		calls++
		return 0, apperror.FromStatus(502, "price")
	})
	c, err := New(domain.VenueMeteora, &mockLogger{}, flaky)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 8; i++ {
		_, _ = c.Fetch(context.Background(), solBonk)
	}
	if calls != 5 {
		t.Errorf("strategy calls = %d, want 5 before the breaker opens", calls)
	}
	if got := c.Breakers()["Meteora.price"]; got != "open" {
		t.Errorf("breaker state = %q, want open", got)
	}

	calls = 0
	absent := NewStrategy("price", func(context.Context, domain.Pair) (float64, error) {
		calls++
		return 0, apperror.New(apperror.CodeQuoteAbsent)
	})
	c, _ = New(domain.VenueMeteora, &mockLogger{}, absent)
	for i := 0; i < 8; i++ {
		_, _ = c.Fetch(context.Background(), solBonk)
	}
	if calls != 8 {
		t.Errorf("absent routes tripped the breaker after %d calls", calls)
	}
}

func TestNew_RequiresStrategies(t *testing.T) {
	if _, err := New(domain.VenueJupiter, &mockLogger{}); !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("err = %v, want configuration error", err)
	}
}
