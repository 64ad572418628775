package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/httpclient"
)

func TestSource_USDPrice(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     float64
		wantCode apperror.Code
	}{
		{name: "price", status: http.StatusOK, body: `{"solana":{"usd":151.37}}`, want: 151.37},
		{name: "missing_coin", status: http.StatusOK, body: `{}`, wantCode: apperror.CodeReferencePriceFailed},
		{name: "zero_price", status: http.StatusOK, body: `{"solana":{"usd":0}}`, wantCode: apperror.CodeReferencePriceFailed},
		{name: "rate_limited", status: http.StatusTooManyRequests, body: `{"status":{"error_code":429}}`, wantCode: apperror.CodeRateLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("ids"); got != "solana" {
					t.Errorf("ids = %q", got)
				}
				if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
					t.Errorf("vs_currencies = %q", got)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			hc, err := httpclient.NewInstrumentedClient(
				httpclient.WithProviderName("coingecko-test"),
				httpclient.WithRequestTimeout(time.Second),
			)
			if err != nil {
				t.Fatal(err)
			}

			src := New(hc, nil, srv.URL, "")
			got, err := src.USDPrice(context.Background())
			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err=%v)", apperror.GetCode(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
