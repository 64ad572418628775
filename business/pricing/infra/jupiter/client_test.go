package jupiter

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/httpclient"
)

var solUSDC = domain.Pair{Base: asset.SOL, Quote: asset.USDC}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("jupiter-test"),
		httpclient.WithRequestTimeout(time.Second),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}
	return NewClient(hc, nil, Config{PriceURL: srv.URL + "/price", QuoteURL: srv.URL + "/quote"})
}

func TestClient_Price(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     float64
		wantCode apperror.Code
	}{
		{
			name:   "numeric_price",
			status: http.StatusOK,
			body:   `{"data":{"` + asset.MintSOL + `":{"id":"` + asset.MintSOL + `","price":151.25}}}`,
			want:   151.25,
		},
		{
			name:   "string_price",
			status: http.StatusOK,
			body:   `{"data":{"` + asset.MintSOL + `":{"price":"150.5"}}}`,
			want:   150.5,
		},
		{
			name:     "missing_entry",
			status:   http.StatusOK,
			body:     `{"data":{}}`,
			wantCode: apperror.CodeQuoteAbsent,
		},
		{
			name:     "garbage_price",
			status:   http.StatusOK,
			body:     `{"data":{"` + asset.MintSOL + `":{"price":"n/a"}}}`,
			wantCode: apperror.CodeQuoteAbsent,
		},
		{
			name:     "rate_limited",
			status:   http.StatusTooManyRequests,
			body:     `{}`,
			wantCode: apperror.CodeRateLimitExceeded,
		},
		{
			name:     "server_error",
			status:   http.StatusBadGateway,
			body:     `bad gateway`,
			wantCode: apperror.CodeVenueServerError,
		},
		{
			name:     "truncated_body",
			status:   http.StatusOK,
			body:     `{"data":{`,
			wantCode: apperror.CodeDecodeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSources, gotVs string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotSources = r.URL.Query().Get("sources")
				gotVs = r.URL.Query().Get("vsToken")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			got, err := c.Price(context.Background(), asset.SOL, asset.USDC, "Orca")
			if gotSources != "Orca" || gotVs != asset.MintUSDC {
				t.Errorf("query sources=%q vsToken=%q", gotSources, gotVs)
			}
			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", apperror.GetCode(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Price: %v", err)
			}
			if got != tt.want {
				t.Errorf("Price() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_RouteQuote(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     float64
		wantCode apperror.Code
	}{
		{
			name:   "normalized_by_decimals",
			status: http.StatusOK,
			body:   `{"inAmount":"1000000000","outAmount":"151234567"}`,
			want:   151.234567,
		},
		{
			name:   "uses_returned_in_amount",
			status: http.StatusOK,
			body:   `{"inAmount":"500000000","outAmount":"75617283"}`,
			want:   151.234566,
		},
		{
			name:     "zero_in_amount",
			status:   http.StatusOK,
			body:     `{"inAmount":"0","outAmount":"151234567"}`,
			wantCode: apperror.CodeQuoteAbsent,
		},
		{
			name:     "missing_amounts",
			status:   http.StatusOK,
			body:     `{"error":"Could not find any route"}`,
			wantCode: apperror.CodeQuoteAbsent,
		},
		{
			name:     "no_route_400",
			status:   http.StatusBadRequest,
			body:     `{"error":"No routes found"}`,
			wantCode: apperror.CodeQuoteAbsent,
		},
		{
			name:     "other_400",
			status:   http.StatusBadRequest,
			body:     `{"error":"invalid mint"}`,
			wantCode: apperror.CodeVenueClientError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("amount") != "1000000000" || q.Get("slippageBps") != "50" {
					t.Errorf("amount=%q slippageBps=%q", q.Get("amount"), q.Get("slippageBps"))
				}
				if q.Get("onlyDirectRoutes") != "true" || q.Get("excludeDexes") != "Raydium,Meteora" {
					t.Errorf("route params = %v", q)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			route := Route{OnlyDirect: true, ExcludeDexes: []string{"Raydium", "Meteora"}}
			got, err := c.RouteQuote(context.Background(), solUSDC, route)
			if tt.wantCode != "" {
				if apperror.GetCode(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v (err %v)", apperror.GetCode(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RouteQuote: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("RouteQuote() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrategies_Names(t *testing.T) {
	c := NewClient(nil, nil, Config{})

	var names []string
	for _, s := range c.OrcaStrategies() {
		names = append(names, s.Name())
	}
	if len(names) != 2 || names[0] != "price:Orca" || names[1] != "quote:direct" {
		t.Errorf("orca chain = %v", names)
	}
	if got := c.RaydiumQuoteStrategy().Name(); got != "quote:raydium" {
		t.Errorf("raydium fallback = %q", got)
	}
}
