package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	c, err := NewInstrumentedClient(
		WithProviderName("test"),
		WithBaseURL(baseURL),
		WithRequestTimeout(time.Second),
		WithUserAgent("scanner-test"),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}
	return c
}

func TestRequest_QueryParamsAreEscaped(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("excludeDexes")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"price": 1.5}`))
	}))
	defer srv.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	_, err := newTestClient(t, srv.URL).NewRequest().
		SetQueryParam("excludeDexes", "Raydium,Orca & co").
		SetResult(&out).
		Get(context.Background(), "/quote")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if gotQuery != "Raydium,Orca & co" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotUA != "scanner-test" {
		t.Errorf("user agent = %q", gotUA)
	}
	if out.Price != 1.5 {
		t.Errorf("price = %v", out.Price)
	}
}

func TestRequest_StatusErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   apperror.Code
	}{
		{"rate limited", http.StatusTooManyRequests, apperror.CodeRateLimitExceeded},
		{"server error", http.StatusBadGateway, apperror.CodeVenueServerError},
		{"gateway timeout", http.StatusGatewayTimeout, apperror.CodeVenueTimeout},
		{"not found", http.StatusNotFound, apperror.CodeQuoteAbsent},
		{"bad request", http.StatusBadRequest, apperror.CodeVenueClientError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).
				NewRequestWithOptions(WithResponseErrorHandler(StatusErrorHandler("test"))).
				Get(context.Background(), "/")
			if got := apperror.GetCode(err); got != tt.want {
				t.Errorf("code = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequest_DecodeErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	var out map[string]any
	_, err := newTestClient(t, srv.URL).NewRequest().SetResult(&out).Get(context.Background(), "/")
	if apperror.GetCode(err) != apperror.CodeDecodeTransient {
		t.Fatalf("code = %v, want %v", apperror.GetCode(err), apperror.CodeDecodeTransient)
	}
	if !apperror.IsRetryable(err) {
		t.Error("decode errors must be retryable")
	}
}

func TestRequest_TransportTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv.URL).NewRequest().Get(ctx, "/")
	if apperror.GetCode(err) != apperror.CodeVenueTimeout {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeVenueTimeout)
	}
}
