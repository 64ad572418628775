package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/httpclient"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

const (
	// Binance REST API endpoints
	BaseAPIURL   = "https://api.binance.com"
	BaseAPIURLUS = "https://api.binance.us"

	bookTickerEndpoint = "/api/v3/ticker/bookTicker"

	httpTimeout = 10 * time.Second
)

// HTTPClientConfig holds configuration for the Binance HTTP client.
type HTTPClientConfig struct {
	BaseURL string        // API base URL (empty = default)
	Timeout time.Duration // Request timeout
}

// HTTPClient provides Binance REST access for when the stream is stale.
type HTTPClient struct {
	client httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewHTTPClient creates a new Binance HTTP client.
func NewHTTPClient(cfg HTTPClientConfig, log logger.LoggerInterface) (*HTTPClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = httpTimeout
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest, httpclient.TraceResponse),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &HTTPClient{
		client: client,
		logger: log,
		tracer: tracer,
	}, nil
}

// GetBookTicker fetches the best bid and ask for symbol.
func (c *HTTPClient) GetBookTicker(ctx context.Context, symbol string) (*BookTickerEvent, error) {
	ctx, span := c.tracer.Start(ctx, "binance.http.get_book_ticker",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	var result BookTickerResponse
	_, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "bookTicker"),
			httpclient.NewLabel("symbol", symbol),
		),
		httpclient.WithResponseErrorHandler(binanceErrorHandler),
	).
		SetQueryParam("symbol", symbol).
		SetResult(&result).
		Get(ctx, bookTickerEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	c.logger.Debug(ctx, "fetched book ticker via HTTP",
		"symbol", symbol,
		"bid", result.BidPrice,
		"ask", result.AskPrice)

	return result.ToEvent(), nil
}

// BinanceAPIError represents an error response from Binance API.
type BinanceAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

func (e *BinanceAPIError) Error() string {
	return fmt.Sprintf("binance API error %d: %s", e.Code, e.Message)
}

// binanceErrorHandler classifies the status and keeps the API's own error as the cause.
func binanceErrorHandler(statusCode int, body []byte) error {
	appErr := apperror.FromStatus(statusCode, "binance")
	if appErr == nil {
		return nil
	}
	var apiErr BinanceAPIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return apperror.New(appErr.Code,
			apperror.WithContext("binance"),
			apperror.WithStatusCode(statusCode),
			apperror.WithCause(&apiErr))
	}
	return appErr
}
