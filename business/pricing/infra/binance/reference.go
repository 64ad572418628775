package binance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// SourceName identifies this provider in reference prices.
const SourceName = "binance"

var _ app.ReferenceSource = (*ReferenceProvider)(nil)

// ReferenceConfig holds configuration for the Binance reference provider.
type ReferenceConfig struct {
	WebSocketURL   string        // WebSocket base URL (empty = default)
	HTTPURL        string        // REST API base URL (empty = default)
	Symbol         string        // Ticker symbol, e.g. "SOLUSDT"
	StaleAfter     time.Duration // How long before stream data is considered stale
	EnableFallback bool          // Use REST when stream data is stale
}

// DefaultReferenceConfig returns sensible defaults.
func DefaultReferenceConfig() ReferenceConfig {
	return ReferenceConfig{
		Symbol:         "SOLUSDT",
		StaleAfter:     10 * time.Second,
		EnableFallback: true,
	}
}

// ReferenceProvider keeps the latest mid-price from the bookTicker stream.
type ReferenceProvider struct {
	config     ReferenceConfig
	logger     logger.LoggerInterface
	client     *Client
	httpClient *HTTPClient

	mu         sync.RWMutex
	mid        decimal.Decimal
	lastUpdate time.Time
	now        func() time.Time

	tracer trace.Tracer
}

// NewReferenceProvider creates the provider. Call Connect to start streaming;
// without a stream every lookup goes to REST.
func NewReferenceProvider(cfg ReferenceConfig, log logger.LoggerInterface) (*ReferenceProvider, error) {
	if cfg.Symbol == "" {
		cfg.Symbol = "SOLUSDT"
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Second
	}

	clientCfg := DefaultClientConfig([]string{cfg.Symbol})
	if cfg.WebSocketURL != "" {
		clientCfg.BaseURL = cfg.WebSocketURL
	}
	client, err := NewClient(clientCfg, log)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	p := &ReferenceProvider{
		config: cfg,
		logger: log,
		client: client,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}

	if cfg.EnableFallback {
		httpClient, err := NewHTTPClient(HTTPClientConfig{BaseURL: cfg.HTTPURL}, log)
		if err != nil {
			return nil, fmt.Errorf("create http client: %w", err)
		}
		p.httpClient = httpClient
	}

	client.OnBookTicker(p.handleBookTicker)
	return p, nil
}

// Name implements app.ReferenceSource.
func (p *ReferenceProvider) Name() string { return SourceName }

// Connect starts the bookTicker stream.
func (p *ReferenceProvider) Connect(ctx context.Context) error {
	return p.client.Connect(ctx)
}

// Close stops the stream.
func (p *ReferenceProvider) Close() error {
	return p.client.Close()
}

// IsConnected reports whether the stream is up.
func (p *ReferenceProvider) IsConnected() bool {
	return p.client.IsConnected()
}

// USDPrice returns the stream mid-price when fresh, otherwise the REST mid-price.
func (p *ReferenceProvider) USDPrice(ctx context.Context) (float64, error) {
	ctx, span := p.tracer.Start(ctx, "binance.usd_price",
		trace.WithAttributes(attribute.String("symbol", p.config.Symbol)),
	)
	defer span.End()

	if mid, ok := p.fresh(); ok {
		span.SetAttributes(attribute.String("source", "websocket"))
		return mid.InexactFloat64(), nil
	}

	if p.httpClient == nil {
		return 0, apperror.New(apperror.CodeReferencePriceFailed,
			apperror.WithContext(fmt.Sprintf("no fresh %s ticker", p.config.Symbol)))
	}

	p.logger.Debug(ctx, "stream data stale, using HTTP fallback", "symbol", p.config.Symbol)
	span.SetAttributes(attribute.String("source", "http_fallback"))

	event, err := p.httpClient.GetBookTicker(ctx, p.config.Symbol)
	if err != nil {
		span.RecordError(err)
		return 0, apperror.New(apperror.CodeReferencePriceFailed,
			apperror.WithContext(p.config.Symbol),
			apperror.WithCause(err))
	}
	mid, err := event.Mid()
	if err != nil {
		return 0, apperror.New(apperror.CodeReferencePriceFailed,
			apperror.WithContext(p.config.Symbol),
			apperror.WithCause(err))
	}

	p.store(mid)
	return mid.InexactFloat64(), nil
}

func (p *ReferenceProvider) handleBookTicker(e *BookTickerEvent) {
	mid, err := e.Mid()
	if err != nil {
		p.logger.Debug(context.Background(), "ignoring book ticker", "symbol", e.Symbol, "error", err.Error())
		return
	}
	p.store(mid)
}

func (p *ReferenceProvider) store(mid decimal.Decimal) {
	p.mu.Lock()
	p.mid = mid
	p.lastUpdate = p.now()
	p.mu.Unlock()
}

func (p *ReferenceProvider) fresh() (decimal.Decimal, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastUpdate.IsZero() || p.now().Sub(p.lastUpdate) > p.config.StaleAfter {
		return decimal.Zero, false
	}
	return p.mid, true
}
