package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
	"github.com/fd1az/dex-arbitrage-scanner/internal/wsconn"
)

const (
	tracerName = "binance"
	meterName  = "binance"

	// Binance WebSocket endpoints
	BaseWSURL     = "wss://stream.binance.com:9443"
	DataStreamURL = "wss://data-stream.binance.vision"
)

var errEmptyBook = errors.New("binance: empty book side")

// ClientConfig holds configuration for the Binance stream client.
type ClientConfig struct {
	BaseURL      string        // WebSocket base URL
	Symbols      []string      // Symbols to subscribe (e.g., "SOLUSDT")
	ReadTimeout  time.Duration // Read timeout
	WriteTimeout time.Duration // Write timeout
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(symbols []string) ClientConfig {
	return ClientConfig{
		BaseURL:      BaseWSURL,
		Symbols:      symbols,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// clientMetrics holds OTEL metric instruments.
type clientMetrics struct {
	messagesReceived metric.Int64Counter
	parseErrors      metric.Int64Counter
}

// Client subscribes to bookTicker streams.
type Client struct {
	config ClientConfig
	logger logger.LoggerInterface

	conn   *wsconn.Client
	connMu sync.RWMutex

	onBookTicker func(*BookTickerEvent)
	handlersMu   sync.RWMutex

	tracer  trace.Tracer
	metrics *clientMetrics
}

// NewClient creates a new Binance WebSocket client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	c := &Client{
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.messagesReceived, err = meter.Int64Counter(
		"binance_messages_total",
		metric.WithDescription("Total messages received"),
	)
	if err != nil {
		return err
	}

	c.metrics.parseErrors, err = meter.Int64Counter(
		"binance_parse_errors_total",
		metric.WithDescription("Message parse errors"),
	)
	if err != nil {
		return err
	}

	return nil
}

// OnBookTicker registers a handler for book ticker events.
func (c *Client) OnBookTicker(handler func(*BookTickerEvent)) {
	c.handlersMu.Lock()
	c.onBookTicker = handler
	c.handlersMu.Unlock()
}

// Connect dials the combined stream URL; wsconn keeps it alive afterwards.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "binance.connect",
		trace.WithAttributes(
			attribute.StringSlice("symbols", c.config.Symbols),
		),
	)
	defer span.End()

	wsURL, err := c.buildStreamURL()
	if err != nil {
		return err
	}

	wsCfg := wsconn.DefaultConfig(wsURL, "binance")
	wsCfg.ReadTimeout = c.config.ReadTimeout
	wsCfg.WriteTimeout = c.config.WriteTimeout
	wsCfg.MaxReconnects = 3

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return err
	}
	conn.OnMessage(c.handleMessage)
	conn.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			c.logger.Warn(context.Background(), "binance stream state changed", "state", string(state), "error", err.Error())
		}
	})

	if err := conn.ConnectWithRetry(ctx); err != nil {
		_ = conn.Close()
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err),
			apperror.WithContext("failed to connect to Binance"))
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	c.logger.Info(ctx, "binance client connected",
		"url", wsURL,
		"symbols", c.config.Symbols)

	return nil
}

// buildStreamURL constructs the combined streams WebSocket URL.
func (c *Client) buildStreamURL() (string, error) {
	if len(c.config.Symbols) == 0 {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no symbols configured"))
	}

	streams := make([]string, 0, len(c.config.Symbols))
	for _, sym := range c.config.Symbols {
		streams = append(streams, BookTickerStream(sym))
	}

	// Combined streams URL: /stream?streams=stream1/stream2/...
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", apperror.New(apperror.CodeConfigurationError, apperror.WithCause(err))
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

// handleMessage processes incoming WebSocket messages.
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	c.metrics.messagesReceived.Add(ctx, 1)

	var event StreamEvent
	if err := json.Unmarshal(data, &event); err != nil || event.Stream == "" {
		// Might be a subscription response
		var resp WSResponse
		if json.Unmarshal(data, &resp) == nil {
			return
		}
		c.metrics.parseErrors.Add(ctx, 1)
		c.logger.Debug(ctx, "failed to parse message", "data", string(data[:min(len(data), 200)]))
		return
	}

	if !strings.HasSuffix(event.Stream, "@bookTicker") {
		return
	}

	var ticker BookTickerEvent
	if err := json.Unmarshal(event.Data, &ticker); err != nil {
		c.metrics.parseErrors.Add(ctx, 1)
		return
	}

	c.handlersMu.RLock()
	handler := c.onBookTicker
	c.handlersMu.RUnlock()
	if handler != nil {
		handler(&ticker)
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}
