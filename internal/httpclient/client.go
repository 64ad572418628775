package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

const (
	instrumentationName = "instrumented_http_client"

	defaultRequestTimeout = 10 * time.Second

	// Venue APIs are few hosts called often; keep a small warm pool per host.
	maxConnsPerHost     = 8
	maxIdleConnsPerHost = 4
	idleConnTimeout     = 90 * time.Second
	dialTimeout         = 5 * time.Second
	dialKeepAlive       = 30 * time.Second
	tlsHandshakeTimeout = 5 * time.Second

	metricRequestCounter  = "http_client_requests_total"
	metricRequestDuration = "http_client_request_duration_ms"
)

// Client builds instrumented requests.
type Client interface {
	// NewRequest creates a request with default options.
	NewRequest() Request
	// NewRequestWithOptions creates a request with a status handler and metric labels.
	NewRequestWithOptions(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with OTEL spans and request metrics.
type InstrumentedClient struct {
	client   *http.Client
	cfg      clientConfig
	counter  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewInstrumentedClient creates a client. It fails only when the meter
// refuses to create instruments.
func NewInstrumentedClient(opts ...ClientOption) (Client, error) {
	cfg := clientConfig{provider: "default", timeout: defaultRequestTimeout}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(instrumentationName)
	}

	meter := otel.Meter(
		instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", cfg.provider)),
	)

	counter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("HTTP request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedClient{
		client: &http.Client{
			Timeout:   cfg.timeout,
			Transport: newTransport(),
		},
		cfg:      cfg,
		counter:  counter,
		duration: duration,
	}, nil
}

// newTransport returns a pooled transport wrapped in otelhttp, with
// connection-level events from httptrace.
func newTransport() http.RoundTripper {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: dialKeepAlive,
		}).DialContext,
		MaxConnsPerHost:     maxConnsPerHost,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	return otelhttp.NewTransport(base,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)
}

func (c *InstrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

func (c *InstrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	var rc requestConfig
	for _, o := range opts {
		o(&rc)
	}

	headers := make(map[string]string, len(c.cfg.headers))
	for k, v := range c.cfg.headers {
		headers[k] = v
	}

	return &requestBuilder{
		client:          c.client,
		requestCounter:  c.counter,
		requestDuration: c.duration,
		providerName:    c.cfg.provider,
		tracer:          c.cfg.tracer,
		baseURL:         c.cfg.baseURL,
		headers:         headers,
		errorHandler:    rc.errorHandler,
		labels:          rc.labels,
		logRequest:      c.cfg.traceRequest,
		logResponse:     c.cfg.traceResp,
	}
}

// StatusErrorHandler maps 4xx/5xx responses to typed venue errors.
func StatusErrorHandler(where string) ResponseErrorHandler {
	return func(statusCode int, _ []byte) error {
		if appErr := apperror.FromStatus(statusCode, where); appErr != nil {
			return appErr
		}
		return nil
	}
}
