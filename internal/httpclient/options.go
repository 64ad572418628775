// Package httpclient provides an instrumented HTTP client with OTEL tracing and metrics.
package httpclient

import (
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceOption selects which bodies are attached to spans as events.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

type clientConfig struct {
	provider     string
	timeout      time.Duration
	headers      map[string]string
	baseURL      string
	tracer       trace.Tracer
	traceRequest bool
	traceResp    bool
}

// ClientOption configures NewInstrumentedClient.
type ClientOption func(*clientConfig)

// WithProviderName labels metrics and spans with the upstream's name.
func WithProviderName(name string) ClientOption {
	return func(c *clientConfig) {
		c.provider = name
	}
}

// WithRequestTimeout bounds a whole request, body included. Pool listings
// need minutes; price calls a few seconds.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.header("User-Agent", ua)
	}
}

// WithBaseURL resolves relative request paths against url.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithTraceOptions sets the tracer and enables body events.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(c *clientConfig) {
		c.tracer = tracer
		for _, opt := range opts {
			switch opt {
			case TraceRequest:
				c.traceRequest = true
			case TraceResponse:
				c.traceResp = true
			}
		}
	}
}

func (c *clientConfig) header(k, v string) {
	if c.headers == nil {
		c.headers = make(map[string]string)
	}
	c.headers[k] = v
}

// ResponseErrorHandler inspects a response before decoding. A non-nil error
// aborts decoding and is returned to the caller.
type ResponseErrorHandler func(statusCode int, body []byte) error

// Label is a key-value pair added to request metrics.
type Label struct {
	Key   string
	Value string
}

// NewLabel creates a new label.
func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

type requestConfig struct {
	errorHandler ResponseErrorHandler
	labels       []*Label
}

// RequestOption configures a single request.
type RequestOption func(*requestConfig)

// WithResponseErrorHandler sets the handler that turns statuses into errors.
func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(c *requestConfig) {
		c.errorHandler = handler
	}
}

// WithLabels sets the metric labels of the request, e.g. venue and strategy.
func WithLabels(labels ...*Label) RequestOption {
	return func(c *requestConfig) {
		c.labels = labels
	}
}
