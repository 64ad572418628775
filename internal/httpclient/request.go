package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// maxBodyBytes bounds how much of a response is read. Pool listings are large.
const maxBodyBytes = 256 << 20

// Request is the interface for building and executing HTTP requests.
type Request interface {
	Get(ctx context.Context, url string) (*Response, error)

	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetQueryParams(params map[string]string) Request
	SetResult(result any) Request
}

// Response wraps http.Response with the buffered body.
type Response struct {
	*http.Response
	body   []byte
	result any
}

// Body returns the response body as bytes.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as string.
func (r *Response) String() string {
	return string(r.body)
}

// IsError returns true if the status code indicates an error (>= 400).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// Result returns the decoded result, or nil when decoding was skipped or failed.
func (r *Response) Result() any {
	return r.result
}

type requestBuilder struct {
	client          *http.Client
	requestCounter  metric.Int64Counter
	requestDuration metric.Float64Histogram
	providerName    string
	tracer          trace.Tracer
	baseURL         string
	headers         map[string]string
	query           url.Values
	result          any
	errorHandler    ResponseErrorHandler
	labels          []*Label
	logRequest      bool
	logResponse     bool
}

func (r *requestBuilder) Get(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, url)
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

func (r *requestBuilder) SetQueryParams(params map[string]string) Request {
	for k, v := range params {
		r.SetQueryParam(k, v)
	}
	return r
}

// SetResult sets the target for JSON decoding of 2xx bodies.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) buildURL(path string) (string, error) {
	full := path
	if r.baseURL != "" && !strings.HasPrefix(path, "http") {
		full = strings.TrimSuffix(r.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}
	if len(r.query) == 0 {
		return full, nil
	}

	u, err := url.Parse(full)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, vs := range r.query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// execute performs the HTTP request with instrumentation. Transport failures,
// handler rejections and undecodable 2xx bodies come back as *apperror.AppError.
func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	start := time.Now()

	fullURL, err := r.buildURL(path)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err), apperror.WithContext(path))
	}

	ctx, span := r.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", fullURL),
			attribute.String("provider", r.providerName),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.logRequest {
		span.AddEvent("request.headers", trace.WithAttributes(
			attribute.String("http.user_agent", req.Header.Get("User-Agent")),
		))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.recordError(ctx, span, err, start)
		return nil, apperror.FromTransport(err, r.providerName)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	if err != nil {
		r.recordError(ctx, span, err, start)
		return nil, apperror.FromTransport(err, r.providerName+": read body")
	}

	if r.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(body)),
		))
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	response := &Response{Response: resp, body: body}

	if r.errorHandler != nil {
		if handlerErr := r.errorHandler(resp.StatusCode, body); handlerErr != nil {
			span.SetStatus(codes.Error, handlerErr.Error())
			r.recordMetrics(ctx, false, start)
			return response, handlerErr
		}
	}

	if r.result != nil && resp.StatusCode < 300 {
		if err := json.Unmarshal(body, r.result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to decode body")
			r.recordMetrics(ctx, false, start)
			return response, apperror.New(apperror.CodeDecodeTransient,
				apperror.WithCause(err),
				apperror.WithContext(r.providerName),
				apperror.WithStatusCode(resp.StatusCode))
		}
		response.result = r.result
	}

	r.recordMetrics(ctx, !response.IsError(), start)
	return response, nil
}

func (r *requestBuilder) recordError(ctx context.Context, span trace.Span, err error, start time.Time) {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.recordMetrics(ctx, false, start)
}

func (r *requestBuilder) recordMetrics(ctx context.Context, success bool, start time.Time) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.providerName),
		attribute.Bool("success", success),
	}
	for _, label := range r.labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}

	opt := metric.WithAttributes(attrs...)
	r.requestCounter.Add(ctx, 1, opt)
	r.requestDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0, opt)
}
