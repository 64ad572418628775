// Package metrics sets up the OpenTelemetry meter provider and the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apm"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// Config selects the readers. Prometheus is used when PrometheusPort is set,
// OTLP gRPC when OTLPEndpoint is set; both may be active.
type Config struct {
	ServiceName    string
	PrometheusPort int
	OTLPEndpoint   string
	OTLPHeaders    string
	Insecure       bool
}

// Provider is the installed meter provider plus the Prometheus registry it
// exports into, if any.
type Provider struct {
	*sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// Registry returns the Prometheus registry, or nil when Prometheus is off.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// NewMetricProvider builds the readers and installs the provider globally.
func NewMetricProvider(ctx context.Context, cfg Config) (*Provider, error) {
	var (
		opts     []sdkmetric.Option
		registry *prometheus.Registry
	)

	if cfg.PrometheusPort > 0 {
		registry = prometheus.NewRegistry()
		exp, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exp))
	}

	if cfg.OTLPEndpoint != "" {
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(apm.ParseHeaders(cfg.OTLPHeaders)),
		}
		if cfg.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
	))

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return &Provider{MeterProvider: mp, registry: registry}, nil
}

// Server serves /metrics from a Prometheus registry.
type Server struct {
	server *http.Server
	log    logger.LoggerInterface
}

// NewServer creates the scrape server on port.
func NewServer(port int, registry *prometheus.Registry, log logger.LoggerInterface) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background. Listen errors are logged, not fatal.
func (s *Server) Start() {
	go func() {
		s.log.Info(context.Background(), "serving metrics", "addr", s.server.Addr+"/metrics")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "metrics server failed", "error", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
