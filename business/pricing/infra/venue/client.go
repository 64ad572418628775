// Package venue implements app.VenueClient as an ordered chain of price lookups.
package venue

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/circuitbreaker"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

const (
	tracerName = "venue"
	meterName  = "venue"
)

// Outcomes recorded per strategy call.
const (
	outcomeOK          = "ok"
	outcomeAbsent      = "absent"
	outcomeTransient   = "transient"
	outcomeCircuitOpen = "circuit_open"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
)

var _ app.VenueClient = (*Client)(nil)

// Strategy is one way of pricing a pair at a venue.
type Strategy interface {
	Name() string
	Price(ctx context.Context, pair domain.Pair) (float64, error)
}

type strategyFunc struct {
	name string
	fn   func(ctx context.Context, pair domain.Pair) (float64, error)
}

func (s strategyFunc) Name() string { return s.name }

func (s strategyFunc) Price(ctx context.Context, pair domain.Pair) (float64, error) {
	return s.fn(ctx, pair)
}

// NewStrategy adapts a function to Strategy.
func NewStrategy(name string, fn func(ctx context.Context, pair domain.Pair) (float64, error)) Strategy {
	return strategyFunc{name: name, fn: fn}
}

type clientMetrics struct {
	fetchTotal   metric.Int64Counter
	fetchLatency metric.Float64Histogram
}

type link struct {
	strategy Strategy
	cb       *circuitbreaker.CircuitBreaker[float64]
}

// Client tries its strategies in order until one yields a usable price.
type Client struct {
	id    domain.VenueID
	chain []link
	log   logger.LoggerInterface
	now   func() time.Time

	tracer  trace.Tracer
	metrics *clientMetrics
}

// New builds a venue client. Each strategy gets its own circuit breaker.
func New(id domain.VenueID, log logger.LoggerInterface, strategies ...Strategy) (*Client, error) {
	if len(strategies) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext(fmt.Sprintf("venue %s has no strategies", id)))
	}

	c := &Client{
		id:     id,
		log:    log,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}

	for _, s := range strategies {
		cfg := circuitbreaker.DefaultConfig(fmt.Sprintf("%s.%s", id, s.Name()))
		cfg.IsSuccessful = countsAsSuccess
		cfg.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "venue breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}
		c.chain = append(c.chain, link{strategy: s, cb: circuitbreaker.New[float64](cfg)})
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return c, nil
}

// countsAsSuccess keeps a legitimately missing route from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	return !apperror.IsRetryable(err) && !apperror.HasCode(err, apperror.CodeVenueUnavailable)
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.fetchTotal, err = meter.Int64Counter(
		"venue_strategy_calls_total",
		metric.WithDescription("Venue strategy calls by outcome"),
	)
	if err != nil {
		return err
	}

	c.metrics.fetchLatency, err = meter.Float64Histogram(
		"venue_strategy_latency_ms",
		metric.WithDescription("Venue strategy latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Venue returns the venue id.
func (c *Client) Venue() domain.VenueID {
	return c.id
}

// Breakers reports each strategy breaker's state.
func (c *Client) Breakers() map[string]string {
	out := make(map[string]string, len(c.chain))
	for _, l := range c.chain {
		out[l.cb.Name()] = l.cb.State().String()
	}
	return out
}

// Fetch walks the strategy chain. When every strategy fails the result is a
// transient error if any failure was transient, so the caller may retry;
// otherwise it is CodeQuoteAbsent.
func (c *Client) Fetch(ctx context.Context, pair domain.Pair) (q domain.Quote, err error) {
	ctx, span := c.tracer.Start(ctx, "venue.fetch",
		trace.WithAttributes(
			attribute.String("venue", string(c.id)),
			attribute.String("pair", pair.String()),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			q = domain.Quote{}
			err = apperror.New(apperror.CodeVenueUnavailable,
				apperror.WithContext(fmt.Sprintf("%s: panic: %v", c.id, r)))
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var transient, last error
	for _, l := range c.chain {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Quote{}, apperror.FromTransport(ctxErr, string(c.id))
		}

		price, callErr := c.try(ctx, l, pair)
		if callErr == nil {
			return domain.Quote{
				Venue:     c.id,
				Base:      pair.Base,
				Quote:     pair.Quote,
				Price:     price,
				FetchedAt: c.now(),
				Strategy:  l.strategy.Name(),
			}, nil
		}

		last = callErr
		if apperror.IsRetryable(callErr) {
			transient = callErr
		}
	}

	if transient != nil {
		return domain.Quote{}, transient
	}
	return domain.Quote{}, apperror.New(apperror.CodeQuoteAbsent,
		apperror.WithContext(fmt.Sprintf("%s %s", c.id, pair)),
		apperror.WithCause(last))
}

func (c *Client) try(ctx context.Context, l link, pair domain.Pair) (float64, error) {
	start := c.now()

	price, err := l.cb.Execute(func() (p float64, err error) {
		defer func() {
			if r := recover(); r != nil {
				p = 0
				err = apperror.New(apperror.CodeVenueUnavailable,
					apperror.WithContext(fmt.Sprintf("%s: panic: %v", l.strategy.Name(), r)))
			}
		}()
		return l.strategy.Price(ctx, pair)
	})
	if err == nil && (price <= 0 || math.IsNaN(price) || math.IsInf(price, 0)) {
		err = apperror.New(apperror.CodeInvalidQuote,
			apperror.WithContext(fmt.Sprintf("%s returned %v", l.strategy.Name(), price)))
	}

	outcome := classify(err)
	elapsed := c.now().Sub(start)
	c.record(ctx, l.strategy.Name(), outcome, elapsed)

	args := []any{
		"venue", string(c.id),
		"strategy", l.strategy.Name(),
		"pair", pair.String(),
		"outcome", outcome,
		"latency_ms", elapsed.Milliseconds(),
	}
	if err != nil {
		args = append(args, "error", err.Error())
	}
	c.log.Debug(ctx, "venue strategy call", args...)

	return price, err
}

func classify(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case apperror.HasCode(err, apperror.CodeCircuitOpen):
		return outcomeCircuitOpen
	case apperror.HasCode(err, apperror.CodeVenueUnavailable):
		return outcomeUnavailable
	case apperror.HasCode(err, apperror.CodeInvalidQuote):
		return outcomeInvalid
	case apperror.IsRetryable(err):
		return outcomeTransient
	default:
		return outcomeAbsent
	}
}

func (c *Client) record(ctx context.Context, strategy, outcome string, elapsed time.Duration) {
	opt := metric.WithAttributes(
		attribute.String("venue", string(c.id)),
		attribute.String("strategy", strategy),
		attribute.String("outcome", outcome),
	)
	c.metrics.fetchTotal.Add(ctx, 1, opt)
	c.metrics.fetchLatency.Record(ctx, float64(elapsed.Microseconds())/1000.0, opt)
}
