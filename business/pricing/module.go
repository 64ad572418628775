// Package pricing implements the pricing bounded context: venues, pair
// discovery, pool listings and the USD reference price.
package pricing

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	pricingDI "github.com/fd1az/dex-arbitrage-scanner/business/pricing/di"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/binance"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/coingecko"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/jupiter"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/poolcache"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/raydium"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/venue"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/config"
	"github.com/fd1az/dex-arbitrage-scanner/internal/di"
	"github.com/fd1az/dex-arbitrage-scanner/internal/httpclient"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
	"github.com/fd1az/dex-arbitrage-scanner/internal/monolith"
	"github.com/fd1az/dex-arbitrage-scanner/internal/ratelimit"
	"github.com/fd1az/dex-arbitrage-scanner/internal/retry"
)

// Rate limiter keys, one per upstream host.
const (
	hostJupiter   = "jupiter"
	hostRaydium   = "raydium"
	hostCoinGecko = "coingecko"

	coingeckoRequestsPerMinute = 30
	listingRequestTimeout      = 3 * time.Minute
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.Limiters, func(sr di.ServiceRegistry) *ratelimit.Registry {
		return ratelimit.NewRegistry()
	})

	// Jupiter client - shared by the Jupiter, Orca and Meteora venues
	di.RegisterToken(c, pricingDI.JupiterClient, func(sr di.ServiceRegistry) *jupiter.Client {
		cfg := sr.Get("config").(*config.Config)
		limiter := pricingDI.GetLimiters(sr).For(hostJupiter, cfg.Jupiter.RequestsPerMinute)

		return jupiter.NewClient(mustHTTPClient("jupiter", cfg.Retry.PerAttemptTimeout), limiter, jupiter.Config{
			PriceURL:    cfg.Jupiter.PriceURL,
			QuoteURL:    cfg.Jupiter.QuoteURL,
			QuoteAmount: cfg.Jupiter.QuoteAmount,
			SlippageBps: cfg.Jupiter.SlippageBps,
		})
	})

	// Pool cache - Redis when enabled and reachable, in-process otherwise
	di.RegisterToken(c, pricingDI.PoolCache, func(sr di.ServiceRegistry) app.PoolCache {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Redis.Enabled {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			rc, err := poolcache.NewRedis(ctx, poolcache.RedisConfig{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}, cfg.Raydium.CacheTTL, cfg.Raydium.StaleRetention)
			if err == nil {
				return rc
			}
			log.Warn(ctx, "redis pool cache unavailable, using in-memory cache", "addr", cfg.Redis.Addr, "error", err.Error())
		}
		return poolcache.NewMemory(cfg.Raydium.CacheTTL, cfg.Raydium.StaleRetention)
	})

	di.RegisterToken(c, pricingDI.PoolListing, func(sr di.ServiceRegistry) *app.PoolListing {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)
		limiter := pricingDI.GetLimiters(sr).For(hostRaydium, cfg.Raydium.RequestsPerMinute)

		source := raydium.NewListing(mustHTTPClient("raydium", listingRequestTimeout), limiter, cfg.Raydium.PairsURL, registry)
		return app.NewPoolListing(source, pricingDI.GetPoolCache(sr), log)
	})

	// Venue clients (public - health checks read their breakers)
	di.RegisterToken(c, pricingDI.VenueClients, func(sr di.ServiceRegistry) []*venue.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clients, err := buildVenues(cfg.Scan.Venues, pricingDI.GetJupiterClient(sr), pricingDI.GetPoolListing(sr), log)
		if err != nil {
			panic("failed to create venue clients: " + err.Error())
		}
		return clients
	})

	di.RegisterToken(c, pricingDI.Aggregator, func(sr di.ServiceRegistry) *app.Aggregator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clients := pricingDI.GetVenueClients(sr)
		venues := make([]app.VenueClient, len(clients))
		for i, vc := range clients {
			venues[i] = vc
		}

		return app.NewAggregator(venues, app.AggregatorConfig{
			RoundTimeout: cfg.Scan.RoundTimeout,
			Retry:        retryPolicy(cfg.Retry),
		}, log)
	})

	di.RegisterToken(c, pricingDI.PairDiscovery, func(sr di.ServiceRegistry) *app.PairDiscovery {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		return app.NewPairDiscovery(pricingDI.GetPoolListing(sr), registry, app.DiscoveryConfig{
			Manual:       cfg.Scan.Pairs,
			Discover:     cfg.Scan.Discover,
			Anchor:       asset.SOL,
			MinLiquidity: cfg.Scan.MinLiquidity,
			MaxPairs:     cfg.Scan.MaxPairs,
		}, log)
	})

	di.RegisterToken(c, pricingDI.BinanceReference, func(sr di.ServiceRegistry) *binance.ReferenceProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := binance.NewReferenceProvider(binance.ReferenceConfig{
			WebSocketURL:   cfg.Reference.BinanceWSURL,
			HTTPURL:        cfg.Reference.BinanceAPIURL,
			Symbol:         cfg.Reference.BinanceSymbol,
			StaleAfter:     cfg.Reference.StaleAfter,
			EnableFallback: true,
		}, log)
		if err != nil {
			panic("failed to create binance reference provider: " + err.Error())
		}
		return provider
	})

	// Reference chain: Binance, CoinGecko, Jupiter, then the configured constant
	di.RegisterToken(c, pricingDI.ReferenceChain, func(sr di.ServiceRegistry) *app.ReferenceChain {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		limiter := pricingDI.GetLimiters(sr).For(hostCoinGecko, coingeckoRequestsPerMinute)

		sources := []app.ReferenceSource{
			pricingDI.GetBinanceReference(sr),
			coingecko.New(mustHTTPClient("coingecko", cfg.Reference.Timeout), limiter, cfg.Reference.CoinGeckoURL, cfg.Reference.CoinGeckoID),
			jupiter.NewReferenceSource(pricingDI.GetJupiterClient(sr), asset.SOL, asset.USDC),
		}
		return app.NewReferenceChain(sources, cfg.Reference.FallbackUSD, cfg.Reference.Timeout, log)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	clients := pricingDI.GetVenueClients(mono.Services())
	if closer, ok := pricingDI.GetPoolCache(mono.Services()).(io.Closer); ok {
		mono.OnClose(closer)
	}

	// Single runs price SOL through REST; only watch mode keeps a stream open.
	if cfg.Scan.WatchMode {
		ref := pricingDI.GetBinanceReference(mono.Services())
		mono.OnClose(ref)

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := ref.Connect(connectCtx); err != nil {
			log.Warn(ctx, "binance connection failed, will retry in background", "error", err)
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-time.After(5 * time.Second):
						if err := ref.Connect(ctx); err != nil {
							log.Warn(ctx, "binance retry failed", "error", err)
						} else {
							log.Info(ctx, "binance connected successfully")
							return
						}
					}
				}
			}()
		}
	}

	log.Info(ctx, "pricing module started", "venues", len(clients))
	return nil
}

// buildVenues creates one client per configured venue, in priority order.
func buildVenues(names []string, jc *jupiter.Client, pools app.PoolSource, log logger.LoggerInterface) ([]*venue.Client, error) {
	clients := make([]*venue.Client, 0, len(names))
	for _, name := range names {
		id := domain.ParseVenueID(name)

		var strategies []venue.Strategy
		switch id {
		case domain.VenueJupiter:
			strategies = jc.JupiterStrategies()
		case domain.VenueRaydium:
			strategies = []venue.Strategy{raydium.PoolStrategy(pools), jc.RaydiumQuoteStrategy()}
		case domain.VenueOrca:
			strategies = jc.OrcaStrategies()
		case domain.VenueMeteora:
			strategies = jc.MeteoraStrategies()
		default:
			return nil, fmt.Errorf("unknown venue %q", name)
		}

		client, err := venue.New(id, log, strategies...)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func retryPolicy(cfg config.RetryConfig) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = cfg.MaxAttempts
	p.BaseDelay = cfg.BaseDelay
	p.MaxTotalTime = cfg.MaxTotalTime
	p.PerAttemptTimeout = cfg.PerAttemptTimeout
	return p
}

func mustHTTPClient(provider string, timeout time.Duration) httpclient.Client {
	opts := []httpclient.ClientOption{
		httpclient.WithProviderName(provider),
		httpclient.WithUserAgent("dex-arbitrage-scanner"),
	}
	if timeout > 0 {
		opts = append(opts, httpclient.WithRequestTimeout(timeout))
	}
	client, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		panic("failed to create " + provider + " http client: " + err.Error())
	}
	return client
}
