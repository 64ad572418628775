// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/app"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/binance"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/jupiter"
	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/infra/venue"
	"github.com/fd1az/dex-arbitrage-scanner/internal/di"
	"github.com/fd1az/dex-arbitrage-scanner/internal/ratelimit"
)

// Public service tokens - exposed to other modules
var (
	Aggregator     = di.NewToken[*app.Aggregator]("pricing.Aggregator")
	PairDiscovery  = di.NewToken[*app.PairDiscovery]("pricing.PairDiscovery")
	ReferenceChain = di.NewToken[*app.ReferenceChain]("pricing.ReferenceChain")
	VenueClients   = di.NewToken[[]*venue.Client]("pricing.VenueClients")
)

// Private dependency tokens - internal to pricing module
var (
	Limiters         = di.NewToken[*ratelimit.Registry]("pricing:limiters")
	JupiterClient    = di.NewToken[*jupiter.Client]("pricing:jupiterClient")
	PoolCache        = di.NewToken[app.PoolCache]("pricing:poolCache")
	PoolListing      = di.NewToken[*app.PoolListing]("pricing:poolListing")
	BinanceReference = di.NewToken[*binance.ReferenceProvider]("pricing:binanceReference")
)

// Helper functions for type-safe access
func GetAggregator(c di.ServiceRegistry) *app.Aggregator {
	return di.GetToken(c, Aggregator)
}

func GetPairDiscovery(c di.ServiceRegistry) *app.PairDiscovery {
	return di.GetToken(c, PairDiscovery)
}

func GetReferenceChain(c di.ServiceRegistry) *app.ReferenceChain {
	return di.GetToken(c, ReferenceChain)
}

func GetVenueClients(c di.ServiceRegistry) []*venue.Client {
	return di.GetToken(c, VenueClients)
}

func GetLimiters(c di.ServiceRegistry) *ratelimit.Registry {
	return di.GetToken(c, Limiters)
}

func GetJupiterClient(c di.ServiceRegistry) *jupiter.Client {
	return di.GetToken(c, JupiterClient)
}

func GetPoolCache(c di.ServiceRegistry) app.PoolCache {
	return di.GetToken(c, PoolCache)
}

func GetPoolListing(c di.ServiceRegistry) *app.PoolListing {
	return di.GetToken(c, PoolListing)
}

func GetBinanceReference(c di.ServiceRegistry) *binance.ReferenceProvider {
	return di.GetToken(c, BinanceReference)
}
