package poolcache

import (
	"context"
	"testing"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/cache"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var samplePools = []domain.Pool{
	{AmmID: "amm-1", Base: asset.SOL, Quote: asset.USDC, BaseReserve: 10, QuoteReserve: 1500, LiquidityUSD: 3000},
	{AmmID: "amm-2", Base: asset.BONK, Quote: asset.SOL, BaseVolume: 1e9, QuoteVolume: 20, LiquidityUSD: 900_000},
}

func TestMemory_FreshThenStale(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewMemory(10*time.Minute, time.Hour, cache.WithClock(clock.Now))
	defer m.Close()

	if _, _, _, err := m.Load(ctx); !apperror.HasCode(err, apperror.CodeCacheMiss) {
		t.Fatalf("empty cache err = %v, want cache miss", err)
	}

	if err := m.Store(ctx, samplePools); err != nil {
		t.Fatalf("Store: %v", err)
	}
	pools, _, fresh, err := m.Load(ctx)
	if err != nil || !fresh || len(pools) != 2 {
		t.Fatalf("Load = %d pools, fresh=%v, err=%v", len(pools), fresh, err)
	}

	clock.Advance(11 * time.Minute)
	pools, _, fresh, err = m.Load(ctx)
	if err != nil || fresh || len(pools) != 2 {
		t.Errorf("after ttl: %d pools, fresh=%v, err=%v; want stale copy", len(pools), fresh, err)
	}
}

func TestEnvelope_RoundTripKeepsTokens(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := encodeEnvelope(at, samplePools)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := decodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.StoredAt.Equal(at) {
		t.Errorf("storedAt = %v, want %v", env.StoredAt, at)
	}

	pools := fromRecords(env.Pools)
	if len(pools) != 2 {
		t.Fatalf("pools = %d, want 2", len(pools))
	}
	if !pools[1].Base.Equals(asset.BONK) || pools[1].Base.Decimals() != 5 {
		t.Errorf("token lost in transit: %v", pools[1].Base)
	}
	price, ok := pools[0].PriceFor(domain.Pair{Base: asset.SOL, Quote: asset.USDC})
	if !ok || price != 150 {
		t.Errorf("price after round trip = %v, %v", price, ok)
	}
}

func TestFromRecords_SkipsBadMints(t *testing.T) {
	recs := toRecords(samplePools)
	recs[0].BaseMint = "not-base58!"
	if got := fromRecords(recs); len(got) != 1 {
		t.Errorf("got %d pools, want the bad record dropped", len(got))
	}
}
