package domain

import (
	"math"
	"testing"

	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

func TestPool_PriceFor(t *testing.T) {
	pool := Pool{
		Base: asset.USDC, Quote: asset.SOL,
		BaseReserve: 1_500_000, QuoteReserve: 10_000,
	}
	solUSDC := Pair{Base: asset.SOL, Quote: asset.USDC}

	got, ok := pool.PriceFor(solUSDC)
	if !ok || math.Abs(got-150) > 1e-9 {
		t.Errorf("swapped orientation = %v, %v; want 150", got, ok)
	}

	got, ok = pool.PriceFor(solUSDC.Invert())
	if !ok || math.Abs(got-1.0/150) > 1e-12 {
		t.Errorf("direct orientation = %v, %v", got, ok)
	}

	volumesOnly := Pool{Base: asset.SOL, Quote: asset.USDC, BaseVolume: 2, QuoteVolume: 300}
	if got, ok := volumesOnly.PriceFor(solUSDC); !ok || got != 150 {
		t.Errorf("volume fallback = %v, %v", got, ok)
	}

	if _, ok := (Pool{Base: asset.SOL, Quote: asset.USDC}).PriceFor(solUSDC); ok {
		t.Error("empty pool must not price")
	}
	if _, ok := pool.PriceFor(Pair{Base: asset.SOL, Quote: asset.BONK}); ok {
		t.Error("pool priced a pair it does not serve")
	}
}

func TestTopPairs(t *testing.T) {
	pools := []Pool{
		{Base: asset.SOL, Quote: asset.USDC, LiquidityUSD: 9_000_000},
		{Base: asset.BONK, Quote: asset.SOL, LiquidityUSD: 2_000_000},
		{Base: asset.SOL, Quote: asset.USDC, LiquidityUSD: 1_000_000},
		{Base: asset.JUP, Quote: asset.USDC, LiquidityUSD: 5_000_000},
		{Base: asset.SOL, Quote: asset.WIF, LiquidityUSD: 40_000},
		{Base: asset.SOL, Quote: asset.JTO, LiquidityUSD: 700_000},
	}

	got := TopPairs(pools, asset.SOL, 50_000, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].String() != "SOL/USDC" || got[1].String() != "SOL/BONK" {
		t.Errorf("got %v", got)
	}

	all := TopPairs(pools, asset.SOL, 50_000, 10)
	if len(all) != 3 {
		t.Errorf("distinct pairs = %d, want 3 (duplicate and thin pools dropped)", len(all))
	}
}
