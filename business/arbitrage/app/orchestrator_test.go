package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/domain"
	historyDomain "github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
	"github.com/fd1az/dex-arbitrage-scanner/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

// fakeAggregator answers from a fixed price table and tracks concurrency.
type fakeAggregator struct {
	prices   map[string]map[pricingDomain.VenueID]float64
	delay    time.Duration
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeAggregator) Aggregate(_ context.Context, pair pricingDomain.Pair) *pricingDomain.PairQuoteSet {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return quoteSet(pair, f.prices[pair.String()])
}

type fakePairs struct {
	pairs []pricingDomain.Pair
	err   error
}

func (f fakePairs) Pairs(context.Context) ([]pricingDomain.Pair, error) { return f.pairs, f.err }

type fixedReference float64

func (r fixedReference) Resolve(context.Context) pricingDomain.ReferencePrice {
	return pricingDomain.ReferencePrice{USD: float64(r), Source: "test"}
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []historyDomain.Entry
	trends  map[string]historyDomain.TrendStats
}

func (f *fakeHistory) Append(_ context.Context, e historyDomain.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeHistory) Trend(_ context.Context, symbol string) (historyDomain.TrendStats, error) {
	if t, ok := f.trends[symbol]; ok {
		return t, nil
	}
	return historyDomain.TrendStats{}, apperror.New(apperror.CodeTrendUnavailable)
}

type countingArchiver struct{ calls atomic.Int32 }

func (c *countingArchiver) ArchiveClosed(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, nil
}

var (
	solBONK = pricingDomain.Pair{Base: asset.SOL, Quote: asset.BONK}
	solJUP  = pricingDomain.Pair{Base: asset.SOL, Quote: asset.JUP}
	solWIF  = pricingDomain.Pair{Base: asset.SOL, Quote: asset.WIF}
)

func newTestOrchestrator(t *testing.T, agg QuoteAggregator, pairs PairSource, hist History, arch Archiver) *Orchestrator {
	t.Helper()
	return NewOrchestrator(pairs, agg, fixedReference(150), newTestEvaluator(t, "0.2"), hist, arch,
		OrchestratorConfig{Concurrency: 2, Interval: 10 * time.Millisecond}, &mockLogger{})
}

func TestOrchestrator_Run(t *testing.T) {
	agg := &fakeAggregator{
		prices: map[string]map[pricingDomain.VenueID]float64{
			"SOL/USDC": {pricingDomain.VenueJupiter: 100, pricingDomain.VenueRaydium: 101.5, pricingDomain.VenueOrca: 100.2},
			"SOL/BONK": {pricingDomain.VenueJupiter: 100, pricingDomain.VenueOrca: 100.5},
			"SOL/JUP":  {pricingDomain.VenueJupiter: 200},
			"SOL/WIF":  {pricingDomain.VenueJupiter: 10, pricingDomain.VenueMeteora: 10.3},
		},
	}
	hist := &fakeHistory{trends: map[string]historyDomain.TrendStats{
		"USDC": {Token: "USDC", DataPoints: 12, MeanSpreadPct: 1.1},
	}}
	o := newTestOrchestrator(t, agg, nil, hist, nil)

	report := o.Run(context.Background(), []pricingDomain.Pair{solBONK, solUSDC, solJUP, solWIF}, 2)

	if report.RunID == "" || report.Reference.USD != 150 {
		t.Errorf("run metadata = %q %+v", report.RunID, report.Reference)
	}
	if report.Pairs != 4 || report.Evaluated != 3 || report.Insufficient != 1 || report.Profitable != 2 {
		t.Errorf("counts pairs=%d evaluated=%d insufficient=%d profitable=%d",
			report.Pairs, report.Evaluated, report.Insufficient, report.Profitable)
	}

	// WIF: 3% - 0.47 = 2.53; USDC: 0.98; BONK: -0.02
	wantOrder := []string{"SOL/WIF", "SOL/USDC", "SOL/BONK"}
	for i, want := range wantOrder {
		if got := report.Opportunities[i].PairName; got != want {
			t.Errorf("rank %d = %s, want %s", i, got, want)
		}
	}

	if len(hist.entries) != 3 {
		t.Errorf("history entries = %d, want one per evaluated pair", len(hist.entries))
	}
	for _, e := range hist.entries {
		if e.ReferencePriceUSD != 150 || len(e.Prices) < 2 {
			t.Errorf("entry = %+v", e)
		}
	}

	if _, ok := report.Trends["USDC"]; !ok || len(report.Trends) != 1 {
		t.Errorf("trends = %v", report.Trends)
	}
}

func TestOrchestrator_RunRespectsConcurrency(t *testing.T) {
	agg := &fakeAggregator{delay: 20 * time.Millisecond}
	o := newTestOrchestrator(t, agg, nil, &fakeHistory{}, nil)

	pairs := []pricingDomain.Pair{solBONK, solUSDC, solJUP, solWIF, solBONK, solUSDC}
	report := o.Run(context.Background(), pairs, 2)

	if peak := agg.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if report.Insufficient != len(pairs) {
		t.Errorf("insufficient = %d, want %d", report.Insufficient, len(pairs))
	}
}

func TestRank_TieBreaksOnPairName(t *testing.T) {
	e := newTestEvaluator(t, "0")
	prices := map[pricingDomain.VenueID]float64{pricingDomain.VenueJupiter: 100, pricingDomain.VenueRaydium: 101}

	var opps []*domain.Opportunity
	for _, p := range []pricingDomain.Pair{solWIF, solBONK, solJUP} {
		o, _ := e.Evaluate(quoteSet(p, prices), pricingDomain.ReferencePrice{USD: 1})
		opps = append(opps, o)
	}
	Rank(opps)

	want := []string{"SOL/BONK", "SOL/JUP", "SOL/WIF"}
	for i := range want {
		if opps[i].PairName != want[i] {
			t.Errorf("rank %d = %s, want %s", i, opps[i].PairName, want[i])
		}
	}
}

func TestOrchestrator_Scan(t *testing.T) {
	agg := &fakeAggregator{prices: map[string]map[pricingDomain.VenueID]float64{
		"SOL/BONK": {pricingDomain.VenueJupiter: 100, pricingDomain.VenueOrca: 102},
	}}
	arch := &countingArchiver{}
	o := newTestOrchestrator(t, agg, fakePairs{pairs: []pricingDomain.Pair{solBONK}}, &fakeHistory{}, arch)

	report, err := o.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Evaluated != 1 {
		t.Errorf("evaluated = %d", report.Evaluated)
	}
	if arch.calls.Load() != 1 {
		t.Errorf("archive calls = %d, want 1", arch.calls.Load())
	}

	bad := newTestOrchestrator(t, agg, fakePairs{err: errors.New("listing down")}, &fakeHistory{}, nil)
	if _, err := bad.Scan(context.Background()); err == nil {
		t.Error("expected pair source error")
	}
}

func TestOrchestrator_Watch(t *testing.T) {
	agg := &fakeAggregator{}
	o := newTestOrchestrator(t, agg, fakePairs{pairs: []pricingDomain.Pair{solBONK}}, &fakeHistory{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- o.Watch(ctx, func(*Report, error) {
			if runs.Add(1) == 3 {
				cancel()
			}
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("Watch did not stop after cancel")
	}
	if runs.Load() < 3 {
		t.Errorf("runs = %d, want 3", runs.Load())
	}
}
