package app

import (
	"sort"
	"sync"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/business/arbitrage/domain"
	historyDomain "github.com/fd1az/dex-arbitrage-scanner/business/history/domain"
	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
)

// Report is the outcome of one run, ranked by fee-adjusted profit.
type Report struct {
	RunID         string                              `json:"run_id"`
	StartedAt     time.Time                           `json:"started_at"`
	Duration      time.Duration                       `json:"duration_ns"`
	Reference     pricingDomain.ReferencePrice        `json:"reference"`
	Pairs         int                                 `json:"pairs"`
	Evaluated     int                                 `json:"evaluated"`
	Insufficient  int                                 `json:"insufficient"`
	Profitable    int                                 `json:"profitable"`
	Opportunities []*domain.Opportunity               `json:"opportunities"`
	Trends        map[string]historyDomain.TrendStats `json:"trends,omitempty"`
}

// RunContext holds the state of one run. Workers record into it concurrently;
// nothing outlives the run.
type RunContext struct {
	ID        string
	StartedAt time.Time
	Reference pricingDomain.ReferencePrice

	mu            sync.Mutex
	pairs         int
	insufficient  int
	opportunities []*domain.Opportunity
	trends        map[string]historyDomain.TrendStats
}

// NewRunContext starts a run.
func NewRunContext(id string, startedAt time.Time, ref pricingDomain.ReferencePrice, pairs int) *RunContext {
	return &RunContext{
		ID:        id,
		StartedAt: startedAt,
		Reference: ref,
		pairs:     pairs,
		trends:    make(map[string]historyDomain.TrendStats),
	}
}

// AddOpportunity records an evaluated pair.
func (rc *RunContext) AddOpportunity(o *domain.Opportunity) {
	rc.mu.Lock()
	rc.opportunities = append(rc.opportunities, o)
	rc.mu.Unlock()
}

// AddInsufficient counts a pair with fewer than two quotes.
func (rc *RunContext) AddInsufficient() {
	rc.mu.Lock()
	rc.insufficient++
	rc.mu.Unlock()
}

// AddTrend records the day's trend for a token.
func (rc *RunContext) AddTrend(t historyDomain.TrendStats) {
	rc.mu.Lock()
	rc.trends[t.Token] = t
	rc.mu.Unlock()
}

// Report freezes the run into a ranked Report.
func (rc *RunContext) Report(finishedAt time.Time) *Report {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	ranked := append([]*domain.Opportunity(nil), rc.opportunities...)
	Rank(ranked)

	profitable := 0
	for _, o := range ranked {
		if o.Profitable {
			profitable++
		}
	}

	trends := make(map[string]historyDomain.TrendStats, len(rc.trends))
	for k, v := range rc.trends {
		trends[k] = v
	}

	return &Report{
		RunID:         rc.ID,
		StartedAt:     rc.StartedAt,
		Duration:      finishedAt.Sub(rc.StartedAt),
		Reference:     rc.Reference,
		Pairs:         rc.pairs,
		Evaluated:     len(ranked),
		Insufficient:  rc.insufficient,
		Profitable:    profitable,
		Opportunities: ranked,
		Trends:        trends,
	}
}

// Rank sorts by adj_profit_pct descending, then pair name.
func Rank(opps []*domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		if c := opps[i].AdjProfitPct.Cmp(opps[j].AdjProfitPct); c != 0 {
			return c > 0
		}
		return opps[i].PairName < opps[j].PairName
	})
}
