package domain

import (
	"math"
	"sort"
	"time"

	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

// Quote is one venue's price observation for a pair.
type Quote struct {
	Venue     VenueID
	Base      asset.Token
	Quote     asset.Token
	Price     float64 // quote per base
	FetchedAt time.Time
	// Strategy names the lookup that produced the price.
	Strategy string
}

// Valid rejects non-positive and non-finite prices. An invalid quote is absent, not zero.
func (q Quote) Valid() bool {
	return q.Price > 0 && !math.IsInf(q.Price, 0) && !math.IsNaN(q.Price)
}

// Matches reports whether the quote is for pair p.
func (q Quote) Matches(p Pair) bool {
	return q.Base.Equals(p.Base) && q.Quote.Equals(p.Quote)
}

// PairQuoteSet collects at most one valid quote per venue for one pair within one round.
// It is not safe for concurrent writes; the aggregator fills it from a single goroutine.
type PairQuoteSet struct {
	pair   Pair
	quotes map[VenueID]Quote
}

// NewPairQuoteSet starts an empty round.
func NewPairQuoteSet(pair Pair) *PairQuoteSet {
	return &PairQuoteSet{pair: pair, quotes: make(map[VenueID]Quote)}
}

// Add stores q. It refuses invalid quotes, quotes for another pair and a second
// quote from the same venue.
func (s *PairQuoteSet) Add(q Quote) bool {
	if !q.Valid() || !q.Matches(s.pair) {
		return false
	}
	if _, dup := s.quotes[q.Venue]; dup {
		return false
	}
	s.quotes[q.Venue] = q
	return true
}

func (s *PairQuoteSet) Pair() Pair {
	return s.pair
}

func (s *PairQuoteSet) Len() int {
	return len(s.quotes)
}

func (s *PairQuoteSet) Get(v VenueID) (Quote, bool) {
	q, ok := s.quotes[v]
	return q, ok
}

// Venues lists the venues present, sorted by name.
func (s *PairQuoteSet) Venues() []VenueID {
	out := make([]VenueID, 0, len(s.quotes))
	for v := range s.quotes {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Prices copies the venue → price mapping.
func (s *PairQuoteSet) Prices() map[VenueID]float64 {
	out := make(map[VenueID]float64, len(s.quotes))
	for v, q := range s.quotes {
		out[v] = q.Price
	}
	return out
}
