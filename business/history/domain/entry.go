// Package domain contains the price history types: entries, day partitions
// and spread trends.
package domain

import (
	"net/url"
	"time"

	pricingDomain "github.com/fd1az/dex-arbitrage-scanner/business/pricing/domain"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

// DefaultCap bounds one partition; the oldest entries go first.
const DefaultCap = 1000

const dayLayout = "2006-01-02"

// Entry is one round's venue prices for a token.
type Entry struct {
	Timestamp         float64                           `json:"timestamp"` // unix seconds
	Time              string                            `json:"time"`      // HH:MM:SS UTC
	TokenSymbol       string                            `json:"token_symbol"`
	TokenAddress      string                            `json:"token_address"`
	Prices            map[pricingDomain.VenueID]float64 `json:"prices"`
	ReferencePriceUSD float64                           `json:"reference_price_usd"`
}

// NewEntry records prices for token at the given instant.
func NewEntry(at time.Time, token asset.Token, prices map[pricingDomain.VenueID]float64, referenceUSD float64) Entry {
	at = at.UTC()
	copied := make(map[pricingDomain.VenueID]float64, len(prices))
	for v, p := range prices {
		copied[v] = p
	}
	return Entry{
		Timestamp:         float64(at.Unix()) + float64(at.Nanosecond())/float64(time.Second),
		Time:              at.Format("15:04:05"),
		TokenSymbol:       token.Symbol(),
		TokenAddress:      token.Address().String(),
		Prices:            copied,
		ReferencePriceUSD: referenceUSD,
	}
}

// At returns the entry's instant.
func (e Entry) At() time.Time {
	sec := int64(e.Timestamp)
	nsec := int64((e.Timestamp - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// Partition returns the day partition the entry belongs to.
func (e Entry) Partition() Partition {
	return PartitionFor(e.At(), e.TokenSymbol)
}

// Spread is (max-min)/min*100 over the entry's valid prices. ok is false
// with fewer than two.
func (e Entry) Spread() (float64, bool) {
	prices := make([]float64, 0, len(e.Prices))
	for _, p := range e.Prices {
		prices = append(prices, p)
	}
	return pricingDomain.SpreadPct(prices)
}

// Partition identifies one (UTC day, token symbol) bucket.
type Partition struct {
	Day    string // YYYY-MM-DD
	Symbol string
}

// PartitionFor returns the partition of symbol on the UTC day of at.
func PartitionFor(at time.Time, symbol string) Partition {
	return Partition{Day: at.UTC().Format(dayLayout), Symbol: symbol}
}

// ParsePartitionName reverses Name. ok is false for foreign names.
func ParsePartitionName(name string) (Partition, bool) {
	const suffix = ".json"
	if len(name) <= len(dayLayout)+1+len(suffix) || name[len(name)-len(suffix):] != suffix {
		return Partition{}, false
	}
	day := name[:len(dayLayout)]
	if _, err := time.Parse(dayLayout, day); err != nil || name[len(dayLayout)] != '_' {
		return Partition{}, false
	}
	symbol, err := url.PathUnescape(name[len(dayLayout)+1 : len(name)-len(suffix)])
	if err != nil || symbol == "" {
		return Partition{}, false
	}
	return Partition{Day: day, Symbol: symbol}, true
}

// Name is the partition's file name, {YYYY-MM-DD}_{SYMBOL}.json. Symbols come
// from pool listings, so the symbol is path-escaped into a single element.
func (p Partition) Name() string {
	return p.Day + "_" + url.PathEscape(p.Symbol) + ".json"
}

// Before reports whether p's day is earlier than day.
func (p Partition) Before(day string) bool {
	return p.Day < day
}

// Trim keeps the newest cap entries. A cap below 1 keeps everything.
func Trim(entries []Entry, cap int) []Entry {
	if cap < 1 || len(entries) <= cap {
		return entries
	}
	return entries[len(entries)-cap:]
}
