package domain

import (
	"sort"
	"strings"
)

// VenueID names a price source.
type VenueID string

const (
	VenueJupiter VenueID = "Jupiter"
	VenueRaydium VenueID = "Raydium"
	VenueOrca    VenueID = "Orca"
	VenueMeteora VenueID = "Meteora"
)

// DefaultVenuePriority is the tie-break order when two venues quote the same price.
var DefaultVenuePriority = []VenueID{VenueJupiter, VenueRaydium, VenueOrca, VenueMeteora}

// ParseVenueID maps a config name to its VenueID, case-insensitively. Unknown
// names are kept as given.
func ParseVenueID(name string) VenueID {
	for _, v := range DefaultVenuePriority {
		if strings.EqualFold(string(v), name) {
			return v
		}
	}
	return VenueID(name)
}

// Known reports whether v is one of the built-in venues.
func (v VenueID) Known() bool {
	for _, k := range DefaultVenuePriority {
		if k == v {
			return true
		}
	}
	return false
}

// VenueOrder ranks venues deterministically: listed venues by position, then
// unlisted venues lexically after them.
type VenueOrder struct {
	rank map[VenueID]int
}

// NewVenueOrder builds an order from a priority list. Duplicates keep their first position.
func NewVenueOrder(priority []VenueID) VenueOrder {
	rank := make(map[VenueID]int, len(priority))
	for i, v := range priority {
		if _, ok := rank[v]; !ok {
			rank[v] = i
		}
	}
	return VenueOrder{rank: rank}
}

// Less reports whether a comes before b.
func (o VenueOrder) Less(a, b VenueID) bool {
	ra, aok := o.rank[a]
	rb, bok := o.rank[b]
	switch {
	case aok && bok:
		return ra < rb
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

// Sort orders ids in place.
func (o VenueOrder) Sort(ids []VenueID) {
	sort.SliceStable(ids, func(i, j int) bool { return o.Less(ids[i], ids[j]) })
}
