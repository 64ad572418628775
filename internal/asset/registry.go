package asset

import (
	"sort"
	"strings"
	"sync"
)

// Registry indexes tokens by mint and by symbol. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	byAddress map[Address]Token
	bySymbol  map[string]Token
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[Address]Token),
		bySymbol:  make(map[string]Token),
	}
}

// Register adds t. A token already known by address is kept as first seen.
// Symbols are not unique on-chain; the first token registered under a symbol wins
// symbol lookups.
func (r *Registry) Register(t Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAddress[t.address]; ok {
		return
	}
	r.byAddress[t.address] = t

	key := strings.ToUpper(t.symbol)
	if _, ok := r.bySymbol[key]; !ok {
		r.bySymbol[key] = t
	}
}

// Get looks a token up by mint.
func (r *Registry) Get(addr Address) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byAddress[addr]
	return t, ok
}

// BySymbol looks a token up by symbol, case-insensitively.
func (r *Registry) BySymbol(symbol string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// Resolve accepts either a symbol or a mint address.
func (r *Registry) Resolve(ref string) (Token, bool) {
	if t, ok := r.BySymbol(ref); ok {
		return t, true
	}
	return r.Get(Address(ref))
}

// All returns registered tokens sorted by symbol.
func (r *Registry) All() []Token {
	r.mu.RLock()
	out := make([]Token, 0, len(r.byAddress))
	for _, t := range r.byAddress {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].symbol < out[j].symbol })
	return out
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}
