// Package domain contains the core domain types for the pricing context.
package domain

import (
	"fmt"
	"strings"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
	"github.com/fd1az/dex-arbitrage-scanner/internal/asset"
)

// Pair is a trading pair, priced as quote-per-base.
type Pair struct {
	Base  asset.Token
	Quote asset.Token
}

// NewPair rejects unset tokens and self-pairs.
func NewPair(base, quote asset.Token) (Pair, error) {
	if base.IsZero() || quote.IsZero() {
		return Pair{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("pair has an unset token"))
	}
	if base.Equals(quote) {
		return Pair{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("pair %s/%s uses the same mint twice", base.Symbol(), quote.Symbol())))
	}
	return Pair{Base: base, Quote: quote}, nil
}

// ParsePair resolves "SOL/BONK" (symbols or mints) through the registry.
func ParsePair(s string, reg *asset.Registry) (Pair, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Pair{}, apperror.New(apperror.CodeInvalidFormat,
			apperror.WithContext(fmt.Sprintf("pair %q: want BASE/QUOTE", s)))
	}

	base, ok := reg.Resolve(strings.TrimSpace(parts[0]))
	if !ok {
		return Pair{}, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(parts[0]))
	}
	quote, ok := reg.Resolve(strings.TrimSpace(parts[1]))
	if !ok {
		return Pair{}, apperror.New(apperror.CodeUnknownToken, apperror.WithContext(parts[1]))
	}
	return NewPair(base, quote)
}

// String renders "SOL/BONK".
func (p Pair) String() string {
	return p.Base.Symbol() + "/" + p.Quote.Symbol()
}

// Token is the asset tracked for this pair's history: the non-base side.
func (p Pair) Token() asset.Token {
	return p.Quote
}

// Invert swaps base and quote.
func (p Pair) Invert() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}
