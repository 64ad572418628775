// Package asset models SPL tokens and raw on-chain amounts.
package asset

import (
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// MaxDecimals rejects obviously broken token metadata.
const MaxDecimals = 30

// Address is a base58 Solana public key (a token mint).
type Address string

// ParseAddress checks that s decodes to a 32-byte public key.
func ParseAddress(s string) (Address, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return "", apperror.New(apperror.CodeInvalidFormat,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("mint %q is not base58", s)))
	}
	if len(raw) != 32 {
		return "", apperror.New(apperror.CodeInvalidFormat,
			apperror.WithContext(fmt.Sprintf("mint %q decodes to %d bytes, want 32", s, len(raw))))
	}
	return Address(s), nil
}

func (a Address) String() string {
	return string(a)
}

// Token is immutable once discovered. The address is its identity; the symbol
// is display metadata.
type Token struct {
	address  Address
	symbol   string
	decimals uint8
}

// NewToken validates the mint and decimals.
func NewToken(address, symbol string, decimals uint8) (Token, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return Token{}, err
	}
	if symbol == "" {
		return Token{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("empty symbol for "+address))
	}
	if decimals > MaxDecimals {
		return Token{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("%s: suspicious decimals %d", symbol, decimals)))
	}
	return Token{address: addr, symbol: symbol, decimals: decimals}, nil
}

// MustNewToken is NewToken for package-level well-known tokens.
func MustNewToken(address, symbol string, decimals uint8) Token {
	t, err := NewToken(address, symbol, decimals)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Token) Address() Address { return t.address }
func (t Token) Symbol() string   { return t.symbol }
func (t Token) Decimals() uint8  { return t.decimals }

// IsZero reports an unset Token.
func (t Token) IsZero() bool {
	return t.address == ""
}

// Equals compares by mint address.
func (t Token) Equals(other Token) bool {
	return t.address == other.address
}

func (t Token) String() string {
	return t.symbol
}
