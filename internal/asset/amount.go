package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("asset: negative amount")
	ErrZeroAmount     = errors.New("asset: zero amount")
	ErrBadRawAmount   = errors.New("asset: raw amount is not an integer")
)

// Amount is a quantity in a token's smallest unit (lamports for SOL).
type Amount struct {
	raw   *big.Int
	token Token
}

// NewAmount copies raw. Negative amounts are rejected.
func NewAmount(token Token, raw *big.Int) (Amount, error) {
	if raw == nil || raw.Sign() < 0 {
		return Amount{}, ErrNegativeAmount
	}
	return Amount{raw: new(big.Int).Set(raw), token: token}, nil
}

// NewAmountFromUint64 wraps a raw integer amount.
func NewAmountFromUint64(token Token, raw uint64) Amount {
	return Amount{raw: new(big.Int).SetUint64(raw), token: token}
}

// ParseRaw reads a base-10 integer string such as the "inAmount" field of a route quote.
func ParseRaw(token Token, s string) (Amount, error) {
	raw, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrBadRawAmount, s)
	}
	return NewAmount(token, raw)
}

// FromUnits converts a human amount (1.5 SOL) into raw units, truncating extra precision.
func FromUnits(token Token, units decimal.Decimal) (Amount, error) {
	if units.IsNegative() {
		return Amount{}, ErrNegativeAmount
	}
	raw := units.Shift(int32(token.decimals)).Truncate(0).BigInt()
	return Amount{raw: raw, token: token}, nil
}

// Raw returns a copy of the raw value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.raw)
}

// Token returns the denomination.
func (a Amount) Token() Token {
	return a.token
}

// IsZero reports a zero or unset amount.
func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

// ToDecimal scales the raw value by the token's decimals. The conversion is exact.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.token.decimals))
}

// String renders "1.5 SOL".
func (a Amount) String() string {
	return a.ToDecimal().String() + " " + a.token.symbol
}

// PriceOf returns out/in in human units, that is how many out tokens one in token buys.
// The division keeps divPrecision significant decimal places.
func PriceOf(in, out Amount) (decimal.Decimal, error) {
	if in.IsZero() {
		return decimal.Zero, ErrZeroAmount
	}
	if out.IsZero() {
		return decimal.Zero, ErrZeroAmount
	}
	return out.ToDecimal().DivRound(in.ToDecimal(), divPrecision), nil
}

const divPrecision = 18
