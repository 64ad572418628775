package jupiter

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// priceResponse is the price API body: {"data": {"<mint>": {"price": ...}}}.
type priceResponse struct {
	Data map[string]priceEntry `json:"data"`
}

type priceEntry struct {
	ID    string    `json:"id"`
	Price flexFloat `json:"price"`
}

// quoteResponse carries the fields read from the quote API. Amounts are raw
// integer strings in each token's smallest unit.
type quoteResponse struct {
	InputMint   string `json:"inputMint"`
	OutputMint  string `json:"outputMint"`
	InAmount    string `json:"inAmount"`
	OutAmount   string `json:"outAmount"`
	PriceImpact string `json:"priceImpactPct"`
	Error       string `json:"error"`
}

// flexFloat accepts a JSON number or a numeric string. Anything else decodes to 0.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}
