// Package binance streams the best bid and ask for one symbol from Binance and
// serves the mid-price as a USD reference.
package binance

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// WebSocket request/response messages

// WSRequest is a WebSocket subscription request.
type WSRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

// WSResponse is a WebSocket subscription response.
type WSResponse struct {
	Result json.RawMessage `json:"result"`
	ID     int64           `json:"id"`
}

// StreamEvent is the combined-stream wrapper.
type StreamEvent struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// BookTickerEvent represents best bid/ask update (real-time).
// Stream: <symbol>@bookTicker
type BookTickerEvent struct {
	UpdateID int64  `json:"u"` // Order book updateId
	Symbol   string `json:"s"` // Symbol
	BidPrice string `json:"b"` // Best bid price
	BidQty   string `json:"B"` // Best bid qty
	AskPrice string `json:"a"` // Best ask price
	AskQty   string `json:"A"` // Best ask qty
}

// Mid returns (bid+ask)/2. Both sides must parse and be positive.
func (e *BookTickerEvent) Mid() (decimal.Decimal, error) {
	bid, err := decimal.NewFromString(e.BidPrice)
	if err != nil {
		return decimal.Zero, err
	}
	ask, err := decimal.NewFromString(e.AskPrice)
	if err != nil {
		return decimal.Zero, err
	}
	if !bid.IsPositive() || !ask.IsPositive() {
		return decimal.Zero, errEmptyBook
	}
	return bid.Add(ask).Div(decimal.NewFromInt(2)), nil
}

// BookTickerResponse is the REST /api/v3/ticker/bookTicker body.
type BookTickerResponse struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	BidQty   string `json:"bidQty"`
	AskPrice string `json:"askPrice"`
	AskQty   string `json:"askQty"`
}

// ToEvent lets REST data flow through the stream handler.
func (r *BookTickerResponse) ToEvent() *BookTickerEvent {
	return &BookTickerEvent{
		Symbol:   r.Symbol,
		BidPrice: r.BidPrice,
		BidQty:   r.BidQty,
		AskPrice: r.AskPrice,
		AskQty:   r.AskQty,
	}
}

// BookTickerStream returns the bookTicker stream name for a symbol.
func BookTickerStream(symbol string) string {
	return strings.ToLower(symbol) + "@bookTicker"
}
