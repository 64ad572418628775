package domain

// Side is one leg of a cross-venue trade.
type Side string

const (
	// SideBuy buys the base asset on the cheaper venue.
	SideBuy Side = "BUY"

	// SideSell sells the base asset on the dearer venue.
	SideSell Side = "SELL"
)

// String returns a human-readable description of the side.
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	default:
		return "Unknown"
	}
}
