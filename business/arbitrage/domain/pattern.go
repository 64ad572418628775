package domain

// Pattern classifies an executed arbitrage transaction.
type Pattern int

const (
	PatternUnknown Pattern = iota
	PatternTriangular
	PatternCrossPool
	PatternAggregated
)

func (p Pattern) String() string {
	switch p {
	case PatternTriangular:
		return "Triangular"
	case PatternCrossPool:
		return "CrossPool"
	case PatternAggregated:
		return "Aggregated"
	default:
		return "Unknown"
	}
}

// EventKind is the kind of a decoded program log event.
type EventKind int

const (
	EventOther EventKind = iota
	EventSwap
)

// Well-known program names.
const (
	ProgramJupiter = "Jupiter"
)

// LogEvent is one structured program log event of a transaction.
type LogEvent struct {
	Program string
	Kind    EventKind
}

// ClassifyPattern tags a transaction by its swap count: three or more swaps
// close a triangle, two cross pools. Fewer swaps routed through the Jupiter
// program are aggregated trades.
func ClassifyPattern(events []LogEvent) Pattern {
	swaps := 0
	viaJupiter := false
	for _, e := range events {
		if e.Kind == EventSwap {
			swaps++
		}
		if e.Program == ProgramJupiter {
			viaJupiter = true
		}
	}

	switch {
	case swaps >= 3:
		return PatternTriangular
	case swaps == 2:
		return PatternCrossPool
	case viaJupiter:
		return PatternAggregated
	default:
		return PatternUnknown
	}
}
