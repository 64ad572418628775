package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Venue errors. Only the transient group is retried.
const (
	CodeVenueUnavailable Code = "VENUE_UNAVAILABLE"
	CodeQuoteAbsent      Code = "QUOTE_ABSENT"
	CodeInvalidQuote     Code = "INVALID_QUOTE"
	CodeVenueClientError Code = "VENUE_CLIENT_ERROR"

	// Transient
	CodeVenueTimeout      Code = "VENUE_TIMEOUT"
	CodeVenueServerError  Code = "VENUE_SERVER_ERROR"
	CodeRateLimitExceeded Code = "RATE_LIMIT_EXCEEDED"
	CodeDecodeTransient   Code = "DECODE_TRANSIENT"

	CodeRetryExhausted Code = "RETRY_EXHAUSTED"
	CodeCircuitOpen    Code = "CIRCUIT_OPEN"
)

// Detection errors
const (
	CodeInsufficientCoverage Code = "INSUFFICIENT_COVERAGE"
	CodeTrendUnavailable     Code = "TREND_UNAVAILABLE"
	CodeReferencePriceFailed Code = "REFERENCE_PRICE_FAILED"
	CodePoolListingFailed    Code = "POOL_LISTING_FAILED"
	CodeUnknownToken         Code = "UNKNOWN_TOKEN"
)

// Storage errors
const (
	CodeHistoryWriteFailed Code = "HISTORY_WRITE_FAILED"
	CodeHistoryReadFailed  Code = "HISTORY_READ_FAILED"
	CodeArchiveFailed      Code = "ARCHIVE_FAILED"
	CodeCacheMiss          Code = "CACHE_MISS"
)

// WebSocket errors
const (
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"
)

// transient lists the codes a retry policy may repeat.
var transient = map[Code]bool{
	CodeVenueTimeout:      true,
	CodeVenueServerError:  true,
	CodeRateLimitExceeded: true,
	CodeDecodeTransient:   true,
}
