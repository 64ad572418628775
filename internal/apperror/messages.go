package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeVenueUnavailable:  "Venue unavailable",
	CodeQuoteAbsent:       "Venue returned no quote for pair",
	CodeInvalidQuote:      "Invalid quote data",
	CodeVenueClientError:  "Venue rejected the request",
	CodeVenueTimeout:      "Venue request timed out",
	CodeVenueServerError:  "Venue server error",
	CodeRateLimitExceeded: "Rate limit exceeded",
	CodeDecodeTransient:   "Venue response could not be decoded",
	CodeRetryExhausted:    "Retry budget exhausted",
	CodeCircuitOpen:       "Circuit breaker open",

	CodeInsufficientCoverage: "Fewer than two venues answered",
	CodeTrendUnavailable:     "Not enough history for trend",
	CodeReferencePriceFailed: "Reference price unavailable",
	CodePoolListingFailed:    "Pool listing unavailable",
	CodeUnknownToken:         "Unknown token",

	CodeHistoryWriteFailed: "Failed to write history",
	CodeHistoryReadFailed:  "Failed to read history",
	CodeArchiveFailed:      "Failed to archive history partition",
	CodeCacheMiss:          "Cache miss",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",
}
