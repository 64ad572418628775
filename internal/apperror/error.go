package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"
)

// AppError implements the error interface and provides structured error handling
type AppError struct {
	Code       Code      `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode,omitempty"`
	Context    string    `json:"context,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	cause      error
	stack      []uintptr
}

// Error implements the error interface
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Context)
		sb.WriteString(")")
	}
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another AppError by code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// LogAttrs flattens the error into slog key/value pairs.
func (e *AppError) LogAttrs() []any {
	attrs := []any{"error_code", string(e.Code), "error", e.Message}
	if e.Context != "" {
		attrs = append(attrs, "error_context", e.Context)
	}
	if e.StatusCode != 0 {
		attrs = append(attrs, "status_code", e.StatusCode)
	}
	if e.cause != nil {
		attrs = append(attrs, "cause", e.cause.Error())
	}
	return attrs
}

// Stack returns the captured call stack, one frame per line.
func (e *AppError) Stack() string {
	var sb strings.Builder
	frames := runtime.CallersFrames(e.stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("\n\t%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[:n]
}

// New creates a new AppError with the given code and options
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:      code,
		Message:   messages[code],
		Timestamp: time.Now(),
		stack:     captureStack(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

// Option is a functional option for AppError
type Option func(*AppError)

// WithMessage sets a custom message
func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

// WithContext adds context information
func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

// WithStatusCode records the upstream HTTP status that produced the error.
func WithStatusCode(statusCode int) Option {
	return func(e *AppError) {
		e.StatusCode = statusCode
	}
}

// WithCause wraps an underlying error
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// FromStatus classifies an upstream HTTP status. It returns nil for 2xx/3xx.
func FromStatus(status int, where string) *AppError {
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusTooManyRequests:
		return New(CodeRateLimitExceeded, WithContext(where), WithStatusCode(status))
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return New(CodeVenueTimeout, WithContext(where), WithStatusCode(status))
	case status >= http.StatusInternalServerError:
		return New(CodeVenueServerError, WithContext(where), WithStatusCode(status))
	case status == http.StatusNotFound:
		return New(CodeQuoteAbsent, WithContext(where), WithStatusCode(status))
	default:
		return New(CodeVenueClientError, WithContext(where), WithStatusCode(status))
	}
}

// FromTransport classifies a transport-level failure (dial, timeout, reset).
func FromTransport(err error, where string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return New(CodeVenueTimeout, WithContext(where), WithCause(err))
	}
	if errors.Is(err, context.Canceled) {
		return New(CodeVenueUnavailable, WithContext(where), WithCause(err))
	}
	// Connection resets and refused dials are worth another attempt.
	return New(CodeVenueServerError, WithContext(where), WithCause(err))
}

// Wrap wraps a standard error into AppError
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if context != "" && appErr.Context == "" {
			appErr.Context = context
		}
		return appErr
	}

	return New(code, WithContext(context), WithCause(err))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &AppError{Code: code})
}

// IsRetryable reports whether err is worth another attempt.
// Per-attempt deadlines and network timeouts count as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return transient[appErr.Code]
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
