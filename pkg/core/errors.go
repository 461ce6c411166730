package core

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the class of a failed call.
type ErrorType int

// Error type constants. The class decides where the failure happened, not why.
const (
	// ErrorTypeValidation indicates a locally detected parameter problem; no network call was made.
	ErrorTypeValidation ErrorType = iota
	// ErrorTypeTransport indicates a connection-level failure (DNS, refused, timeout, redirect refused).
	ErrorTypeTransport
	// ErrorTypeHTTP indicates the server answered with a status code of 400 or above.
	ErrorTypeHTTP
	// ErrorTypeAPI indicates a status below 400 whose body carries a negative exchange code.
	ErrorTypeAPI
	// ErrorTypeDecode indicates a non-error status whose body is not valid JSON.
	ErrorTypeDecode
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeTransport:
		return "TRANSPORT"
	case ErrorTypeHTTP:
		return "HTTP"
	case ErrorTypeAPI:
		return "API"
	case ErrorTypeDecode:
		return "DECODE"
	default:
		return "UNKNOWN"
	}
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrNoCredentials is returned when a signed call is attempted without both API and secret key.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrRedirectRefused is returned when a signed request is answered with a redirect.
	ErrRedirectRefused = errors.New("redirect refused for signed request")
)

// ExchangeError is the single failure value returned by every client operation.
type ExchangeError struct {
	// Type is the failure class.
	Type ErrorType `json:"type"`
	// Reason narrows the failure down for retry decisions.
	Reason ErrorCode `json:"reason"`
	// StatusCode is the HTTP status, zero for validation and transport errors.
	StatusCode int `json:"status_code"`
	// Code is the exchange error code, zero when the body carried none.
	Code int `json:"code"`
	// Message is the exchange message or a local description.
	Message string `json:"message"`
	// Operation names the catalog entry that failed.
	Operation string `json:"operation,omitempty"`
	// Field is the offending parameter for validation errors.
	Field string `json:"field,omitempty"`
	// ClientOrderID is set on order placement so the caller can reconcile.
	ClientOrderID string `json:"client_order_id,omitempty"`
	// OutcomeUnknown is true when the request may have reached the exchange
	// but no response was received. Order state must be reconciled by the caller.
	OutcomeUnknown bool `json:"outcome_unknown"`
	// NotSent is true when a transport failure proves the request never left the client.
	NotSent bool `json:"not_sent,omitempty"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`

	op    Operation
	hasOp bool
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	op := e.Operation
	if op == "" {
		op = "binance"
	}
	switch {
	case e.Code != 0:
		return fmt.Sprintf("[%s] %s (%d/%d): %s", op, e.Type, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("[%s] %s (%d): %s", op, e.Type, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("[%s] %s: %s", op, e.Type, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// WithOperation records the failing operation and returns the error for chaining.
func (e *ExchangeError) WithOperation(op Operation) *ExchangeError {
	e.Operation = op.String()
	e.op, e.hasOp = op, true
	return e
}

// NewValidationError creates a validation error for the named parameter.
func NewValidationError(field, message string) *ExchangeError {
	return &ExchangeError{
		Type:      ErrorTypeValidation,
		Reason:    ErrCodeInvalidParameter,
		Field:     field,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewTransportError wraps a connection-level failure.
func NewTransportError(err error) *ExchangeError {
	reason := ErrCodeNetwork
	if isTimeout(err) {
		reason = ErrCodeTimeout
	}
	return &ExchangeError{
		Type:      ErrorTypeTransport,
		Reason:    reason,
		Message:   err.Error(),
		Err:       err,
		Timestamp: time.Now(),
	}
}

// NewHTTPError creates an error for a response with status >= 400.
// The message falls back to the status text when the body carried none.
func NewHTTPError(statusCode, code int, message string) *ExchangeError {
	if message == "" {
		message = fmt.Sprintf("HTTP error: %d %s", statusCode, http.StatusText(statusCode))
	}
	return &ExchangeError{
		Type:       ErrorTypeHTTP,
		Reason:     reasonForStatus(statusCode, code),
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// NewAPIError creates an error for an in-band negative exchange code.
func NewAPIError(statusCode, code int, message string) *ExchangeError {
	return &ExchangeError{
		Type:       ErrorTypeAPI,
		Reason:     ReasonForCode(code),
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// NewDecodeError wraps a JSON decoding failure of a non-error response.
func NewDecodeError(statusCode int, err error) *ExchangeError {
	return &ExchangeError{
		Type:       ErrorTypeDecode,
		Reason:     ErrCodeMalformedResponse,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("decode response: %v", err),
		Err:        err,
		Timestamp:  time.Now(),
	}
}

// AsExchangeError extracts an ExchangeError from err.
func AsExchangeError(err error) (*ExchangeError, bool) {
	var e *ExchangeError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func isType(err error, t ErrorType) bool {
	e, ok := AsExchangeError(err)
	return ok && e.Type == t
}

// IsValidationError returns true if the call was rejected locally before any network activity.
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsTransportError returns true if the call failed at the connection level.
func IsTransportError(err error) bool {
	return isType(err, ErrorTypeTransport)
}

// IsHTTPError returns true if the server answered with status >= 400.
func IsHTTPError(err error) bool {
	return isType(err, ErrorTypeHTTP)
}

// IsAPIError returns true if the exchange reported a negative code with a non-error status.
func IsAPIError(err error) bool {
	return isType(err, ErrorTypeAPI)
}

// IsDecodeError returns true if a non-error response body could not be decoded.
func IsDecodeError(err error) bool {
	return isType(err, ErrorTypeDecode)
}

// IsRateLimitError returns true for HTTP 429/418 and rate-limit exchange codes.
func IsRateLimitError(err error) bool {
	e, ok := AsExchangeError(err)
	return ok && (e.Reason == ErrCodeRateLimit || e.Reason == ErrCodeIPBanned)
}

// IsAuthenticationError returns true if the exchange rejected the key, signature or timestamp.
func IsAuthenticationError(err error) bool {
	e, ok := AsExchangeError(err)
	return ok && (e.Reason == ErrCodeAuth || e.Reason == ErrCodeTimestamp)
}

// IsOutcomeUnknown returns true if a state-changing request may or may not have been applied.
// Callers must look the order up before treating it as not placed.
func IsOutcomeUnknown(err error) bool {
	e, ok := AsExchangeError(err)
	return ok && e.OutcomeUnknown
}

// IsRetryable reports whether a wrapping layer may safely retry the call.
// Rate limit rejections are always retryable. Transport failures and 5xx responses
// are retryable only for idempotent operations, or when the request was never sent.
// Outcome-unknown failures, a closed client and errors without a recorded
// operation are not.
func IsRetryable(err error) bool {
	e, ok := AsExchangeError(err)
	if !ok || e.OutcomeUnknown {
		return false
	}
	switch e.Type {
	case ErrorTypeTransport:
		if e.Reason == ErrCodeClientClosed {
			return false
		}
		return e.NotSent || e.idempotent()
	case ErrorTypeHTTP:
		if e.Reason == ErrCodeRateLimit || e.Reason == ErrCodeIPBanned {
			return true
		}
		return e.StatusCode >= http.StatusInternalServerError && e.idempotent()
	case ErrorTypeAPI:
		return e.Reason == ErrCodeRateLimit
	default:
		return false
	}
}

func (e *ExchangeError) idempotent() bool {
	return e.hasOp && e.op.Idempotent()
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func reasonForStatus(status, code int) ErrorCode {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrCodeRateLimit
	case status == http.StatusTeapot:
		return ErrCodeIPBanned
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeAuth
	case status >= http.StatusInternalServerError:
		return ErrCodeServerError
	case code != 0:
		return ReasonForCode(code)
	default:
		return ErrCodeBadRequest
	}
}
