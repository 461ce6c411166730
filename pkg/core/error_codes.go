package core

// ErrorCode is a stable, machine-readable reason attached to an ExchangeError.
type ErrorCode string

// Error code constants.
const (
	ErrCodeNetwork           ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeRateLimit         ErrorCode = "RATE_LIMIT"
	ErrCodeIPBanned          ErrorCode = "IP_BANNED"
	ErrCodeAuth              ErrorCode = "AUTH_ERROR"
	ErrCodeTimestamp         ErrorCode = "TIMESTAMP_OUTSIDE_RECV_WINDOW"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeServerError       ErrorCode = "SERVER_ERROR"
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidOrder      ErrorCode = "INVALID_ORDER"
	ErrCodeInvalidSymbol     ErrorCode = "INVALID_SYMBOL"
	ErrCodeUnknown           ErrorCode = "UNKNOWN"

	// Local errors
	ErrCodeInvalidParameter  ErrorCode = "INVALID_PARAMETER"
	ErrCodeInvalidConfig     ErrorCode = "INVALID_CONFIG"
	ErrCodeNoCredentials     ErrorCode = "NO_CREDENTIALS"
	ErrCodeClientClosed      ErrorCode = "CLIENT_CLOSED"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// ReasonForCode maps a Binance numeric error code to a reason.
// Codes in -1000..-1099 are general server/network issues, -1100..-1199 request
// issues and -2000..-2099 order/account rejections.
func ReasonForCode(code int) ErrorCode {
	switch code {
	case -1003, -1015:
		return ErrCodeRateLimit
	case -1021:
		return ErrCodeTimestamp
	case -1002, -1022, -2014, -2015:
		return ErrCodeAuth
	case -1121:
		return ErrCodeInvalidSymbol
	case -2011, -2013:
		return ErrCodeNotFound
	case -2010, -2018, -2019:
		return ErrCodeInsufficientFunds
	case -1000, -1001, -1006, -1007, -1016:
		return ErrCodeServerError
	}
	switch {
	case code <= -1100 && code > -1200:
		return ErrCodeBadRequest
	case code <= -2000 && code > -3000:
		return ErrCodeInvalidOrder
	case code <= -1000 && code > -1100:
		return ErrCodeBadRequest
	default:
		return ErrCodeUnknown
	}
}

// IsErrorCode checks if the error carries the specified reason.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsExchangeError(err)
	return ok && e.Reason == code
}
