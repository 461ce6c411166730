package binance

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"spotwire/pkg/core"
	"spotwire/pkg/order"
)

const (
	// APIKeyHeader carries the API key on every call.
	APIKeyHeader = "X-MBX-APIKEY"
	// FormContentType is sent on every call; POST bodies are form encoded.
	FormContentType = "application/x-www-form-urlencoded"
)

var _ core.Protocol = (*Protocol)(nil)

// Protocol implements core.Protocol for the Binance spot REST API.
// It assembles signed requests and classifies raw responses; it performs no I/O.
type Protocol struct {
	recvWindow time.Duration
	now        func() int64
}

// NewProtocol creates a protocol that stamps signed requests with now() (milliseconds)
// and adds recvWindow when it is positive.
func NewProtocol(recvWindow time.Duration, now func() int64) *Protocol {
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Protocol{recvWindow: recvWindow, now: now}
}

// Name returns the protocol identifier "binance".
func (p *Protocol) Name() string {
	return "binance"
}

// BuildRequest assembles the wire request for op. Caller params keep their order,
// except order placements, which are rebuilt from the validated order so the sent
// fields are the checked ones. Signed requests get recvWindow, timestamp and
// finally signature appended.
// POST parameters are sent as the body, every other method uses the query string.
func (p *Protocol) BuildRequest(op core.Operation, params *core.Params, creds *core.Credentials) (*core.Request, error) {
	ep, err := core.Lookup(op)
	if err != nil {
		return nil, core.NewValidationError("operation", err.Error())
	}

	wire := params.Clone()
	if op.IsOrderPlacement() {
		if wire, err = order.Normalize(params); err != nil {
			return nil, withOp(err, op)
		}
	}

	req := core.NewRequest(op, ep)
	if ep.Signed {
		if creds == nil || creds.Validate() != nil {
			return nil, noCredentials(op)
		}
		wire.Del("signature")
		if p.recvWindow > 0 {
			wire.SetInt("recvWindow", p.recvWindow.Milliseconds())
		}
		var sc SignatureContext
		wire, sc = NewSigner(creds.SecretKey).Stamp(wire, p.now())
		req.TimestampMs = sc.TimestampMs
	}

	encoded := wire.Encode()
	if ep.Method == http.MethodPost {
		req.Body = encoded
	} else {
		req.Query = encoded
	}

	req.SetHeader("Content-Type", FormContentType)
	if creds != nil && creds.APIKey != "" {
		req.SetHeader(APIKeyHeader, creds.APIKey)
	}
	return req, nil
}

type binanceAPIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ParseResponse classifies a raw response. The checks run in a fixed order:
// status >= 400 is an HTTP error (body fields are used when present),
// a negative code in the body is an API error, an undecodable body is a
// decode error, and anything else is a success. An empty body is a success
// with a nil Value.
func (p *Protocol) ParseResponse(op core.Operation, statusCode int, headers map[string]string, body []byte) (*core.Result, error) {
	if statusCode >= http.StatusBadRequest {
		var apiErr binanceAPIError
		if err := sonic.Unmarshal(body, &apiErr); err != nil {
			return nil, core.NewHTTPError(statusCode, 0, "").WithOperation(op)
		}
		return nil, core.NewHTTPError(statusCode, apiErr.Code, apiErr.Msg).WithOperation(op)
	}

	result := &core.Result{StatusCode: statusCode, Headers: headers, Body: body}
	if len(bytes.TrimSpace(body)) == 0 {
		return result, nil
	}

	var value any
	if err := sonic.Unmarshal(body, &value); err != nil {
		return nil, core.NewDecodeError(statusCode, err).WithOperation(op)
	}

	if obj, ok := value.(map[string]any); ok {
		if code, ok := negativeCode(obj["code"]); ok {
			msg, _ := obj["msg"].(string)
			return nil, core.NewAPIError(statusCode, code, msg).WithOperation(op)
		}
	}

	result.Value = value
	return result, nil
}

func negativeCode(v any) (int, bool) {
	var code int
	switch n := v.(type) {
	case float64:
		code = int(n)
	case int64:
		code = int(n)
	case int:
		code = n
	default:
		return 0, false
	}
	return code, code < 0
}

func noCredentials(op core.Operation) error {
	e := core.NewValidationError("credentials", "api key and secret key are required for signed requests")
	e.Reason = core.ErrCodeNoCredentials
	e.Err = core.ErrNoCredentials
	return e.WithOperation(op)
}

func withOp(err error, op core.Operation) error {
	if e, ok := core.AsExchangeError(err); ok {
		return e.WithOperation(op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
