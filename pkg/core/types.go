package core

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/apd/v3"
)

// OrderSide represents the direction of an order (buy or sell).
// The zero value is unset and fails validation.
type OrderSide int

// Order side constants define the direction of a trade.
const (
	// SideBuy indicates an order to purchase an asset.
	SideBuy OrderSide = iota + 1
	// SideSell indicates an order to sell an asset.
	SideSell
)

// String returns the string representation of the order side ("BUY" or "SELL").
func (s OrderSide) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return ""
	}
}

// Valid reports whether s is BUY or SELL.
func (s OrderSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// ParseOrderSide parses "BUY"/"SELL" case-insensitively.
func ParseOrderSide(s string) (OrderSide, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("invalid order side %q", s)
	}
}

// MarshalJSON implements json.Marshaler for OrderSide.
func (s OrderSide) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderSide.
// It accepts both uppercase and lowercase formats.
func (s *OrderSide) UnmarshalJSON(data []byte) error {
	side, err := ParseOrderSide(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// OrderType selects which order variant is placed and which fields it requires.
// The zero value is unset and fails validation.
type OrderType int

// Order type constants.
const (
	// TypeLimit executes at the given price or better.
	TypeLimit OrderType = iota + 1
	// TypeMarket executes immediately at the best available price.
	TypeMarket
	// TypeStopLoss places a limit order at price once stopPrice is reached.
	TypeStopLoss
	// TypeTakeProfit places a limit order at price once stopPrice is reached in profit.
	TypeTakeProfit
)

var orderTypeNames = map[OrderType]string{
	TypeLimit:      "LIMIT",
	TypeMarket:     "MARKET",
	TypeStopLoss:   "STOP_LOSS",
	TypeTakeProfit: "TAKE_PROFIT",
}

// String returns the wire representation of the order type.
func (t OrderType) String() string {
	return orderTypeNames[t]
}

// ParseOrderType parses an order type name case-insensitively.
func ParseOrderType(s string) (OrderType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for t, n := range orderTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("invalid order type %q", s)
}

// MarshalJSON implements json.Marshaler for OrderType.
func (t OrderType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for OrderType.
func (t *OrderType) UnmarshalJSON(data []byte) error {
	v, err := ParseOrderType(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// TimeInForce defines how long an order remains active.
// The zero value means "use the default for the order type".
type TimeInForce int

// Time in force constants define order lifetime behavior.
const (
	// GTC (Good Till Canceled) keeps the order active until filled or canceled.
	GTC TimeInForce = iota + 1
	// IOC (Immediate Or Cancel) requires immediate execution; unfilled portion is canceled.
	IOC
	// FOK (Fill Or Kill) requires complete immediate execution or cancellation.
	FOK
)

// String returns the string representation of time in force.
func (t TimeInForce) String() string {
	switch t {
	case GTC:
		return "GTC"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return ""
	}
}

// ParseTimeInForce parses GTC/IOC/FOK case-insensitively; an empty string yields the unset value.
func ParseTimeInForce(s string) (TimeInForce, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "GTC":
		return GTC, nil
	case "IOC":
		return IOC, nil
	case "FOK":
		return FOK, nil
	default:
		return 0, fmt.Errorf("invalid time in force %q", s)
	}
}

// OrderRequest contains the parameters required to place a new order.
// Price and StopPrice are optional; nil means "not supplied".
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Quantity      apd.Decimal
	Price         *apd.Decimal
	StopPrice     *apd.Decimal
	TimeInForce   TimeInForce
	ClientOrderID string
}

// CancelRequest identifies an order to cancel. One of OrderID or OrigClientOrderID is required.
type CancelRequest struct {
	Symbol            string
	OrderID           int64
	OrigClientOrderID string
}

// OrderQuery identifies an order to look up. One of OrderID or OrigClientOrderID is required.
type OrderQuery struct {
	Symbol            string
	OrderID           int64
	OrigClientOrderID string
}

// Result is a successful response. Body is the raw payload; Value is its generic decoding
// (map[string]any, []any, ...). Field-level typed decoding is done with Decode.
type Result struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       []byte            `json:"-"`
	Value      any               `json:"value"`
}

// Decode unmarshals the raw body into v.
func (r *Result) Decode(v any) error {
	if err := sonic.Unmarshal(r.Body, v); err != nil {
		return NewDecodeError(r.StatusCode, err)
	}
	return nil
}

// FormatSymbol upper-cases a symbol and strips separators ("btc/usdt" -> "BTCUSDT").
func FormatSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "/", "")
	return strings.ReplaceAll(s, "-", "")
}

// FormatDecimal renders d in plain notation without an exponent.
func FormatDecimal(d *apd.Decimal) string {
	return d.Text('f')
}
