package core

import (
	"fmt"
	"net/http"
)

// Operation identifies one entry of the endpoint catalog.
type Operation int

// Operation constants define all supported REST endpoints.
const (
	// OpPing tests connectivity.
	OpPing Operation = iota
	// OpServerTime returns the exchange clock.
	OpServerTime
	// OpExchangeInfo returns trading rules and symbol filters.
	OpExchangeInfo
	// OpSymbolPrice returns the latest price for one or all symbols.
	OpSymbolPrice
	// OpKlines returns candlestick data.
	OpKlines
	// OpDepth returns the order book.
	OpDepth
	// OpPlaceOrder submits a new order.
	OpPlaceOrder
	// OpCancelOrder cancels an active order.
	OpCancelOrder
	// OpOrderStatus returns the state of one order.
	OpOrderStatus
	// OpOpenOrders returns all open orders.
	OpOpenOrders
	// OpAllOrders returns active, canceled and filled orders.
	OpAllOrders
	// OpMyTrades returns the account's trades for a symbol.
	OpMyTrades
	// OpAccount returns account information and balances.
	OpAccount
	// OpCreateListenKey starts a user data stream.
	OpCreateListenKey
	// OpRenewListenKey keeps a user data stream alive.
	OpRenewListenKey
	// OpCloseListenKey closes a user data stream.
	OpCloseListenKey

	numOperations
)

var operationNames = [...]string{
	"PING",
	"SERVER_TIME",
	"EXCHANGE_INFO",
	"SYMBOL_PRICE",
	"KLINES",
	"DEPTH",
	"PLACE_ORDER",
	"CANCEL_ORDER",
	"ORDER_STATUS",
	"OPEN_ORDERS",
	"ALL_ORDERS",
	"MY_TRADES",
	"ACCOUNT",
	"CREATE_LISTEN_KEY",
	"RENEW_LISTEN_KEY",
	"CLOSE_LISTEN_KEY",
}

// String returns the string representation of the operation.
func (o Operation) String() string {
	if o < 0 || o >= numOperations {
		return fmt.Sprintf("OPERATION(%d)", int(o))
	}
	return operationNames[o]
}

// Endpoint describes how an operation maps onto the REST API.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Signed bool   `json:"signed"`
	Weight int    `json:"weight"`
}

const apiPrefix = "/api/v3"

var catalog = [numOperations]Endpoint{
	OpPing:            {http.MethodGet, apiPrefix + "/ping", false, 1},
	OpServerTime:      {http.MethodGet, apiPrefix + "/time", false, 1},
	OpExchangeInfo:    {http.MethodGet, apiPrefix + "/exchangeInfo", false, 20},
	OpSymbolPrice:     {http.MethodGet, apiPrefix + "/ticker/price", false, 2},
	OpKlines:          {http.MethodGet, apiPrefix + "/klines", false, 2},
	OpDepth:           {http.MethodGet, apiPrefix + "/depth", false, 5},
	OpPlaceOrder:      {http.MethodPost, apiPrefix + "/order", true, 1},
	OpCancelOrder:     {http.MethodDelete, apiPrefix + "/order", true, 1},
	OpOrderStatus:     {http.MethodGet, apiPrefix + "/order", true, 4},
	OpOpenOrders:      {http.MethodGet, apiPrefix + "/openOrders", true, 6},
	OpAllOrders:       {http.MethodGet, apiPrefix + "/allOrders", true, 20},
	OpMyTrades:        {http.MethodGet, apiPrefix + "/myTrades", true, 20},
	OpAccount:         {http.MethodGet, apiPrefix + "/account", true, 20},
	OpCreateListenKey: {http.MethodPost, apiPrefix + "/userDataStream", true, 2},
	OpRenewListenKey:  {http.MethodPut, apiPrefix + "/userDataStream", true, 2},
	OpCloseListenKey:  {http.MethodDelete, apiPrefix + "/userDataStream", true, 2},
}

// Lookup returns the catalog entry for op.
func Lookup(op Operation) (Endpoint, error) {
	if op < 0 || op >= numOperations {
		return Endpoint{}, fmt.Errorf("unsupported operation: %s", op)
	}
	return catalog[op], nil
}

// Operations returns every catalog operation in declaration order.
func Operations() []Operation {
	ops := make([]Operation, 0, numOperations)
	for op := Operation(0); op < numOperations; op++ {
		ops = append(ops, op)
	}
	return ops
}

// IsOrderPlacement reports whether op creates an order and must pass order validation.
func (o Operation) IsOrderPlacement() bool {
	return o == OpPlaceOrder
}

// Idempotent reports whether repeating op cannot change exchange state twice.
func (o Operation) Idempotent() bool {
	switch o {
	case OpPlaceOrder, OpCreateListenKey:
		return false
	default:
		return true
	}
}
