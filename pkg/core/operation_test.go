package core

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{"ping", OpPing, "PING"},
		{"server_time", OpServerTime, "SERVER_TIME"},
		{"place_order", OpPlaceOrder, "PLACE_ORDER"},
		{"close_listen_key", OpCloseListenKey, "CLOSE_LISTEN_KEY"},
		{"out_of_range", Operation(99), "OPERATION(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.String())
		})
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		op     Operation
		method string
		path   string
		signed bool
	}{
		{OpPing, http.MethodGet, "/api/v3/ping", false},
		{OpServerTime, http.MethodGet, "/api/v3/time", false},
		{OpExchangeInfo, http.MethodGet, "/api/v3/exchangeInfo", false},
		{OpSymbolPrice, http.MethodGet, "/api/v3/ticker/price", false},
		{OpKlines, http.MethodGet, "/api/v3/klines", false},
		{OpDepth, http.MethodGet, "/api/v3/depth", false},
		{OpPlaceOrder, http.MethodPost, "/api/v3/order", true},
		{OpCancelOrder, http.MethodDelete, "/api/v3/order", true},
		{OpOrderStatus, http.MethodGet, "/api/v3/order", true},
		{OpOpenOrders, http.MethodGet, "/api/v3/openOrders", true},
		{OpAllOrders, http.MethodGet, "/api/v3/allOrders", true},
		{OpMyTrades, http.MethodGet, "/api/v3/myTrades", true},
		{OpAccount, http.MethodGet, "/api/v3/account", true},
		{OpCreateListenKey, http.MethodPost, "/api/v3/userDataStream", true},
		{OpRenewListenKey, http.MethodPut, "/api/v3/userDataStream", true},
		{OpCloseListenKey, http.MethodDelete, "/api/v3/userDataStream", true},
	}

	for _, tt := range tests {
		t.Run(strings.ToLower(tt.op.String()), func(t *testing.T) {
			ep, err := Lookup(tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.method, ep.Method)
			assert.Equal(t, tt.path, ep.Path)
			assert.Equal(t, tt.signed, ep.Signed)
			assert.Positive(t, ep.Weight)
		})
	}

	assert.Len(t, Operations(), len(tests))
}

func TestLookup_Unsupported(t *testing.T) {
	_, err := Lookup(Operation(-1))
	assert.Error(t, err)

	_, err = Lookup(numOperations)
	assert.Error(t, err)
}

func TestOperation_Idempotent(t *testing.T) {
	assert.False(t, OpPlaceOrder.Idempotent())
	assert.False(t, OpCreateListenKey.Idempotent())
	assert.True(t, OpCancelOrder.Idempotent())
	assert.True(t, OpAccount.Idempotent())
	assert.True(t, OpPlaceOrder.IsOrderPlacement())
	assert.False(t, OpCancelOrder.IsOrderPlacement())
}
