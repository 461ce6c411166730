package binance

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotwire/internal/clock"
	"spotwire/internal/transport"
	"spotwire/pkg/core"
	"spotwire/pkg/exchange"
)

// fakeDoer records every request and answers with a fixed response or error.
type fakeDoer struct {
	mu       sync.Mutex
	requests []*core.Request
	status   int
	body     string
	headers  map[string]string
	err      error
}

func (f *fakeDoer) Do(_ context.Context, req *core.Request) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &transport.Response{StatusCode: status, Body: []byte(f.body), Headers: f.headers}, nil
}

func (f *fakeDoer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeDoer) Last() *core.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func fixedClock() *clock.Clock {
	return clock.NewWithNow(time.Minute, func() time.Time { return time.UnixMilli(testNow) })
}

func newFakeClient(t *testing.T, doer *fakeDoer, mutate ...func(*core.Config)) *Client {
	t.Helper()
	cfg := core.DefaultConfig().WithCredentials(testCreds())
	for _, m := range mutate {
		m(cfg)
	}
	c, err := New(cfg,
		WithTransport(doer),
		WithClock(fixedClock()),
		WithIDGenerator(func() string { return "fixed-id" }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func decimal(t *testing.T, s string) *apd.Decimal {
	t.Helper()
	d, _, err := apd.NewFromString(s)
	require.NoError(t, err)
	return d
}

func limitOrder(t *testing.T) *core.OrderRequest {
	req := &core.OrderRequest{Symbol: "btc/usdt", Side: core.SideBuy, Type: core.TypeLimit, Price: decimal(t, "30000")}
	req.Quantity.Set(decimal(t, "1"))
	return req
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.Timeout = 0

	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.True(t, core.IsErrorCode(err, core.ErrCodeInvalidConfig))
}

func TestNew_DefaultTransport(t *testing.T) {
	c, err := New(core.DefaultConfig().WithSandbox(true))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "binance", c.Name())
	assert.NotNil(t, c.Protocol())
	assert.NotNil(t, c.Clock())
}

func TestNew_CopiesCredentials(t *testing.T) {
	creds := testCreds()
	doer := &fakeDoer{body: `{}`}
	c, err := New(core.DefaultConfig().WithCredentials(creds), WithTransport(doer), WithClock(fixedClock()))
	require.NoError(t, err)

	creds.APIKey = "mutated"
	_, err = c.Account(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-api-key", doer.Last().Headers[APIKeyHeader])
}

func TestClient_PlaceOrder(t *testing.T) {
	doer := &fakeDoer{body: `{"symbol":"BTCUSDT","orderId":28,"clientOrderId":"fixed-id","status":"NEW"}`}
	c := newFakeClient(t, doer)

	res, err := c.PlaceOrder(context.Background(), limitOrder(t))
	require.NoError(t, err)
	require.Equal(t, 1, doer.Count())

	req := doer.Last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v3/order", req.Path)
	assert.Empty(t, req.Query)
	assert.True(t, strings.HasPrefix(req.Body,
		"symbol=BTCUSDT&side=BUY&type=LIMIT&quantity=1&price=30000&timeInForce=GTC"+
			"&newClientOrderId=fixed-id&recvWindow=5000&timestamp=1678886400000&signature="), req.Body)

	var out struct {
		OrderID int64  `json:"orderId"`
		Status  string `json:"status"`
	}
	require.NoError(t, res.Decode(&out))
	assert.Equal(t, int64(28), out.OrderID)
	assert.Equal(t, "NEW", out.Status)
}

func TestClient_Call_PlaceOrderSendsValidatedFields(t *testing.T) {
	doer := &fakeDoer{body: `{}`}
	c := newFakeClient(t, doer)

	_, err := c.Call(context.Background(), core.OpPlaceOrder,
		core.NewParams("symbol", "btc/usdt", "side", "buy", "type", "limit", "quantity", "1", "price", "30000"))
	require.NoError(t, err)
	require.Equal(t, 1, doer.Count())

	assert.True(t, strings.HasPrefix(doer.Last().Body,
		"symbol=BTCUSDT&side=BUY&type=LIMIT&quantity=1&price=30000&timeInForce=GTC"+
			"&recvWindow=5000&timestamp=1678886400000&signature="), doer.Last().Body)
}

func TestClient_PlaceOrder_KeepsCallerClientID(t *testing.T) {
	doer := &fakeDoer{body: `{}`}
	c := newFakeClient(t, doer)

	req := limitOrder(t)
	req.ClientOrderID = "mine"
	_, err := c.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, doer.Last().Body, "newClientOrderId=mine&")
}

func TestClient_PlaceOrder_NoAutoClientID(t *testing.T) {
	doer := &fakeDoer{body: `{}`}
	c := newFakeClient(t, doer, func(cfg *core.Config) { cfg.AutoClientOrderID = false })

	req := limitOrder(t)
	_, err := c.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.NotContains(t, doer.Last().Body, "newClientOrderId")
	assert.Empty(t, req.ClientOrderID, "caller request must not be modified")
}

func TestClient_PlaceOrder_ValidationMakesNoCalls(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*core.OrderRequest)
		field  string
	}{
		{"limit_without_price", func(r *core.OrderRequest) { r.Price = nil }, "price"},
		{"market_with_price", func(r *core.OrderRequest) { r.Type = core.TypeMarket }, "price"},
		{"zero_quantity", func(r *core.OrderRequest) { r.Quantity.SetInt64(0) }, "quantity"},
		{"stop_loss_without_stop_price", func(r *core.OrderRequest) { r.Type = core.TypeStopLoss }, "stopPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{}
			c := newFakeClient(t, doer)

			req := limitOrder(t)
			tt.modify(req)
			_, err := c.PlaceOrder(context.Background(), req)

			require.Error(t, err)
			e, ok := core.AsExchangeError(err)
			require.True(t, ok)
			assert.Equal(t, core.ErrorTypeValidation, e.Type)
			assert.Equal(t, tt.field, e.Field)
			assert.Equal(t, 0, doer.Count())
		})
	}
}

func TestClient_PlaceOrder_NilRequest(t *testing.T) {
	doer := &fakeDoer{}
	c := newFakeClient(t, doer)

	_, err := c.PlaceOrder(context.Background(), nil)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, 0, doer.Count())
}

func TestClient_PlaceOrder_OutcomeUnknown(t *testing.T) {
	doer := &fakeDoer{err: errors.New("read tcp: connection reset by peer")}
	reg := prometheus.NewRegistry()
	cfg := core.DefaultConfig().WithCredentials(testCreds())
	c, err := New(cfg, WithTransport(doer), WithClock(fixedClock()),
		WithIDGenerator(func() string { return "fixed-id" }), WithMetrics(reg))
	require.NoError(t, err)

	_, err = c.PlaceOrder(context.Background(), limitOrder(t))
	require.Error(t, err)

	assert.True(t, core.IsTransportError(err))
	assert.True(t, core.IsOutcomeUnknown(err))
	assert.False(t, core.IsRetryable(err))
	e, _ := core.AsExchangeError(err)
	assert.Equal(t, "fixed-id", e.ClientOrderID)
	assert.Equal(t, "PLACE_ORDER", e.Operation)

	n, err := testutil.GatherAndCount(reg, "spotwire_order_outcome_unknown_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClient_PlaceOrder_DialFailureIsNotAmbiguous(t *testing.T) {
	doer := &fakeDoer{err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}}
	c := newFakeClient(t, doer)

	_, err := c.PlaceOrder(context.Background(), limitOrder(t))
	require.Error(t, err)
	assert.True(t, core.IsTransportError(err))
	assert.False(t, core.IsOutcomeUnknown(err))
	assert.True(t, core.IsRetryable(err))
}

func TestClient_TransportFailure_RetryFollowsIdempotency(t *testing.T) {
	reset := errors.New("read tcp: connection reset by peer")
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name      string
		op        core.Operation
		err       error
		wantRetry bool
	}{
		{"ping_reset", core.OpPing, reset, true},
		{"renew_listen_key_reset", core.OpRenewListenKey, reset, true},
		{"create_listen_key_reset", core.OpCreateListenKey, reset, false},
		{"create_listen_key_dial_refused", core.OpCreateListenKey, refused, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeClient(t, &fakeDoer{err: tt.err})

			params := core.NewParams()
			if tt.op == core.OpRenewListenKey {
				params.Set("listenKey", "lk")
			}
			_, err := c.Call(context.Background(), tt.op, params)
			require.Error(t, err)

			assert.True(t, core.IsTransportError(err))
			assert.False(t, core.IsOutcomeUnknown(err))
			assert.Equal(t, tt.wantRetry, core.IsRetryable(err))
		})
	}
}

func TestClient_PlaceOrder_ExchangeRejection(t *testing.T) {
	doer := &fakeDoer{status: 400, body: `{"code":-2010,"msg":"Account has insufficient balance for requested action."}`}
	c := newFakeClient(t, doer)

	_, err := c.PlaceOrder(context.Background(), limitOrder(t))
	require.Error(t, err)
	assert.True(t, core.IsHTTPError(err))
	assert.True(t, core.IsErrorCode(err, core.ErrCodeInsufficientFunds))
	assert.False(t, core.IsOutcomeUnknown(err))
	e, _ := core.AsExchangeError(err)
	assert.Equal(t, "fixed-id", e.ClientOrderID)
}

func TestClient_CancelOrder(t *testing.T) {
	t.Run("without_identifiers", func(t *testing.T) {
		doer := &fakeDoer{}
		c := newFakeClient(t, doer)

		_, err := c.CancelOrder(context.Background(), &core.CancelRequest{Symbol: "BTCUSDT"})
		require.Error(t, err)
		assert.True(t, core.IsValidationError(err))
		assert.Equal(t, 0, doer.Count())
	})

	t.Run("nil_request", func(t *testing.T) {
		doer := &fakeDoer{}
		c := newFakeClient(t, doer)

		_, err := c.CancelOrder(context.Background(), nil)
		assert.True(t, core.IsValidationError(err))
		assert.Equal(t, 0, doer.Count())
	})

	t.Run("by_client_id", func(t *testing.T) {
		doer := &fakeDoer{body: `{"status":"CANCELED"}`}
		c := newFakeClient(t, doer)

		_, err := c.CancelOrder(context.Background(), &core.CancelRequest{Symbol: "BTCUSDT", OrigClientOrderID: "abc"})
		require.NoError(t, err)
		req := doer.Last()
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Empty(t, req.Body)
		assert.True(t, strings.HasPrefix(req.Query, "symbol=BTCUSDT&origClientOrderId=abc&recvWindow=5000&timestamp="))
	})
}

func TestClient_OrderStatus(t *testing.T) {
	doer := &fakeDoer{body: `{"orderId":7}`}
	c := newFakeClient(t, doer)

	_, err := c.OrderStatus(context.Background(), &core.OrderQuery{Symbol: "BTCUSDT", OrderID: 7})
	require.NoError(t, err)
	req := doer.Last()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.True(t, strings.HasPrefix(req.Query, "symbol=BTCUSDT&orderId=7&"))

	_, err = c.OrderStatus(context.Background(), &core.OrderQuery{Symbol: "BTCUSDT"})
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, 1, doer.Count())
}

func TestClient_ClassifiesResponses(t *testing.T) {
	t.Run("in_band_api_error", func(t *testing.T) {
		doer := &fakeDoer{status: 200, body: `{"code":-1021,"msg":"Timestamp for this request is outside of the recvWindow."}`}
		c := newFakeClient(t, doer)

		_, err := c.Account(context.Background())
		require.Error(t, err)
		assert.True(t, core.IsAPIError(err))
		e, _ := core.AsExchangeError(err)
		assert.Equal(t, -1021, e.Code)
	})

	t.Run("teapot_garbage", func(t *testing.T) {
		doer := &fakeDoer{status: 418, body: `<<garbage>>`}
		c := newFakeClient(t, doer)

		err := c.Ping(context.Background())
		require.Error(t, err)
		assert.True(t, core.IsHTTPError(err))
		assert.False(t, core.IsDecodeError(err))
	})

	t.Run("empty_open_orders", func(t *testing.T) {
		doer := &fakeDoer{body: `[]`}
		c := newFakeClient(t, doer)

		res, err := c.OpenOrders(context.Background(), "")
		require.NoError(t, err)
		assert.Empty(t, res.Value)
		assert.True(t, strings.HasPrefix(doer.Last().Query, "recvWindow=5000&timestamp="))
	})
}

func TestClient_SignedWithoutCredentials(t *testing.T) {
	doer := &fakeDoer{body: `{}`}
	c, err := New(core.DefaultConfig(), WithTransport(doer))
	require.NoError(t, err)

	_, err = c.Account(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.ErrorIs(t, err, core.ErrNoCredentials)
	assert.Equal(t, 0, doer.Count())

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, 1, doer.Count())
	assert.NotContains(t, doer.Last().Headers, APIKeyHeader)
}

func TestClient_Closed(t *testing.T) {
	doer := &fakeDoer{body: `{}`}
	c := newFakeClient(t, doer)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrClientClosed)
	assert.True(t, core.IsErrorCode(err, core.ErrCodeClientClosed))
	assert.Equal(t, 0, doer.Count())
	assert.False(t, core.IsRetryable(err))
}

func TestClient_RateLimiter(t *testing.T) {
	tests := []struct {
		name        string
		calls       int
		wantSent    int
		wantLogged  []string
		wantDenyErr bool
	}{
		{
			name:     "totals_logged_on_close",
			calls:    2,
			wantSent: 2,
			wantLogged: []string{
				`"message":"rate limiter totals"`,
				`"requests":2`,
				`"allowed":2`,
				`"weight_consumed":2`,
				`"reported_used_weight":7`,
			},
		},
		{
			name:        "exhausted_budget_is_not_sent",
			calls:       3,
			wantSent:    2,
			wantDenyErr: true,
			wantLogged:  []string{`"denied":1`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			doer := &fakeDoer{body: `{}`, headers: map[string]string{"X-Mbx-Used-Weight-1m": "7"}}
			cfg := core.DefaultConfig().WithCredentials(testCreds()).WithRateLimit(2, time.Hour)
			cfg.LogLevel = "debug"
			c, err := New(cfg, WithTransport(doer), WithClock(fixedClock()),
				WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			var last error
			for i := 0; i < tt.calls; i++ {
				last = c.Ping(ctx)
			}
			require.NoError(t, c.Close())

			assert.Equal(t, tt.wantSent, doer.Count())
			if tt.wantDenyErr {
				require.Error(t, last)
				assert.True(t, core.IsTransportError(last))
				assert.True(t, core.IsRetryable(last))
			} else {
				assert.NoError(t, last)
			}
			for _, want := range tt.wantLogged {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestClient_MarketData(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	end := time.UnixMilli(1700003600000)

	tests := []struct {
		name      string
		call      func(c *Client) (*core.Result, error)
		path      string
		wantQuery string
	}{
		{
			name:      "symbol_price",
			call:      func(c *Client) (*core.Result, error) { return c.SymbolPrice(context.Background(), "eth/usdt") },
			path:      "/api/v3/ticker/price",
			wantQuery: "symbol=ETHUSDT",
		},
		{
			name:      "all_prices",
			call:      func(c *Client) (*core.Result, error) { return c.SymbolPrice(context.Background(), "") },
			path:      "/api/v3/ticker/price",
			wantQuery: "",
		},
		{
			name:      "klines_default_limit",
			call:      func(c *Client) (*core.Result, error) { return c.Klines(context.Background(), "BTCUSDT", "1h") },
			path:      "/api/v3/klines",
			wantQuery: "symbol=BTCUSDT&interval=1h&limit=500",
		},
		{
			name: "klines_time_range",
			call: func(c *Client) (*core.Result, error) {
				return c.Klines(context.Background(), "BTCUSDT", "1m", exchange.WithTimeRange(start, end), exchange.WithLimit(10))
			},
			path:      "/api/v3/klines",
			wantQuery: "symbol=BTCUSDT&interval=1m&startTime=1700000000000&endTime=1700003600000&limit=10",
		},
		{
			name:      "depth_default_limit",
			call:      func(c *Client) (*core.Result, error) { return c.Depth(context.Background(), "BTCUSDT", 0) },
			path:      "/api/v3/depth",
			wantQuery: "symbol=BTCUSDT&limit=100",
		},
		{
			name:      "exchange_info_one",
			call:      func(c *Client) (*core.Result, error) { return c.ExchangeInfo(context.Background(), "btcusdt") },
			path:      "/api/v3/exchangeInfo",
			wantQuery: "symbol=BTCUSDT",
		},
		{
			name: "exchange_info_many",
			call: func(c *Client) (*core.Result, error) {
				return c.ExchangeInfo(context.Background(), "BTCUSDT", "ETHUSDT")
			},
			path:      "/api/v3/exchangeInfo",
			wantQuery: "symbols=%5B%22BTCUSDT%22%2C%22ETHUSDT%22%5D",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &fakeDoer{body: `{}`}
			c := newFakeClient(t, doer)

			_, err := tt.call(c)
			require.NoError(t, err)
			req := doer.Last()
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, tt.wantQuery, req.Query)
			assert.False(t, req.Signed)
		})
	}
}

func TestClient_History(t *testing.T) {
	doer := &fakeDoer{body: `[]`}
	c := newFakeClient(t, doer)

	_, err := c.AllOrders(context.Background(), "BTCUSDT", exchange.WithOrderID(5), exchange.WithFromID(9))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doer.Last().Query, "symbol=BTCUSDT&orderId=5&limit=500&recvWindow=5000&timestamp="))

	_, err = c.MyTrades(context.Background(), "BTCUSDT", exchange.WithFromID(9), exchange.WithLimit(50))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(doer.Last().Query, "symbol=BTCUSDT&fromId=9&limit=50&recvWindow=5000&timestamp="))

	_, err = c.MyTrades(context.Background(), "")
	assert.True(t, core.IsValidationError(err))
	_, err = c.Klines(context.Background(), "BTCUSDT", " ")
	assert.True(t, core.IsValidationError(err))
	_, err = c.Depth(context.Background(), "", 5)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, 2, doer.Count())
}

func TestClient_ServerTimeAndSync(t *testing.T) {
	doer := &fakeDoer{body: `{"serverTime":1678886402000}`}
	c := newFakeClient(t, doer)

	ts, err := c.ServerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1678886402000), ts.UnixMilli())
	assert.False(t, doer.Last().Signed)

	offset, err := c.SyncTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, offset)
	assert.Equal(t, 2, doer.Count())

	_, err = c.Account(context.Background())
	require.NoError(t, err)
	assert.Contains(t, doer.Last().Query, "timestamp=1678886402000&")
}

func TestClient_ServerTimeMissingField(t *testing.T) {
	doer := &fakeDoer{body: `{}`}
	c := newFakeClient(t, doer)

	_, err := c.ServerTime(context.Background())
	assert.True(t, core.IsDecodeError(err))
}

func TestClient_RateLimit(t *testing.T) {
	doer := &fakeDoer{body: `{}`, headers: map[string]string{"X-Mbx-Used-Weight-1m": "21"}}
	reg := prometheus.NewRegistry()
	cfg := core.DefaultConfig().WithCredentials(testCreds()).WithRateLimit(20, time.Hour)
	c, err := New(cfg, WithTransport(doer), WithClock(fixedClock()), WithMetrics(reg))
	require.NoError(t, err)

	_, err = c.Account(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = c.Ping(ctx)
	require.Error(t, err)
	assert.True(t, core.IsTransportError(err))
	assert.Equal(t, 1, doer.Count())

	n, err := testutil.GatherAndCount(reg, "spotwire_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestClient_EndToEnd(t *testing.T) {
	var redirectedHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/account", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get(APIKeyHeader))
		q := r.URL.RawQuery
		i := strings.LastIndex(q, "&signature=")
		if !assert.Positive(t, i) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, Sign(q[:i], "testsecret"), q[i+len("&signature="):])
		_, _ = w.Write([]byte(`{"balances":[{"asset":"BTC","free":"0.5","locked":"0"},{"asset":"XRP","free":"0","locked":"0"}]}`))
	})
	mux.HandleFunc("/api/v3/order", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.URL.RawQuery)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "&signature=")
		assert.Equal(t, FormContentType, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"orderId":1}`))
	})
	mux.HandleFunc("/api/v3/openOrders", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/elsewhere", func(w http.ResponseWriter, _ *http.Request) {
		redirectedHits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := core.DefaultConfig().WithCredentials(testCreds()).WithBaseURL(server.URL)
	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	balances, err := c.SpotBalances(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "BTC", balances[0].Asset)

	_, err = c.PlaceOrder(context.Background(), limitOrder(t))
	require.NoError(t, err)

	_, err = c.OpenOrders(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.True(t, core.IsTransportError(err))
	assert.ErrorIs(t, err, core.ErrRedirectRefused)
	assert.Equal(t, int32(0), redirectedHits.Load())
}
