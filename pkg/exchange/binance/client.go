package binance

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"spotwire/internal/clock"
	"spotwire/internal/metrics"
	"spotwire/internal/ratelimit"
	"spotwire/internal/transport"
	"spotwire/pkg/core"
	"spotwire/pkg/exchange"
	"spotwire/pkg/order"
)

// Default page sizes applied when the caller gives no limit.
const (
	DefaultKlinesLimit  = 500
	DefaultDepthLimit   = 100
	DefaultHistoryLimit = 500
)

var _ exchange.SpotClient = (*Client)(nil)

// Client is a Binance spot REST client. Each method performs one synchronous call.
// It is safe for concurrent use; credentials and config are fixed at construction.
type Client struct {
	config   core.Config
	creds    *core.Credentials
	protocol *Protocol
	doer     transport.Doer
	owned    *transport.Client
	clock    *clock.Clock
	limiter  *ratelimit.WeightLimiter
	metrics  *metrics.Recorder
	logger   zerolog.Logger
	newID    func() string
	closed   atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics registers request collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = metrics.New(reg)
	}
}

// WithTransport replaces the HTTP transport. The client does not close it.
func WithTransport(d transport.Doer) Option {
	return func(c *Client) {
		c.doer = d
	}
}

// WithClock replaces the timestamp source.
func WithClock(clk *clock.Clock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// WithIDGenerator replaces the client order id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		c.newID = fn
	}
}

// New creates a client from config. The config is validated and copied.
func New(config *core.Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = core.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		e := core.NewValidationError("config", err.Error())
		e.Reason = core.ErrCodeInvalidConfig
		e.Err = err
		return nil, e
	}

	c := &Client{
		config: *config,
		logger: zerolog.Nop(),
		newID:  uuid.NewString,
	}
	if config.Credentials != nil {
		creds := *config.Credentials
		c.creds = &creds
		c.config.Credentials = &creds
	}

	for _, opt := range opts {
		opt(c)
	}

	if lvl, err := zerolog.ParseLevel(config.LogLevel); err == nil && config.LogLevel != "" {
		c.logger = c.logger.Level(lvl)
	}
	c.logger = c.logger.With().Str("exchange", "binance").Logger()

	if c.clock == nil {
		c.clock = clock.New(config.MaxClockOffset)
	}
	c.protocol = NewProtocol(config.RecvWindow, c.clock.NowMs)

	if c.doer == nil {
		tc, err := transport.NewClient(&transport.Config{
			BaseURL:        config.URL(),
			Timeout:        config.Timeout,
			ConnectTimeout: config.ConnectTimeout,
			MaxRedirects:   config.MaxRedirects,
			UserAgent:      "spotwire",
		}, c.logger)
		if err != nil {
			e := core.NewValidationError("config", err.Error())
			e.Reason = core.ErrCodeInvalidConfig
			e.Err = err
			return nil, e
		}
		c.doer = tc
		c.owned = tc
	}

	if config.RateLimitWeight > 0 {
		c.limiter = ratelimit.New(config.RateLimitWeight, config.RateLimitPeriod)
	}

	return c, nil
}

// Name returns "binance".
func (c *Client) Name() string {
	return c.protocol.Name()
}

// Protocol returns the request builder and classifier used by the client.
func (c *Client) Protocol() *Protocol {
	return c.protocol
}

// Clock returns the timestamp source.
func (c *Client) Clock() *clock.Clock {
	return c.clock
}

// Close releases the owned transport and logs the rate limiter totals.
// Calls after Close fail with core.ErrClientClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.limiter != nil {
		m := c.limiter.Metrics()
		c.logger.Debug().
			Int64("requests", m.TotalRequests).
			Int64("allowed", m.AllowedRequests).
			Int64("denied", m.DeniedRequests).
			Int64("weight_consumed", m.WeightConsumed).
			Int64("reported_used_weight", m.ReportedUsedWeight).
			Msg("rate limiter totals")
	}
	if c.owned != nil {
		return c.owned.Close()
	}
	return nil
}

// Call runs op with params through the full pipeline: build, sign, send, classify.
func (c *Client) Call(ctx context.Context, op core.Operation, params *core.Params) (*core.Result, error) {
	start := time.Now()
	res, err := c.call(ctx, op, params)
	c.observe(op, err, time.Since(start))
	return res, err
}

func (c *Client) call(ctx context.Context, op core.Operation, params *core.Params) (*core.Result, error) {
	if c.closed.Load() {
		e := core.NewTransportError(core.ErrClientClosed).WithOperation(op)
		e.Reason = core.ErrCodeClientClosed
		e.NotSent = true
		return nil, e
	}
	if params == nil {
		params = core.NewParams()
	}

	req, err := c.protocol.BuildRequest(op, params, c.creds)
	if err != nil {
		return nil, err
	}
	if req.Signed {
		c.logger.Debug().
			Str("operation", op.String()).
			Int64("timestamp_ms", req.TimestampMs).
			Dur("clock_offset", c.clock.Offset()).
			Bool("clock_synced", c.clock.Synced()).
			Msg("request signed")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, req.Weight); err != nil {
			e := core.NewTransportError(err).WithOperation(op)
			e.NotSent = true
			return nil, e
		}
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return nil, c.transportFailure(op, params, err)
	}

	if c.limiter != nil {
		if used, ok := c.limiter.Observe(resp.Headers); ok {
			c.metrics.UsedWeight(used)
		}
	}

	res, err := c.protocol.ParseResponse(op, resp.StatusCode, resp.Headers, resp.Body)
	if err != nil {
		if e, ok := core.AsExchangeError(err); ok && op.IsOrderPlacement() {
			e.ClientOrderID, _ = params.Get("newClientOrderId")
		}
		return nil, err
	}
	return res, nil
}

func (c *Client) transportFailure(op core.Operation, params *core.Params, err error) error {
	e := core.NewTransportError(err).WithOperation(op)
	if errors.Is(err, core.ErrClientClosed) {
		e.Reason = core.ErrCodeClientClosed
	}
	e.NotSent = neverSent(err)
	if op.IsOrderPlacement() {
		e.ClientOrderID, _ = params.Get("newClientOrderId")
		e.OutcomeUnknown = !e.NotSent
		if e.OutcomeUnknown {
			c.metrics.OutcomeUnknown()
			c.logger.Warn().
				Str("operation", op.String()).
				Str("client_order_id", e.ClientOrderID).
				Err(err).
				Msg("order placement outcome unknown")
		}
	}
	return e
}

// neverSent reports whether err proves the request never reached the exchange.
func neverSent(err error) bool {
	if errors.Is(err, core.ErrClientClosed) || errors.Is(err, core.ErrRedirectRefused) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func (c *Client) observe(op core.Operation, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if e, ok := core.AsExchangeError(err); ok {
			outcome = e.Type.String()
		}
		c.logger.Debug().Str("operation", op.String()).Str("outcome", outcome).Err(err).Msg("call failed")
	}
	c.metrics.Observe(op.String(), outcome, elapsed)
}

// Ping tests connectivity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Call(ctx, core.OpPing, nil)
	return err
}

func (c *Client) serverTimeMs(ctx context.Context) (int64, error) {
	res, err := c.Call(ctx, core.OpServerTime, nil)
	if err != nil {
		return 0, err
	}
	var out struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := res.Decode(&out); err != nil {
		return 0, err
	}
	if out.ServerTime <= 0 {
		return 0, core.NewDecodeError(res.StatusCode, errors.New("missing serverTime")).WithOperation(core.OpServerTime)
	}
	return out.ServerTime, nil
}

// ServerTime returns the exchange clock.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	ms, err := c.serverTimeMs(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}

// SyncTime learns the offset between the exchange clock and the local clock
// from one unsigned server time call and uses it for all later timestamps.
func (c *Client) SyncTime(ctx context.Context) (time.Duration, error) {
	offset, err := c.clock.Sync(ctx, c.serverTimeMs)
	if err != nil {
		return offset, err
	}
	c.logger.Info().Dur("offset", offset).Msg("server time synchronized")
	return offset, nil
}

// ExchangeInfo returns trading rules. With no symbols every symbol is returned.
func (c *Client) ExchangeInfo(ctx context.Context, symbols ...string) (*core.Result, error) {
	p := core.NewParams()
	switch len(symbols) {
	case 0:
	case 1:
		p.Set("symbol", core.FormatSymbol(symbols[0]))
	default:
		formatted := make([]string, len(symbols))
		for i, s := range symbols {
			formatted[i] = core.FormatSymbol(s)
		}
		list, err := sonic.MarshalString(formatted)
		if err != nil {
			return nil, core.NewValidationError("symbols", err.Error()).WithOperation(core.OpExchangeInfo)
		}
		p.Set("symbols", list)
	}
	return c.Call(ctx, core.OpExchangeInfo, p)
}

// SymbolPrice returns the latest price for symbol, or for all symbols when symbol is empty.
func (c *Client) SymbolPrice(ctx context.Context, symbol string) (*core.Result, error) {
	p := core.NewParams().SetIfNotEmpty("symbol", core.FormatSymbol(symbol))
	return c.Call(ctx, core.OpSymbolPrice, p)
}

// Klines returns candlesticks for symbol at interval (e.g. "1m", "1h", "1d").
func (c *Client) Klines(ctx context.Context, symbol, interval string, opts ...exchange.Option) (*core.Result, error) {
	if err := requireSymbol(symbol, core.OpKlines); err != nil {
		return nil, err
	}
	if strings.TrimSpace(interval) == "" {
		return nil, core.NewValidationError("interval", "interval is required").WithOperation(core.OpKlines)
	}
	o := exchange.ApplyOptions(opts...)
	o.OrderID, o.FromID = 0, 0
	p := core.NewParams("symbol", core.FormatSymbol(symbol), "interval", interval)
	return c.Call(ctx, core.OpKlines, o.Append(p, DefaultKlinesLimit))
}

// Depth returns the order book for symbol. A non-positive limit uses DefaultDepthLimit.
func (c *Client) Depth(ctx context.Context, symbol string, limit int) (*core.Result, error) {
	if err := requireSymbol(symbol, core.OpDepth); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultDepthLimit
	}
	p := core.NewParams("symbol", core.FormatSymbol(symbol)).SetInt("limit", int64(limit))
	return c.Call(ctx, core.OpDepth, p)
}

// PlaceOrder validates req and submits it. When the config enables it and req has no
// client order id, a uuid is generated so an ambiguous outcome can be reconciled.
// A transport failure after the request may have been sent returns an error for
// which core.IsOutcomeUnknown is true.
func (c *Client) PlaceOrder(ctx context.Context, req *core.OrderRequest) (*core.Result, error) {
	if req != nil && req.ClientOrderID == "" && c.config.AutoClientOrderID {
		cp := *req
		cp.ClientOrderID = c.newID()
		req = &cp
	}
	p, err := order.Params(req)
	if err != nil {
		return nil, withOp(err, core.OpPlaceOrder)
	}
	return c.Call(ctx, core.OpPlaceOrder, p)
}

// CancelOrder cancels an active order identified by orderId or origClientOrderId.
func (c *Client) CancelOrder(ctx context.Context, req *core.CancelRequest) (*core.Result, error) {
	if req == nil {
		return nil, core.NewValidationError("order", "cancel request is nil").WithOperation(core.OpCancelOrder)
	}
	p, err := referenceParams(req.Symbol, req.OrderID, req.OrigClientOrderID)
	if err != nil {
		return nil, withOp(err, core.OpCancelOrder)
	}
	return c.Call(ctx, core.OpCancelOrder, p)
}

// OrderStatus returns the state of one order.
func (c *Client) OrderStatus(ctx context.Context, req *core.OrderQuery) (*core.Result, error) {
	if req == nil {
		return nil, core.NewValidationError("order", "order query is nil").WithOperation(core.OpOrderStatus)
	}
	p, err := referenceParams(req.Symbol, req.OrderID, req.OrigClientOrderID)
	if err != nil {
		return nil, withOp(err, core.OpOrderStatus)
	}
	return c.Call(ctx, core.OpOrderStatus, p)
}

func referenceParams(symbol string, orderID int64, origClientOrderID string) (*core.Params, error) {
	if err := order.ValidateReference(symbol, orderID, origClientOrderID); err != nil {
		return nil, err
	}
	p := core.NewParams("symbol", core.FormatSymbol(symbol))
	p.SetIfPositive("orderId", orderID)
	p.SetIfNotEmpty("origClientOrderId", origClientOrderID)
	return p, nil
}

// OpenOrders returns open orders for symbol, or for every symbol when it is empty.
func (c *Client) OpenOrders(ctx context.Context, symbol string) (*core.Result, error) {
	p := core.NewParams().SetIfNotEmpty("symbol", core.FormatSymbol(symbol))
	return c.Call(ctx, core.OpOpenOrders, p)
}

// AllOrders returns active, canceled and filled orders for symbol.
func (c *Client) AllOrders(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Result, error) {
	if err := requireSymbol(symbol, core.OpAllOrders); err != nil {
		return nil, err
	}
	o := exchange.ApplyOptions(opts...)
	o.FromID = 0
	p := core.NewParams("symbol", core.FormatSymbol(symbol))
	return c.Call(ctx, core.OpAllOrders, o.Append(p, DefaultHistoryLimit))
}

// MyTrades returns the account's trades for symbol.
func (c *Client) MyTrades(ctx context.Context, symbol string, opts ...exchange.Option) (*core.Result, error) {
	if err := requireSymbol(symbol, core.OpMyTrades); err != nil {
		return nil, err
	}
	o := exchange.ApplyOptions(opts...)
	p := core.NewParams("symbol", core.FormatSymbol(symbol))
	return c.Call(ctx, core.OpMyTrades, o.Append(p, DefaultHistoryLimit))
}

// Account returns account information including balances.
func (c *Client) Account(ctx context.Context) (*core.Result, error) {
	return c.Call(ctx, core.OpAccount, nil)
}

func requireSymbol(symbol string, op core.Operation) error {
	if core.FormatSymbol(symbol) == "" {
		return core.NewValidationError("symbol", "symbol is required").WithOperation(op)
	}
	return nil
}
