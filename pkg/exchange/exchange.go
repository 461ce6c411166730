// Package exchange defines the spot REST surface shared by exchange clients
// and the optional query filters their history calls accept.
package exchange

import (
	"context"
	"time"

	"spotwire/pkg/core"
)

// SpotClient is the spot REST surface. Every method performs exactly one
// request, except SyncTime which performs one unsigned server time call.
type SpotClient interface {
	Name() string

	Ping(ctx context.Context) error
	ServerTime(ctx context.Context) (time.Time, error)
	SyncTime(ctx context.Context) (time.Duration, error)
	ExchangeInfo(ctx context.Context, symbols ...string) (*core.Result, error)
	SymbolPrice(ctx context.Context, symbol string) (*core.Result, error)
	Klines(ctx context.Context, symbol, interval string, opts ...Option) (*core.Result, error)
	Depth(ctx context.Context, symbol string, limit int) (*core.Result, error)

	PlaceOrder(ctx context.Context, req *core.OrderRequest) (*core.Result, error)
	CancelOrder(ctx context.Context, req *core.CancelRequest) (*core.Result, error)
	OrderStatus(ctx context.Context, req *core.OrderQuery) (*core.Result, error)
	OpenOrders(ctx context.Context, symbol string) (*core.Result, error)
	AllOrders(ctx context.Context, symbol string, opts ...Option) (*core.Result, error)
	MyTrades(ctx context.Context, symbol string, opts ...Option) (*core.Result, error)
	Account(ctx context.Context) (*core.Result, error)

	Call(ctx context.Context, op core.Operation, params *core.Params) (*core.Result, error)
	Close() error
}
