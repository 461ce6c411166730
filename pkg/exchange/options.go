package exchange

import (
	"time"

	"spotwire/pkg/core"
)

// Option sets an optional query filter.
type Option func(*Options)

// Options holds the optional filters accepted by history and market data calls.
// Zero values are omitted from the request.
type Options struct {
	Limit     int
	StartTime time.Time
	EndTime   time.Time
	FromID    int64
	OrderID   int64
}

func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithTimeRange(start, end time.Time) Option {
	return func(o *Options) {
		o.StartTime = start
		o.EndTime = end
	}
}

// WithFromID starts trade history at the given trade id.
func WithFromID(id int64) Option {
	return func(o *Options) {
		o.FromID = id
	}
}

// WithOrderID filters history from (or to) the given order id.
func WithOrderID(id int64) Option {
	return func(o *Options) {
		o.OrderID = id
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Append adds the set filters to p in a fixed order. defaultLimit is used when
// no limit was given; zero leaves the limit to the server.
func (o *Options) Append(p *core.Params, defaultLimit int) *core.Params {
	p.SetIfPositive("orderId", o.OrderID)
	p.SetIfPositive("fromId", o.FromID)
	if !o.StartTime.IsZero() {
		p.SetInt("startTime", o.StartTime.UnixMilli())
	}
	if !o.EndTime.IsZero() {
		p.SetInt("endTime", o.EndTime.UnixMilli())
	}
	limit := o.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	p.SetIfPositive("limit", int64(limit))
	return p
}
