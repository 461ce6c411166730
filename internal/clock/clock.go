// Package clock provides request timestamps from the local wall clock corrected
// by an offset learned from the exchange.
package clock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// ServerTimeFunc returns the exchange time in milliseconds.
type ServerTimeFunc func(ctx context.Context) (int64, error)

// Clock is safe for concurrent use. The offset is only written by Sync.
type Clock struct {
	now       func() time.Time
	offsetMs  atomic.Int64
	synced    atomic.Bool
	maxOffset time.Duration
}

// New creates a clock with zero offset. maxOffset bounds what Sync accepts; zero means unbounded.
func New(maxOffset time.Duration) *Clock {
	return &Clock{now: time.Now, maxOffset: maxOffset}
}

// NewWithNow is New with an injected time source.
func NewWithNow(maxOffset time.Duration, now func() time.Time) *Clock {
	return &Clock{now: now, maxOffset: maxOffset}
}

// NowMs returns local time plus the cached offset, in milliseconds.
func (c *Clock) NowMs() int64 {
	return c.now().UnixMilli() + c.offsetMs.Load()
}

// Offset returns the cached server offset.
func (c *Clock) Offset() time.Duration {
	return time.Duration(c.offsetMs.Load()) * time.Millisecond
}

// Synced reports whether Sync has succeeded at least once.
func (c *Clock) Synced() bool {
	return c.synced.Load()
}

// Sync performs one server time round trip and caches the offset between the
// server clock and the local clock at the round trip midpoint.
func (c *Clock) Sync(ctx context.Context, fetch ServerTimeFunc) (time.Duration, error) {
	start := c.now()
	serverMs, err := fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch server time: %w", err)
	}
	rtt := c.now().Sub(start)

	local := start.Add(rtt / 2)
	offset := time.UnixMilli(serverMs).Sub(local).Truncate(time.Millisecond)

	if c.maxOffset > 0 && (offset > c.maxOffset || offset < -c.maxOffset) {
		return offset, fmt.Errorf("clock offset %s exceeds maximum %s", offset, c.maxOffset)
	}

	c.offsetMs.Store(offset.Milliseconds())
	c.synced.Store(true)
	return offset, nil
}
