// Package ratelimit paces requests against the exchange request-weight budget.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// UsedWeightHeader reports the weight consumed in the current one-minute window.
const UsedWeightHeader = "X-Mbx-Used-Weight-1m"

// WeightLimiter is a token bucket where each request consumes its endpoint weight.
type WeightLimiter struct {
	limiter  *rate.Limiter
	budget   int
	counts   *counters
	reported atomic.Int64
}

type counters struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
	weightConsumed  atomic.Int64
}

// New creates a limiter allowing budget weight per period. The full budget is
// available as burst.
func New(budget int, period time.Duration) *WeightLimiter {
	return &WeightLimiter{
		limiter: rate.NewLimiter(perSecond(budget, period), budget),
		budget:  budget,
		counts:  &counters{},
	}
}

func perSecond(budget int, period time.Duration) rate.Limit {
	return rate.Limit(float64(budget) / period.Seconds())
}

// Wait blocks until weight units are available or ctx is done.
// A weight above the budget can never be satisfied and fails immediately.
func (w *WeightLimiter) Wait(ctx context.Context, weight int) error {
	w.counts.totalRequests.Add(1)
	if weight <= 0 {
		weight = 1
	}
	if weight > w.budget {
		w.counts.deniedRequests.Add(1)
		return fmt.Errorf("request weight %d exceeds budget %d", weight, w.budget)
	}
	if err := w.limiter.WaitN(ctx, weight); err != nil {
		w.counts.deniedRequests.Add(1)
		return err
	}
	w.counts.allowedRequests.Add(1)
	w.counts.weightConsumed.Add(int64(weight))
	return nil
}

// Observe records the server-reported used weight from response headers.
// It returns the parsed value and whether the header was present and numeric.
func (w *WeightLimiter) Observe(headers map[string]string) (int64, bool) {
	v, ok := headers[UsedWeightHeader]
	if !ok {
		return 0, false
	}
	used, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	w.reported.Store(used)
	return used, true
}

// Metrics returns a snapshot of the current limiter statistics.
func (w *WeightLimiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:      w.counts.totalRequests.Load(),
		AllowedRequests:    w.counts.allowedRequests.Load(),
		DeniedRequests:     w.counts.deniedRequests.Load(),
		WeightConsumed:     w.counts.weightConsumed.Load(),
		ReportedUsedWeight: w.reported.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests counts every Wait call.
	TotalRequests int64
	// AllowedRequests counts calls that obtained their weight.
	AllowedRequests int64
	// DeniedRequests counts calls rejected for exceeding the budget or by ctx.
	DeniedRequests int64
	// WeightConsumed is the sum of weights of allowed requests.
	WeightConsumed int64
	// ReportedUsedWeight is the last value the server reported.
	ReportedUsedWeight int64
}
