// Package ratelimit enforces per-client request quotas with fixed-window
// counters in the shared key-value store. Each window is INCR'd atomically;
// the first hit in a window also sets the key's expiry so stale windows
// clean themselves up.
//
// Fixed windows admit up to 2×MaxRequests across a window boundary in the
// worst case. That approximation is part of the observable contract and is
// kept deliberately. Likewise, INCR and EXPIRE are two round trips: a crash
// between them can leave one counter without a TTL. Both are accepted
// trade-offs, not defects to engineer away.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/LuisLuna810/coolify-managment-back/kvstore"
)

const keyPrefix = "rate_limit"

// ErrQuotaUnavailable is returned when the counter state cannot be read or
// advanced. The limiter fails closed: callers must deny the request, since
// admitting traffic without quota state defeats the limiter's purpose.
var ErrQuotaUnavailable = errors.New("rate limit state unavailable")

// Options declares a route's quota. Message overrides the default 429 body text.
type Options struct {
	MaxRequests int
	Window      time.Duration
	Message     string
}

// Result reports one admission decision plus the back-off metadata exposed
// through the X-RateLimit response headers.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

// Limiter counts requests per client per window.
type Limiter struct {
	store *kvstore.Store
	now   func() time.Time
}

// New creates a limiter backed by the shared store.
func New(store *kvstore.Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// ClientKey derives the per-client identity: source IP plus the
// authenticated user id, or "anonymous" before authentication.
func ClientKey(ip, userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return ip + ":" + userID
}

// Allow records one request for clientKey and decides whether it fits the
// quota. Within a window the count is monotonically non-decreasing; a new
// window starts back at one.
func (l *Limiter) Allow(ctx context.Context, clientKey string, opts Options) (Result, error) {
	now := l.now()
	windowMs := opts.Window.Milliseconds()
	windowStart := time.UnixMilli(now.UnixMilli() / windowMs * windowMs)
	counterKey := fmt.Sprintf("%s:%s:%d", keyPrefix, clientKey, windowStart.UnixMilli())

	count, err := l.store.Incr(ctx, counterKey)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrQuotaUnavailable, err)
	}

	if count == 1 {
		ttl := time.Duration(math.Ceil(opts.Window.Seconds())) * time.Second
		if _, err := l.store.Expire(ctx, counterKey, ttl); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrQuotaUnavailable, err)
		}
	}

	reset := windowStart.Add(opts.Window)
	result := Result{
		Limit:     opts.MaxRequests,
		Remaining: int(math.Max(0, float64(int64(opts.MaxRequests)-count))),
		Reset:     reset,
	}

	if count > int64(opts.MaxRequests) {
		result.RetryAfter = ceilSeconds(reset.Sub(now))
		return result, nil
	}

	result.Allowed = true
	return result, nil
}

func ceilSeconds(d time.Duration) time.Duration {
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}
