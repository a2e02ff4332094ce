package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const (
	minuteWindow = time.Minute
	tenSecWindow = 10 * time.Second
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter enforces two fixed windows per user for one kind of action.
// A zero limit disables that window.
type Limiter struct {
	store     WindowStore
	scope     string
	perMinute int
	per10Sec  int
}

func NewLimiter(store WindowStore, scope string, perMinute, per10Sec int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}
	if per10Sec < 0 {
		per10Sec = 0
	}
	if scope == "" {
		scope = "messages"
	}

	return &Limiter{
		store:     store,
		scope:     scope,
		perMinute: perMinute,
		per10Sec:  per10Sec,
	}
}

// Allow counts one action and reports whether it fits in both windows.
// When it does not, retryAfterSec tells the caller when the tightest window reopens.
func (l *Limiter) Allow(ctx context.Context, userID int64) (int64, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	var retryAfterSec int64
	for _, w := range l.windows(userID) {
		count, ttl, err := l.store.IncrementWindow(ctx, w.key, w.size)
		if err != nil {
			return 0, false, err
		}
		if count > int64(w.limit) {
			retryAfterSec = max(retryAfterSec, ceilSeconds(ttl))
		}
	}

	if retryAfterSec > 0 {
		return retryAfterSec, false, nil
	}
	return 0, true, nil
}

type window struct {
	key   string
	size  time.Duration
	limit int
}

func (l *Limiter) windows(userID int64) []window {
	id := strconv.FormatInt(userID, 10)
	out := make([]window, 0, 2)
	if l.perMinute > 0 {
		out = append(out, window{key: "rate:" + l.scope + ":min:" + id, size: minuteWindow, limit: l.perMinute})
	}
	if l.per10Sec > 0 {
		out = append(out, window{key: "rate:" + l.scope + ":10s:" + id, size: tenSecWindow, limit: l.per10Sec})
	}
	return out
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return max(sec, 1)
}
