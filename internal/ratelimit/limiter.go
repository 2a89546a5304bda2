package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gebeya-market/config"
	"gebeya-market/pkg/logger"
)

// Class buckets endpoints sharing one request budget.
type Class string

const (
	ClassAuth     Class = "auth"
	ClassListings Class = "listings"
	ClassMessages Class = "messages"
	ClassDefault  Class = "default"
)

// WindowStore is the counter store port. Slide must apply its four steps —
// evict entries older than the window, record now, count what remains, and
// refresh the key's TTL — as one atomic round trip; independent calls would
// let concurrent requests under-count each other.
type WindowStore interface {
	Slide(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error)
}

// Result of one admission check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
	Window    time.Duration

	// FailedOpen is set when the counter store could not be consulted and
	// the request was admitted without accounting.
	FailedOpen bool
}

// Limiter decides request admission with a sliding window per
// (fingerprint, class) key.
//
// When the counter store is unreachable the limiter fails open: requests are
// admitted unaccounted rather than blocking legitimate traffic on an
// infrastructure outage. Protection is therefore best-effort, not guaranteed.
type Limiter struct {
	store    WindowStore
	policies map[Class]config.RatePolicy
	logger   *logger.Logger

	// storeTimeout bounds the counter store round trip; exceeding it counts
	// as a store failure and fails open.
	storeTimeout time.Duration
}

func NewLimiter(store WindowStore, cfg *config.Config, l *logger.Logger) *Limiter {
	return &Limiter{
		store: store,
		policies: map[Class]config.RatePolicy{
			ClassAuth:     cfg.RateLimitAuth,
			ClassListings: cfg.RateLimitListings,
			ClassMessages: cfg.RateLimitMessages,
			ClassDefault:  cfg.RateLimitDefault,
		},
		logger:       l,
		storeTimeout: cfg.StoreTimeout,
	}
}

// Admit records the request under its window key and decides whether it is
// within budget. The post-record count is compared against the class limit,
// so the request being admitted is already included in the count.
func (l *Limiter) Admit(ctx context.Context, fingerprint string, class Class) Result {
	policy, ok := l.policies[class]
	if !ok {
		policy = l.policies[ClassDefault]
	}

	now := time.Now()
	result := Result{
		Limit:   policy.MaxRequests,
		ResetAt: now.Add(policy.Window),
		Window:  policy.Window,
	}

	if l.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.storeTimeout)
		defer cancel()
	}

	key := fmt.Sprintf("rl:%s:%s", class, fingerprint)
	count, err := l.store.Slide(ctx, key, now, policy.Window)
	if err != nil {
		l.logger.Warnf("rate limit store unavailable, failing open: %v", err)
		result.Allowed = true
		result.FailedOpen = true
		return result
	}

	result.Allowed = count <= int64(policy.MaxRequests)
	remaining := policy.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	result.Remaining = remaining
	return result
}

// ClassForPath maps a request path to its rate limit class.
func ClassForPath(path string) Class {
	switch {
	case strings.Contains(path, "/auth/"), strings.HasSuffix(path, "/auth"):
		return ClassAuth
	case strings.Contains(path, "/listings"):
		return ClassListings
	case strings.Contains(path, "/chats"), strings.Contains(path, "/messages"):
		return ClassMessages
	default:
		return ClassDefault
	}
}
