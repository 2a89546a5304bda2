package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gebeya-market/config"
	"gebeya-market/internal/ratelimit"
	"gebeya-market/pkg/logger"
)

// memoryWindowStore reproduces the sliding window semantics of the Redis
// store on plain slices.
type memoryWindowStore struct {
	entries map[string][]time.Time
	keys    []string
}

func newMemoryWindowStore() *memoryWindowStore {
	return &memoryWindowStore{entries: map[string][]time.Time{}}
}

func (s *memoryWindowStore) Slide(_ context.Context, key string, now time.Time, window time.Duration) (int64, error) {
	kept := make([]time.Time, 0)
	for _, ts := range s.entries[key] {
		if now.Sub(ts) < window {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	s.entries[key] = kept
	s.keys = append(s.keys, key)
	return int64(len(kept)), nil
}

type failingWindowStore struct{}

func (failingWindowStore) Slide(context.Context, string, time.Time, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func testConfig() *config.Config {
	return &config.Config{
		RateLimitAuth:     config.RatePolicy{MaxRequests: 10, Window: 60 * time.Second},
		RateLimitListings: config.RatePolicy{MaxRequests: 30, Window: 60 * time.Second},
		RateLimitMessages: config.RatePolicy{MaxRequests: 60, Window: 60 * time.Second},
		RateLimitDefault:  config.RatePolicy{MaxRequests: 100, Window: 60 * time.Second},
	}
}

func Test_Admit_allows_up_to_the_class_limit(t *testing.T) {
	limiter := ratelimit.NewLimiter(newMemoryWindowStore(), testConfig(), logger.NewNop())
	ctx := context.Background()

	var last ratelimit.Result
	for i := 0; i < 10; i++ {
		last = limiter.Admit(ctx, "client-a:/v1/auth/telegram", ratelimit.ClassAuth)
		require.True(t, last.Allowed, "request %d should be admitted", i+1)
	}

	assert.Equal(t, 10, last.Limit)
	assert.Equal(t, 0, last.Remaining)

	rejected := limiter.Admit(ctx, "client-a:/v1/auth/telegram", ratelimit.ClassAuth)
	assert.False(t, rejected.Allowed)
	assert.Equal(t, 0, rejected.Remaining)
	assert.False(t, rejected.FailedOpen)
}

func Test_Admit_counts_fingerprints_independently(t *testing.T) {
	limiter := ratelimit.NewLimiter(newMemoryWindowStore(), testConfig(), logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		limiter.Admit(ctx, "client-a:/v1/auth/telegram", ratelimit.ClassAuth)
	}

	other := limiter.Admit(ctx, "client-b:/v1/auth/telegram", ratelimit.ClassAuth)
	assert.True(t, other.Allowed)
	assert.Equal(t, 9, other.Remaining)
}

func Test_Admit_window_slides_old_requests_out(t *testing.T) {
	store := newMemoryWindowStore()
	limiter := ratelimit.NewLimiter(store, testConfig(), logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		limiter.Admit(ctx, "client-a:/v1/auth/telegram", ratelimit.ClassAuth)
	}
	require.False(t, limiter.Admit(ctx, "client-a:/v1/auth/telegram", ratelimit.ClassAuth).Allowed)

	// Age every recorded entry past the window.
	for key, entries := range store.entries {
		for i := range entries {
			entries[i] = entries[i].Add(-61 * time.Second)
		}
		store.entries[key] = entries
	}

	assert.True(t, limiter.Admit(ctx, "client-a:/v1/auth/telegram", ratelimit.ClassAuth).Allowed)
}

func Test_Admit_fails_open_when_store_is_down(t *testing.T) {
	limiter := ratelimit.NewLimiter(failingWindowStore{}, testConfig(), logger.NewNop())

	result := limiter.Admit(context.Background(), "client-a:/v1/chats", ratelimit.ClassMessages)

	assert.True(t, result.Allowed)
	assert.True(t, result.FailedOpen)
}

func Test_Admit_keys_include_class_and_fingerprint(t *testing.T) {
	store := newMemoryWindowStore()
	limiter := ratelimit.NewLimiter(store, testConfig(), logger.NewNop())

	limiter.Admit(context.Background(), "abcd1234:/v1/listings", ratelimit.ClassListings)

	require.Len(t, store.keys, 1)
	assert.Equal(t, "rl:listings:abcd1234:/v1/listings", store.keys[0])
}

func Test_ClassForPath_buckets_routes(t *testing.T) {
	cases := map[string]ratelimit.Class{
		"/v1/auth/telegram":       ratelimit.ClassAuth,
		"/v1/listings":            ratelimit.ClassListings,
		"/v1/listings/categories": ratelimit.ClassListings,
		"/v1/chats":               ratelimit.ClassMessages,
		"/v1/chats/123/messages":  ratelimit.ClassMessages,
		"/v1/users/me":            ratelimit.ClassDefault,
		"/v1/uploads":             ratelimit.ClassDefault,
	}

	for path, want := range cases {
		assert.Equal(t, want, ratelimit.ClassForPath(path), "path %s", path)
	}
}
