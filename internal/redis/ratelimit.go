package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// WindowStore keeps one sorted set of request timestamps per rate limit key.
// Scores are unix milliseconds; members carry a random suffix so two
// requests landing on the same millisecond both count.
type WindowStore struct {
	client *goredis.Client
}

func NewWindowStore(client *goredis.Client) *WindowStore {
	return &WindowStore{client: client}
}

// The four steps run inside one script so concurrent callers can never
// interleave between eviction and counting. PEXPIRE keeps abandoned keys
// self-cleaning.
var slideScript = goredis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local member = ARGV[3]

	redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
	redis.call('ZADD', key, now, member)
	local count = redis.call('ZCARD', key)
	redis.call('PEXPIRE', key, window)
	return count
`)

// Slide implements ratelimit.WindowStore.
func (s *WindowStore) Slide(ctx context.Context, key string, now time.Time, window time.Duration) (int64, error) {
	nowMs := now.UnixMilli()
	member := fmt.Sprintf("%d:%s", nowMs, uuid.NewString())

	count, err := slideScript.Run(ctx, s.client, []string{key}, nowMs, window.Milliseconds(), member).Int64()
	if err != nil {
		return 0, fmt.Errorf("sliding window update failed: %w", err)
	}
	return count, nil
}
