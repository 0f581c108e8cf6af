package window

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"medbee/internal/ratelimit/models"
)

// counterScript increments the window counter, starting the window on the
// first hit, and returns the count with the remaining window in ms.
var counterScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

var errBadReply = errors.New("unexpected rate limit script reply")

const keyPrefix = "medbee:rl:"

// RedisStore counts fixed windows in Redis so every instance shares them.
type RedisStore struct {
	client redis.Scripter
	now    func() time.Time
}

func NewRedis(client redis.Scripter) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Allow records one hit for key and reports whether it fits in limit.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	res, err := counterScript.Run(ctx, s.client, []string{keyPrefix + key}, window.Milliseconds()).Result()
	if err != nil {
		return nil, err
	}
	vals, ok := res.([]any)
	if !ok || len(vals) < 2 {
		return nil, errBadReply
	}
	count, ok := vals[0].(int64)
	if !ok {
		return nil, errBadReply
	}
	ttl, _ := vals[1].(int64)
	if ttl < 0 {
		ttl = window.Milliseconds()
	}
	resetIn := time.Duration(ttl) * time.Millisecond

	result := &models.RateLimitResult{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		ResetAt:   s.now().Add(resetIn).UTC(),
	}
	if !result.Allowed {
		result.RetryAfter = int(math.Ceil(resetIn.Seconds()))
	}
	return result, nil
}
