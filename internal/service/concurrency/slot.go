// Package concurrency holds the cluster-wide dial slot shared by every scheduler replica.
package concurrency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// acquireScript drops expired holders, then admits the caller if fewer than limit remain.
// Re-acquiring with the same token refreshes its lease.
var acquireScript = redis.NewScript(`
local key = KEYS[1]
local token = ARGV[1]
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now)
if redis.call('ZSCORE', key, token) or redis.call('ZCARD', key) < limit then
  redis.call('ZADD', key, now + ttl, token)
  redis.call('PEXPIRE', key, ttl)
  return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
local removed = redis.call('ZREM', KEYS[1], ARGV[1])
if redis.call('ZCARD', KEYS[1]) == 0 then
  redis.call('DEL', KEYS[1])
end
return removed
`)

// Slot is a Redis-backed lease on one of limit concurrent dial slots. Each Slot value holds at most one lease.
type Slot struct {
	client *redis.Client
	key    string
	token  string
	limit  int
	ttl    time.Duration
	now    func() time.Time
}

// NewSlot constructs a dial slot. The lease ttl should outlive the longest call.
func NewSlot(client *redis.Client, key string, limit int, ttl time.Duration) *Slot {
	if limit <= 0 {
		limit = 1
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if key == "" {
		key = "coldcall:dial-slot"
	}
	return &Slot{client: client, key: key, token: uuid.NewString(), limit: limit, ttl: ttl, now: time.Now}
}

// Acquire attempts to take the slot. It returns false when every slot is leased by someone else.
func (s *Slot) Acquire(ctx context.Context) (bool, error) {
	res, err := acquireScript.Run(ctx, s.client, []string{s.key},
		s.token, s.limit, s.now().UnixMilli(), s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("dial slot acquire: %w", err)
	}
	return res == 1, nil
}

// Release gives the slot back.
func (s *Slot) Release(ctx context.Context) error {
	if _, err := releaseScript.Run(ctx, s.client, []string{s.key}, s.token).Int(); err != nil {
		return fmt.Errorf("dial slot release: %w", err)
	}
	return nil
}
