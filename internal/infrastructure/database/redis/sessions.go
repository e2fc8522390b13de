// internal/infrastructure/database/redis/sessions.go
package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionActivityKey = "cart:sessions:activity"

// forgetIdleScript removes each member of ARGV[2:] whose score is still below
// ARGV[1]. Sessions touched after the scan keep their entry.
var forgetIdleScript = redis.NewScript(`
local removed = 0
for i = 2, #ARGV do
	local score = redis.call('ZSCORE', KEYS[1], ARGV[i])
	if score and tonumber(score) < tonumber(ARGV[1]) then
		removed = removed + redis.call('ZREM', KEYS[1], ARGV[i])
	end
end
return removed
`)

// SessionTracker records the last cart activity of each session in a sorted
// set scored by unix seconds
type SessionTracker struct {
	rdb *redis.Client
	now func() time.Time
}

// NewSessionTracker creates a new session activity tracker
func NewSessionTracker(c *Client) *SessionTracker {
	return &SessionTracker{rdb: c.Redis, now: time.Now}
}

// Touch marks sessionID as active now
func (t *SessionTracker) Touch(ctx context.Context, sessionID string) error {
	return t.rdb.ZAdd(ctx, sessionActivityKey, redis.Z{
		Score:  float64(t.now().Unix()),
		Member: sessionID,
	}).Err()
}

// Stale returns up to limit sessions whose last activity is before cutoff,
// oldest first
func (t *SessionTracker) Stale(ctx context.Context, cutoff time.Time, limit int64) ([]string, error) {
	return t.rdb.ZRangeByScore(ctx, sessionActivityKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(cutoff.Unix(), 10),
		Count: limit,
	}).Result()
}

// Forget removes sessions from the activity set unless they were touched at
// or after cutoff
func (t *SessionTracker) Forget(ctx context.Context, cutoff time.Time, sessionIDs ...string) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(sessionIDs)+1)
	args = append(args, cutoff.Unix())
	for _, id := range sessionIDs {
		args = append(args, id)
	}
	return forgetIdleScript.Run(ctx, t.rdb, []string{sessionActivityKey}, args...).Err()
}
