// internal/restart/restart.go

// Package restart exposes the "server restarting" gate the lobby consults
// before letting anyone create an invite.
package restart

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Coordinator answers whether the server is winding down for a restart.
// MinutesUntil's second result is false when no ETA is known (the client is
// then told "under maintenance" instead of a countdown).
type Coordinator interface {
	Restarting(ctx context.Context) (bool, error)
	MinutesUntil(ctx context.Context) (int, bool)
}

// RestartAtKey is the Redis key holding the scheduled restart time as a unix
// timestamp in seconds. Ops tooling sets it; deleting it clears the gate.
const RestartAtKey = "server:restart_at"

// RedisCoordinator reads the restart schedule from Redis so every node in a
// deployment gates creation consistently.
type RedisCoordinator struct {
	rdb *redis.Client
}

// NewRedisCoordinator wraps an existing Redis client.
func NewRedisCoordinator(rdb *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{rdb: rdb}
}

// Restarting reports whether a restart is scheduled and not yet past. Errors
// propagate to the caller, which must treat a failed check as "deny".
func (c *RedisCoordinator) Restarting(ctx context.Context) (bool, error) {
	ts, err := c.rdb.Get(ctx, RestartAtKey).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Now().Unix() < ts, nil
}

// MinutesUntil returns the whole minutes until the scheduled restart, rounded
// up, or false if no schedule is readable.
func (c *RedisCoordinator) MinutesUntil(ctx context.Context) (int, bool) {
	ts, err := c.rdb.Get(ctx, RestartAtKey).Int64()
	if err != nil {
		return 0, false
	}
	secs := ts - time.Now().Unix()
	if secs <= 0 {
		return 0, false
	}
	return int((secs + 59) / 60), true
}

// Static is a fixed coordinator for tests and for running without Redis.
type Static struct {
	IsRestarting bool
	Minutes      int
	HasETA       bool
	Err          error
}

// Restarting implements Coordinator.
func (s Static) Restarting(context.Context) (bool, error) { return s.IsRestarting, s.Err }

// MinutesUntil implements Coordinator.
func (s Static) MinutesUntil(context.Context) (int, bool) { return s.Minutes, s.HasETA }
