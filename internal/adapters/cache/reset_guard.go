package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ResetGuard is a SETNX based run-once marker shared by all API replicas.
type ResetGuard struct {
	rdb   *redis.Client
	owner string
}

func NewResetGuard(rdb *redis.Client) *ResetGuard {
	host, _ := os.Hostname()
	return &ResetGuard{
		rdb:   rdb,
		owner: fmt.Sprintf("%s:%d", host, os.Getpid()),
	}
}

// Acquire returns true for the first caller of key until the ttl expires.
func (g *ResetGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, key, g.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("reset guard %s: %w", key, err)
	}
	return ok, nil
}

// Release drops the marker if it is still held by this instance.
func (g *ResetGuard) Release(ctx context.Context, key string) error {
	if err := releaseScript.Run(ctx, g.rdb, []string{key}, g.owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("reset guard %s: %w", key, err)
	}
	return nil
}
