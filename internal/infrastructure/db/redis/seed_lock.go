package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/usermgmt/user-service/internal/core/ports"
)

const seedLockTTL = time.Minute

// SeedLock is a short-lived SET NX lock so that only one replica runs the
// bootstrap seed at a time. The key expires on its own; it is never released.
type SeedLock struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.SeedLock = (*SeedLock)(nil)

func NewSeedLock(client *redis.Client) *SeedLock {
	return &SeedLock{client: client, ttl: seedLockTTL}
}

// Acquire reports whether this caller now holds key.
func (l *SeedLock) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("seed lock %s: %w", key, err)
	}
	return ok, nil
}
