package cache

import (
	"context"
	"time"

	"tadbeer.com/hrms/storage/redis"
)

const lockPrefix = "lock"

// TryLock takes a distributed lock via SETNX. Two admins triggering a
// sync at the same time must not interleave device sessions; the loser
// gets told a sync is already running.
func TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	fullkey := redis.Key(lockPrefix, key)

	result, err := redis.Client().SetNX(ctx, fullkey, 1, ttl).Result()
	if err != nil {
		return false, err
	}
	return result, nil
}

func Unlock(ctx context.Context, key string) error {
	fullkey := redis.Key(lockPrefix, key)
	return redis.Client().Del(ctx, fullkey).Err()
}
