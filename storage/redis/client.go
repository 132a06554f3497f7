package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"tadbeer.com/hrms/config"
)

var (
	client *redis.Client
	once   sync.Once
)

func Init(ctx context.Context) error {
	var err error
	once.Do(func() {
		c := redis.NewClient(&redis.Options{
			Addr:     config.Cfg.RedisAddr,
			Password: config.Cfg.RedisPassword,
			DB:       config.Cfg.RedisDB,
		})
		if perr := c.Ping(ctx).Err(); perr != nil {
			err = fmt.Errorf("failed to ping redis: %w", perr)
			return
		}
		client = c
	})
	return err
}

func Client() *redis.Client {
	return client
}

func Key(parts ...string) string {
	return config.Cfg.RedisPrefix + ":" + strings.Join(parts, ":")
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
