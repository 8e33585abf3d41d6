package data

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	redis "github.com/redis/go-redis/v9"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/conf"
	pkgredis "github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/redis"
)

// NewRedisCache creates a new Redis cache from configuration.
func NewRedisCache(c *conf.Data, logger log.Logger) (pkgredis.Cache, func(), error) {
	helper := log.NewHelper(logger)

	opts := &redis.Options{
		Addr:    c.Redis.Addr,
		Network: c.Redis.Network,
	}
	if c.Redis.ReadTimeout > 0 {
		opts.ReadTimeout = time.Duration(c.Redis.ReadTimeout) * time.Second
	}
	if c.Redis.WriteTimeout > 0 {
		opts.WriteTimeout = time.Duration(c.Redis.WriteTimeout) * time.Second
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		helper.Errorf("failed to connect to Redis at %s: %v", c.Redis.Addr, err)
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cleanup := func() {
		helper.Info("closing redis connection")
		client.Close()
	}

	return pkgredis.New(client), cleanup, nil
}
