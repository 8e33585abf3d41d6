package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the narrow redis surface the service uses: string values for the
// assessment result cache, bit-level Lua scripts for the bloom filter.
type Cache interface {
	SetString(ctx context.Context, key, value string, exp time.Duration) error
	GetString(ctx context.Context, key string) (string, error)

	ScriptRun(ctx context.Context, script *redis.Script, keys []string,
		args ...any) (any, error)

	Del(ctx context.Context, keys ...string) (int64, error)
}
