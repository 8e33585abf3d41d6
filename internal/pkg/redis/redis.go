package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Cache over a go-redis client.
type Redis struct {
	client *redis.Client
}

const Nil = redis.Nil

// New creates a Cache from an existing client.
func New(client *redis.Client) Cache {
	return &Redis{client: client}
}

// NewScript wraps a Lua script for ScriptRun.
func NewScript(script string) *redis.Script {
	return redis.NewScript(script)
}

func (r *Redis) SetString(ctx context.Context, key, value string, exp time.Duration) error {
	return r.client.Set(ctx, key, value, exp).Err()
}

func (r *Redis) GetString(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// ScriptRun executes a Lua script on a dedicated connection.
func (r *Redis) ScriptRun(ctx context.Context, script *redis.Script, keys []string, args ...any) (any, error) {
	conn := r.client.Conn()
	defer conn.Close()

	return script.Run(ctx, conn, keys, args...).Result()
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	return r.client.Del(ctx, keys...).Result()
}
