package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisPingTimeout = 5 * time.Second
	redisScanCount   = 100
)

// RedisDriver stores keys verbatim in a redis database
type RedisDriver struct {
	client *redis.Client
}

// NewRedisDriver connects to the redis URL and pings it
func NewRedisDriver(ctx context.Context, url string) (*RedisDriver, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis binding: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisDriverWithClient(client), nil
}

// NewRedisDriverWithClient wraps an existing client
func NewRedisDriverWithClient(client *redis.Client) *RedisDriver {
	return &RedisDriver{client: client}
}

func (d *RedisDriver) Name() string { return "redis" }

func (d *RedisDriver) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := d.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

func (d *RedisDriver) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := d.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (d *RedisDriver) Has(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", key, err)
	}
	return n > 0, nil
}

func (d *RedisDriver) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := d.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (d *RedisDriver) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	iter := d.client.Scan(ctx, 0, escapeGlob(prefix)+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	// SCAN may return a key more than once
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

func (d *RedisDriver) Close() error {
	return d.client.Close()
}

func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
