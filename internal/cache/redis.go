package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis stores snapshots under game:{id} with a TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis connects to rawURL (redis:// or rediss://) and pings the server.
func NewRedis(ctx context.Context, rawURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

func (r *Redis) Get(ctx context.Context, id uuid.UUID) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", Key(id), err)
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, id uuid.UUID, data []byte) error {
	if err := r.rdb.Set(ctx, Key(id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", Key(id), err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.rdb.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", Key(id), err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

var (
	_ Cache = (*Redis)(nil)
	_ Cache = (*Memory)(nil)
)
