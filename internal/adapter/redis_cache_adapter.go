package adapter

import (
	"context"
	"errors"
	"time"

	"induction-portal/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisCacheAdapter implements domain.Cache on a go-redis client.
type RedisCacheAdapter struct {
	client redis.Cmdable
}

// NewRedisCacheAdapter wraps a connected client.
func NewRedisCacheAdapter(client redis.Cmdable) domain.Cache {
	return &RedisCacheAdapter{client: client}
}

// missOr maps redis.Nil to domain.ErrCacheMiss.
func missOr(err error) error {
	if errors.Is(err, redis.Nil) {
		return domain.ErrCacheMiss
	}
	return err
}

func (r *RedisCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", missOr(err)
	}
	return val, nil
}

func (r *RedisCacheAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisCacheAdapter) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCacheAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCacheAdapter) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := r.client.HGet(ctx, key, field).Result()
	if err != nil {
		return "", missOr(err)
	}
	return val, nil
}

func (r *RedisCacheAdapter) HSet(ctx context.Context, key string, field string, value string) error {
	return r.client.HSet(ctx, key, field, value).Err()
}

func (r *RedisCacheAdapter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.client.Expire(ctx, key, expiration).Err()
}
