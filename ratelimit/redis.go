package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a shared-counter fixed-window limiter for multi-instance
// deployments. Keys are bucketed by minute; INCR + EXPIRE keeps the
// counter self-expiring.
type Redis struct {
	client *redis.Client
}

func NewRedis(redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opt)}, nil
}

func (r *Redis) Check(ctx context.Context, key string, limitPerMinute int) (Result, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%s", key, time.Now().UTC().Format("2006-01-02-15-04"))

	count, err := r.client.Incr(ctx, bucket).Result()
	if err != nil {
		return Result{}, err
	}
	if count == 1 {
		r.client.Expire(ctx, bucket, window)
	}

	if count > int64(limitPerMinute) {
		return Result{Allowed: false, Remaining: 0}, nil
	}
	return Result{Allowed: true, Remaining: limitPerMinute - int(count)}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
