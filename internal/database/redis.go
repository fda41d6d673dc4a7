package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions tunes the client for cache traffic. Zero values keep the
// go-redis defaults.
type RedisOptions struct {
	PoolSize int
	Timeout  time.Duration
}

// NewRedisClient connects to redisURL and pings it before returning.
func NewRedisClient(redisURL string, opts RedisOptions) (*redis.Client, error) {
	opt, err := redisClientOptions(redisURL, opts)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", opt.Addr, err)
	}

	return client, nil
}

// redisClientOptions applies opts on top of the URL. A cache lookup that is
// slower than Timeout counts as a miss upstream, so reads and writes share it.
func redisClientOptions(redisURL string, opts RedisOptions) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	if opts.Timeout > 0 {
		opt.ReadTimeout = opts.Timeout
		opt.WriteTimeout = opts.Timeout
	}
	return opt, nil
}
