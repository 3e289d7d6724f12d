package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options are the connection settings for the lock backend. Zero values
// fall back to defaults sized for slot-lock traffic: single short
// commands (SetNX, one Lua unlock), no pipelines, a modest number of
// concurrent bookers per process.
type Options struct {
	Addr           string
	Username       string
	Password       string
	CommandTimeout time.Duration
	PoolSize       int
}

const (
	defaultCommandTimeout = 500 * time.Millisecond
	defaultPoolSize       = 16
)

func (o Options) normalized() Options {
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = defaultCommandTimeout
	}
	if o.PoolSize <= 0 {
		o.PoolSize = defaultPoolSize
	}
	return o
}

func NewRedisClient(opts Options) (*redis.Client, error) {
	opts = opts.normalized()

	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.Username,
		Password:     opts.Password,
		DialTimeout:  2 * opts.CommandTimeout,
		ReadTimeout:  opts.CommandTimeout,
		WriteTimeout: opts.CommandTimeout,
		PoolSize:     opts.PoolSize,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return rdb, nil
}
