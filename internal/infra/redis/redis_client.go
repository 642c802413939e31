package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-pizza-shop/internal/config"
	"telegram-pizza-shop/internal/domain"
)

// RedisClient is the minimal store surface the snapshot repository needs:
// get/set of an opaque byte blob by key.
type RedisClient interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	opts := &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &redClient{cli: c}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return c.cli.Set(ctx, key, value, expiration).Err()
}

// Get returns domain.ErrNotFound for an absent key so callers never confuse
// "no data yet" with a transport failure.
func (c *redClient) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.cli.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *redClient) Close() error { return c.cli.Close() }
