package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/config"
	"github.com/Rogue-Bear-Innovations/foodgram-back/internal/service"
)

type (
	Redis struct {
		client *redis.Client
		ttl    time.Duration
	}

	Noop struct{}
)

// NewReferenceCache returns a Redis-backed cache, or Noop when no Redis
// address is configured.
func NewReferenceCache(lc fx.Lifecycle, cfg *config.Config, l *zap.SugaredLogger) (service.ReferenceCache, error) {
	if cfg.RedisAddr == "" {
		l.Info("reference cache disabled")
		return Noop{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Info("Closing redis connection.")
			return client.Close()
		},
	})

	return NewRedis(client, cfg.CacheTTL), nil
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
	}
}

func (c *Redis) Load(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "redis get")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, errors.Wrap(err, "decode cached value")
	}
	return true, nil
}

func (c *Redis) Store(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode value")
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(c.client.Del(ctx, keys...).Err(), "redis del")
}

func (Noop) Load(context.Context, string, interface{}) (bool, error) {
	return false, nil
}

func (Noop) Store(context.Context, string, interface{}) error {
	return nil
}
