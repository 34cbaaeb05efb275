package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/deskhivelabs/deskhive/internal/config"
)

var Module = fx.Module("redis",
	fx.Provide(NewClient),
	fx.Provide(NewDeduper),
)

// NewClient returns nil when no redis address is configured; consumers treat
// a nil client as "feature disabled".
func NewClient(cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return client, nil
}
