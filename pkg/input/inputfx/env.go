package inputfx

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/toyz/axon-input/internal/config"
	"github.com/toyz/axon-input/internal/logging"
	"github.com/toyz/axon-input/pkg/input"
	"github.com/toyz/axon-input/pkg/input/rediscache"
	"github.com/toyz/axon-input/pkg/input/repository"
)

// FromEnv supplies the logger, directive reader and metadata cache configured by the
// AXON_INPUT_* environment variables, plus a *sql.DB when a MySQL host is set.
// Combine it with Module.
func FromEnv() fx.Option {
	cfg, err := config.Load()
	if err != nil {
		return fx.Error(err)
	}
	return FromConfig(cfg)
}

// FromConfig is FromEnv with an explicit configuration
func FromConfig(cfg *config.Config) fx.Option {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return fx.Error(err)
	}
	reader, err := cfg.Reader()
	if err != nil {
		return fx.Error(err)
	}

	opts := []fx.Option{
		fx.Supply(cfg, logger),
		fx.Provide(func() input.Reader { return reader }),
	}

	switch cfg.Cache {
	case config.CacheMemory:
		opts = append(opts, fx.Provide(func() input.Cache { return input.NewMemoryCache() }))
	case config.CacheRedis:
		opts = append(opts, fx.Provide(newRedisCache))
	}

	if cfg.MySQLEnabled() {
		opts = append(opts, fx.Provide(newMySQL))
	}
	return fx.Options(opts...)
}

func newRedisCache(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (input.Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	cache, err := rediscache.New(rediscache.Config{
		Client:    client,
		KeyPrefix: cfg.CachePrefix,
		TTL:       cfg.CacheTTL,
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
			logger.Info("metadata cache connected", "backend", config.CacheRedis, "addr", cfg.RedisAddr)
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return cache, nil
}

func newMySQL(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := repository.OpenMySQL(cfg.MySQL(), logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(db.Close))
	return db, nil
}
