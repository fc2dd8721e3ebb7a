package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/aura/storage"
	"github.com/MrEthical07/aura/storage/memory"
	"github.com/MrEthical07/aura/storage/postgres"
	"github.com/MrEthical07/aura/storage/redisstore"
	"github.com/MrEthical07/aura/storage/sqlite"
	"github.com/redis/go-redis/v9"
)

const storageDialTimeout = 5 * time.Second

// openStorage opens the configured backend. The returned close func releases it.
func openStorage(ctx context.Context, cfg Config, log *slog.Logger) (storage.KV, func() error, error) {
	switch cfg.Storage {
	case BackendMemory:
		st := memory.New()
		log.Warn("storage.memory", slog.String("note", "session does not survive restarts"))
		return st, st.Close, nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, storageDialTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		log.Info("storage.redis", slog.String("addr", cfg.RedisAddr), slog.String("prefix", cfg.RedisPrefix))
		return redisstore.NewStore(client, cfg.RedisPrefix), client.Close, nil

	case BackendSQLite:
		st, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("storage.sqlite", slog.String("path", cfg.SQLitePath))
		return st, st.Close, nil

	case BackendPostgres:
		st, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Info("storage.postgres")
		return st, st.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage)
	}
}
