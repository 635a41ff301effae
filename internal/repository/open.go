// Package repository selects and opens the configured persistence backends.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"mediscript/internal/config"
	"mediscript/internal/domain/repositories"
	"mediscript/internal/repository/collection"
	"mediscript/internal/repository/memory"
	"mediscript/internal/repository/objectstore"
	"mediscript/internal/repository/postgres"
	"mediscript/internal/repository/redis"
	"mediscript/internal/repository/sqlite"
)

// OpenBackend opens the key-value backend named by cfg.StorageBackend.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.KVBackend, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		logger.Warn("using in-memory storage, records are lost on exit")
		return memory.NewBackend(), nil

	case config.StorageRedis:
		backend, err := redis.NewBackend(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("storage connected", "backend", "redis")
		return backend, nil

	case config.StoragePostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		backend := postgres.NewKVBackend(pool, postgres.NewTableNames(cfg.TablePrefix), logger)
		if err := backend.EnsureSchema(ctx); err != nil {
			backend.Close()
			return nil, err
		}
		logger.Info("storage connected", "backend", "postgres", "table_prefix", cfg.TablePrefix)
		return backend, nil

	case config.StorageSQLite:
		backend, err := sqlite.NewBackend(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("storage connected", "backend", "sqlite", "path", backend.Path())
		return backend, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// OpenStore opens the configured backend and wraps it in a record store.
// Close the store to release the backend.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*collection.Store, error) {
	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageBackend, err)
	}
	return collection.NewStore(backend, cfg.StorageKey, logger), nil
}

// OpenArchive returns the source document archive, or nil when none is configured.
func OpenArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repositories.SourceArchive, error) {
	if cfg.MinioEndpoint == "" {
		return nil, nil
	}
	archive, err := objectstore.NewArchive(ctx, objectstore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open source archive: %w", err)
	}
	logger.Info("source archive enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	return archive, nil
}
