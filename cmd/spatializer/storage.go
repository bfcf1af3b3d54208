package main

import (
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/oscmix/spatializer/internal/config"
	"github.com/oscmix/spatializer/internal/storage"
	"github.com/oscmix/spatializer/internal/storage/memory"
	pgstorage "github.com/oscmix/spatializer/internal/storage/postgres"
	sqlitestorage "github.com/oscmix/spatializer/internal/storage/sqlite"
)

// openStorage creates the configured layout store and initializes it.
func openStorage(cfg config.StorageConfig, dbLog zerolog.Logger, logger *slog.Logger) (storage.Backend, error) {
	backend, err := createStorageBackend(cfg, dbLog, logger)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("initializing %s storage: %w", cfg.Type, err)
	}
	logger.Info("Layout storage ready", "type", cfg.Type)
	return backend, nil
}

func createStorageBackend(cfg config.StorageConfig, dbLog zerolog.Logger, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(cfg.Memory), nil

	case "sqlite":
		backend, err := sqlitestorage.New(sqlitestorage.Config{
			Path:       cfg.SQLite.Path,
			BackupPath: cfg.SQLite.BackupPath,
		}, dbLog, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		return backend, nil

	case "postgres":
		return pgstorage.New(config.GetDBConfig(), dbLog, logger), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
