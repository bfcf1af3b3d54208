// Package sqlitestorage implements the storage.Backend interface on SQLite.
// It wraps the GORM backend via composition; the SQLite-specific concerns are
// opening the database (a file, or memory when no path is set) and copying
// it to a backup file with VACUUM INTO.
package sqlitestorage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"github.com/oscmix/spatializer/internal/database"
	gormstorage "github.com/oscmix/spatializer/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path       string // empty for an in-memory database
	BackupPath string // written on Close, and restored on Init for in-memory databases
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	manager *database.Manager
	cfg     Config
	log     *slog.Logger
}

// New opens the SQLite database described by cfg.
func New(cfg Config, dbLog zerolog.Logger, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	manager := database.NewManager(dbLog)
	if err := manager.ConnectSqlite(cfg.Path); err != nil {
		return nil, fmt.Errorf("failed to create SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: manager.DB, Logger: log}),
		manager: manager,
		cfg:     cfg,
		log:     log,
	}, nil
}

// Init migrates the schema and, for an in-memory database, restores the
// layouts of the last backup.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}
	if b.cfg.Path == "" && b.cfg.BackupPath != "" {
		return b.restore()
	}
	return nil
}

// Close writes the backup, if configured, and closes the database.
func (b *Backend) Close() error {
	var errs []error
	if b.cfg.BackupPath != "" {
		if err := b.manager.Backup(b.cfg.BackupPath); err != nil {
			b.log.Error("Error dumping layouts to disk", "path", b.cfg.BackupPath, "error", err)
			errs = append(errs, err)
		}
	}
	errs = append(errs, b.Backend.Close(), b.manager.Close())
	return errors.Join(errs...)
}

func (b *Backend) restore() error {
	if _, err := os.Stat(b.cfg.BackupPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	source, err := New(Config{Path: b.cfg.BackupPath}, b.manager.Logger, b.log)
	if err != nil {
		return fmt.Errorf("opening backup: %w", err)
	}
	defer source.manager.Close()
	if err := source.Backend.Init(); err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}

	layouts, err := source.All()
	if err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}
	for _, l := range layouts {
		if err := b.Save(l); err != nil {
			return fmt.Errorf("restoring layout %q: %w", l.Name, err)
		}
	}
	b.log.Info("Restored layouts from backup", "path", b.cfg.BackupPath, "count", len(layouts))
	return nil
}
