// Package postgres implements the storage.Backend interface on PostgreSQL
// through the GORM backend.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/oscmix/spatializer/internal/config"
	"github.com/oscmix/spatializer/internal/database"
	gormstorage "github.com/oscmix/spatializer/internal/storage/gorm"
	"github.com/oscmix/spatializer/pkg/core"
)

var errNotConnected = errors.New("postgres storage: not connected")

// Backend connects to Postgres on Init and delegates to the GORM backend.
type Backend struct {
	cfg     config.DBConfig
	manager *database.Manager
	log     *slog.Logger
	inner   *gormstorage.Backend
}

// New creates a Postgres backend. No connection is made until Init.
func New(cfg config.DBConfig, dbLog zerolog.Logger, log *slog.Logger) *Backend {
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		cfg:     cfg,
		manager: database.NewManager(dbLog),
		log:     log,
	}
}

// Init connects, validates the connection and migrates the schema.
func (b *Backend) Init() error {
	if err := b.manager.ConnectPostgres(b.cfg); err != nil {
		return err
	}
	if err := b.manager.Setup(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.inner = gormstorage.New(gormstorage.Dependencies{DB: b.manager.DB, Logger: b.log})
	return b.inner.Init()
}

// Close releases the connection.
func (b *Backend) Close() error {
	var errs []error
	if b.inner != nil {
		errs = append(errs, b.inner.Close())
	}
	errs = append(errs, b.manager.Close())
	return errors.Join(errs...)
}

func (b *Backend) Save(l core.Layout) error {
	if b.inner == nil {
		return errNotConnected
	}
	return b.inner.Save(l)
}

func (b *Backend) Load(name string) (core.Layout, error) {
	if b.inner == nil {
		return core.Layout{}, errNotConnected
	}
	return b.inner.Load(name)
}

func (b *Backend) Delete(name string) error {
	if b.inner == nil {
		return errNotConnected
	}
	return b.inner.Delete(name)
}

func (b *Backend) List() ([]core.LayoutInfo, error) {
	if b.inner == nil {
		return nil, errNotConnected
	}
	return b.inner.List()
}
