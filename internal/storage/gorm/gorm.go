// Package gormstorage implements storage.Backend on any GORM dialect. The
// sqlite and postgres backends wrap it and only own the connection.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oscmix/spatializer/internal/model"
	"github.com/oscmix/spatializer/internal/model/convert"
	"github.com/oscmix/spatializer/internal/storage"
	"github.com/oscmix/spatializer/pkg/core"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend implements storage.Backend using GORM.
type Backend struct {
	deps    Dependencies
	dbReady bool
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Backend{deps: deps}
}

// Init migrates the layout table.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm storage: no database")
	}
	if err := b.deps.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.dbReady = true
	return nil
}

// Close marks the backend unusable. The connection belongs to the caller.
func (b *Backend) Close() error {
	b.dbReady = false
	return nil
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

func (b *Backend) ready() error {
	if !b.dbReady {
		return errors.New("gorm storage: not initialised")
	}
	return nil
}

// Save upserts l by name.
func (b *Backend) Save(l core.Layout) error {
	if err := b.ready(); err != nil {
		return err
	}
	name, err := storage.ValidateName(l.Name)
	if err != nil {
		return err
	}
	l.Name = name

	row, err := convert.CoreToLayout(l)
	if err != nil {
		return err
	}
	err = b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"objects", "positions", "labels", "saved_at", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving layout %q: %w", name, err)
	}
	b.deps.Logger.Debug("layout stored", "name", name, "objects", row.Objects)
	return nil
}

// Load returns the named layout.
func (b *Backend) Load(name string) (core.Layout, error) {
	if err := b.ready(); err != nil {
		return core.Layout{}, err
	}
	name, err := storage.ValidateName(name)
	if err != nil {
		return core.Layout{}, err
	}

	var row model.Layout
	err = b.deps.DB.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Layout{}, fmt.Errorf("%w: %q", storage.ErrLayoutNotFound, name)
	}
	if err != nil {
		return core.Layout{}, fmt.Errorf("loading layout %q: %w", name, err)
	}
	return convert.LayoutToCore(row)
}

// Delete removes the named layout permanently.
func (b *Backend) Delete(name string) error {
	if err := b.ready(); err != nil {
		return err
	}
	name, err := storage.ValidateName(name)
	if err != nil {
		return err
	}

	res := b.deps.DB.Unscoped().Where("name = ?", name).Delete(&model.Layout{})
	if res.Error != nil {
		return fmt.Errorf("deleting layout %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", storage.ErrLayoutNotFound, name)
	}
	b.deps.Logger.Debug("layout deleted", "name", name)
	return nil
}

// List returns every layout ordered by name.
func (b *Backend) List() ([]core.LayoutInfo, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	var rows []model.Layout
	err := b.deps.DB.Select("name", "objects", "saved_at").Order("name").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing layouts: %w", err)
	}
	infos := make([]core.LayoutInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, convert.LayoutToInfo(r))
	}
	return infos, nil
}

// All returns every layout with its contents, ordered by name.
func (b *Backend) All() ([]core.Layout, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}

	var rows []model.Layout
	if err := b.deps.DB.Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reading layouts: %w", err)
	}
	out := make([]core.Layout, 0, len(rows))
	for _, r := range rows {
		l, err := convert.LayoutToCore(r)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
