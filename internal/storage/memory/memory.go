// Package memory keeps layouts in memory and, when an output directory is
// configured, mirrors each one to a JSON file so they survive restarts.
package memory

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/oscmix/spatializer/internal/config"
	"github.com/oscmix/spatializer/internal/storage"
	"github.com/oscmix/spatializer/pkg/core"
)

// Backend stores layouts in memory and exports them to JSON
type Backend struct {
	cfg     config.MemoryConfig
	layouts map[string]core.Layout // keyed by name
	mu      sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:     cfg,
		layouts: make(map[string]core.Layout),
	}
}

// Init creates the output directory and loads the layouts already in it.
func (b *Backend) Init() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	loaded, err := b.importDir()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range loaded {
		b.layouts[l.Name] = l
	}
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Save stores a copy of l and writes its file.
func (b *Backend) Save(l core.Layout) error {
	name, err := storage.ValidateName(l.Name)
	if err != nil {
		return err
	}
	l = clone(l)
	l.Name = name

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir != "" {
		if err := b.export(l); err != nil {
			return err
		}
	}
	b.layouts[name] = l
	return nil
}

// Load returns a copy of the named layout.
func (b *Backend) Load(name string) (core.Layout, error) {
	name, err := storage.ValidateName(name)
	if err != nil {
		return core.Layout{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	l, ok := b.layouts[name]
	if !ok {
		return core.Layout{}, fmt.Errorf("%w: %q", storage.ErrLayoutNotFound, name)
	}
	return clone(l), nil
}

// Delete removes the named layout and its file.
func (b *Backend) Delete(name string) error {
	name, err := storage.ValidateName(name)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.layouts[name]; !ok {
		return fmt.Errorf("%w: %q", storage.ErrLayoutNotFound, name)
	}
	if b.cfg.OutputDir != "" {
		if err := b.remove(name); err != nil {
			return err
		}
	}
	delete(b.layouts, name)
	return nil
}

// List returns the stored layouts ordered by name.
func (b *Backend) List() ([]core.LayoutInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]core.LayoutInfo, 0, len(b.layouts))
	for _, l := range b.layouts {
		infos = append(infos, l.Info())
	}
	slices.SortFunc(infos, func(a, b core.LayoutInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return infos, nil
}

func clone(l core.Layout) core.Layout {
	l.Positions = slices.Clone(l.Positions)
	l.Labels = slices.Clone(l.Labels)
	return l
}
