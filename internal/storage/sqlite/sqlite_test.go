package sqlitestorage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscmix/spatializer/internal/storage"
	"github.com/oscmix/spatializer/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func layout(name string) core.Layout {
	return core.Layout{
		Name:      name,
		Positions: []core.Point{{X: 0, Y: 3}},
		Labels:    []string{"Lead"},
		SavedAt:   time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC),
	}
}

func TestFileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layouts.db")

	b, err := New(Config{Path: path}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Save(layout("encore")))
	require.NoError(t, b.Close())

	reopened, err := New(Config{Path: path}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, reopened.Init())
	defer reopened.Close()

	got, err := reopened.Load("encore")
	require.NoError(t, err)
	assert.Equal(t, layout("encore"), got)
}

func TestBackupOnClose(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "backup.db")

	b, err := New(Config{Path: filepath.Join(dir, "live.db"), BackupPath: backup}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	require.NoError(t, b.Save(layout("a")))
	require.NoError(t, b.Close())

	assert.FileExists(t, backup)

	fromBackup, err := New(Config{Path: backup}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, fromBackup.Init())
	defer fromBackup.Close()
	infos, err := fromBackup.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "a", infos[0].Name)
}

func TestInit_RestoresBackupIntoMemory(t *testing.T) {
	dir := t.TempDir()
	backup := filepath.Join(dir, "backup.db")

	seed, err := New(Config{Path: filepath.Join(dir, "seed.db"), BackupPath: backup}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, seed.Init())
	require.NoError(t, seed.Save(layout("kept")))
	require.NoError(t, seed.Close())

	mem, err := New(Config{BackupPath: backup}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, mem.Init())
	defer mem.Close()

	got, err := mem.Load("kept")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lead"}, got.Labels)
}

func TestInit_MissingBackupIsFine(t *testing.T) {
	mem, err := New(Config{BackupPath: filepath.Join(t.TempDir(), "none.db")}, zerolog.Nop(), nil)
	require.NoError(t, err)
	require.NoError(t, mem.Init())

	infos, err := mem.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
	require.NoError(t, mem.Close())
}
