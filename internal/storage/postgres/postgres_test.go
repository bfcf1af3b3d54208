package postgres

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscmix/spatializer/internal/config"
	"github.com/oscmix/spatializer/internal/storage"
	"github.com/oscmix/spatializer/pkg/core"
)

// Compile-time interface check
var _ storage.Backend = (*Backend)(nil)

func unreachable() config.DBConfig {
	return config.DBConfig{
		Host:     "127.0.0.1",
		Port:     "1",
		Username: "postgres",
		Password: "postgres",
		Database: "spatializer",
	}
}

func TestNew(t *testing.T) {
	b := New(unreachable(), zerolog.Nop(), nil)
	require.NotNil(t, b)
	assert.NoError(t, b.Close())
}

func TestInit_Unreachable(t *testing.T) {
	b := New(unreachable(), zerolog.Nop(), nil)
	err := b.Init()
	assert.ErrorContains(t, err, "failed to connect to Postgres DB")
	assert.NoError(t, b.Close())
}

func TestOperationsBeforeInit(t *testing.T) {
	b := New(unreachable(), zerolog.Nop(), nil)

	assert.ErrorIs(t, b.Save(core.Layout{Name: "a"}), errNotConnected)
	_, err := b.Load("a")
	assert.ErrorIs(t, err, errNotConnected)
	assert.ErrorIs(t, b.Delete("a"), errNotConnected)
	_, err = b.List()
	assert.ErrorIs(t, err, errNotConnected)
}
