// Package storage defines the layout persistence contract shared by the
// memory, sqlite and postgres backends.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oscmix/spatializer/pkg/core"
)

var (
	// ErrLayoutNotFound is returned when no layout has the requested name.
	ErrLayoutNotFound = errors.New("layout not found")
	// ErrInvalidName is returned for empty or unusable layout names.
	ErrInvalidName = errors.New("invalid layout name")
)

// MaxNameLength bounds layout names.
const MaxNameLength = 127

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Save stores l under l.Name, replacing any layout of the same name.
	Save(l core.Layout) error
	// Load returns the layout called name or ErrLayoutNotFound.
	Load(name string) (core.Layout, error)
	// Delete removes the layout called name or returns ErrLayoutNotFound.
	Delete(name string) error
	// List returns every stored layout ordered by name.
	List() ([]core.LayoutInfo, error)
}

// ValidateName normalises name and rejects names that cannot be stored.
func ValidateName(name string) (string, error) {
	name = core.NormalizeName(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > MaxNameLength:
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxNameLength)
	case strings.ContainsAny(name, "/\\\x00"):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case name == "." || name == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}
