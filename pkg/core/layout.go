// pkg/core/layout.go
package core

import (
	"strings"
	"time"
)

// Point is a panel position relative to the circle centre.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout is a named snapshot of every object's position and label text,
// both in registry order.
type Layout struct {
	Name      string    `json:"name"`
	Positions []Point   `json:"positions"`
	Labels    []string  `json:"labels"`
	SavedAt   time.Time `json:"savedAt"`
}

// LayoutInfo describes a stored layout without its contents.
type LayoutInfo struct {
	Name    string    `json:"name"`
	Objects int       `json:"objects"`
	SavedAt time.Time `json:"savedAt"`
}

// Info summarises the layout.
func (l Layout) Info() LayoutInfo {
	return LayoutInfo{Name: l.Name, Objects: len(l.Positions), SavedAt: l.SavedAt}
}

// Consistent reports whether positions and labels describe the same objects.
func (l Layout) Consistent() bool {
	return len(l.Positions) == len(l.Labels)
}

// NormalizeName trims surrounding white space from a layout name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}
