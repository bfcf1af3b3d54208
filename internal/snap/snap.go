// Package snap resolves a bearing to the nearest of a fixed set of allowed bearings.
package snap

import (
	"errors"
	"math"
)

// ErrNoZones is returned when a lookup is made against an empty zone set.
var ErrNoZones = errors.New("no snap zones configured")

// DeltaAngle returns the shortest signed difference from current to target
// on a 360 degree ring, in (-180, 180].
func DeltaAngle(current, target float64) float64 {
	d := math.Mod(target-current, 360)
	if d < 0 {
		d += 360
	}
	if d > 180 {
		d -= 360
	}
	return d
}

// Nearest returns the zone closest to bearing. When two zones are equally
// close the one listed first wins.
func Nearest(bearing float64, zones []float64) (float64, error) {
	if len(zones) == 0 {
		return math.NaN(), ErrNoZones
	}

	closest := zones[0]
	minDiff := math.Abs(DeltaAngle(bearing, zones[0]))
	for _, z := range zones[1:] {
		if diff := math.Abs(DeltaAngle(bearing, z)); diff < minDiff {
			minDiff = diff
			closest = z
		}
	}
	return closest, nil
}

// Catalog is the immutable set of allowed bearings for a session.
type Catalog struct {
	zones []float64
}

// NewCatalog copies zones into a new Catalog. Order is preserved.
func NewCatalog(zones []float64) *Catalog {
	c := &Catalog{zones: make([]float64, len(zones))}
	copy(c.zones, zones)
	return c
}

// Evenly returns n bearings spaced evenly around the circle, starting at offset.
func Evenly(n int, offset float64) []float64 {
	if n <= 0 {
		return nil
	}
	zones := make([]float64, n)
	step := 360 / float64(n)
	for i := range zones {
		zones[i] = math.Mod(offset+step*float64(i)+360, 360)
	}
	return zones
}

// Nearest returns the catalog zone closest to bearing.
func (c *Catalog) Nearest(bearing float64) (float64, error) {
	if c == nil {
		return math.NaN(), ErrNoZones
	}
	return Nearest(bearing, c.zones)
}

// Zones returns a copy of the configured bearings.
func (c *Catalog) Zones() []float64 {
	if c == nil {
		return nil
	}
	out := make([]float64, len(c.zones))
	copy(out, c.zones)
	return out
}

// Len returns the number of zones.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.zones)
}
