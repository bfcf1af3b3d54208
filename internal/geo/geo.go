// Package geo converts between panel positions and clock-style bearings.
//
// Positions are relative to the centre of the panel circle with Y pointing up.
// Bearings are degrees in [0, 360), measured clockwise from the top of the circle.
package geo

import (
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

// DefaultRadius is the radius objects are held at while dragged or snapped.
const DefaultRadius = 3.0

// degenerateLength is the vector length below which a direction cannot be derived.
const degenerateLength = 1e-9

// Position is a point relative to the centre of the circle.
type Position = geom.XY

// Top is the unit direction of bearing 0.
var Top = Position{X: 0, Y: 1}

// BearingOf returns the unrounded clockwise bearing of p in [0, 360).
func BearingOf(p Position) float64 {
	deg := math.Atan2(-p.Y, p.X) * 180 / math.Pi
	b := math.Mod(deg+90+360, 360)
	if b < 0 {
		b += 360
	}
	return b
}

// ToBearing returns the bearing of p rounded to the nearest whole degree.
// A bearing that rounds up to 360 wraps to 0.
func ToBearing(p Position) int {
	return Round(BearingOf(p))
}

// Round rounds a bearing to the nearest whole degree in [0, 360). Ties go
// to the even degree, so 2.5 becomes 2 and 3.5 becomes 4.
func Round(bearing float64) int {
	r := int(math.RoundToEven(bearing)) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// FromBearing returns the point at the given bearing on a circle of radius r.
func FromBearing(bearing, r float64) Position {
	theta := (bearing - 90) * math.Pi / 180
	return Position{
		X: math.Cos(theta) * r,
		Y: -math.Sin(theta) * r,
	}
}

// Direction returns p scaled to unit length. When p is too short to carry a
// direction, the direction of fallback is used instead, and Top when both are
// degenerate.
func Direction(p, fallback Position) Position {
	if l := p.Length(); l > degenerateLength && !math.IsInf(l, 0) {
		return p.Scale(1 / l)
	}
	if l := fallback.Length(); l > degenerateLength && !math.IsInf(l, 0) {
		return fallback.Scale(1 / l)
	}
	return Top
}

// OnCircle projects p onto the circle of radius r, keeping fallback's
// direction when p sits on the centre.
func OnCircle(p, fallback Position, r float64) Position {
	return Direction(p, fallback).Scale(r)
}
