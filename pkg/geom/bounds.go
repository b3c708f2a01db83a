// Package geom provides streaming geometric summaries of vertex positions:
// axis-aligned bounding boxes and dense point clouds.
package geom

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/semmesh/pkg/math"
)

// Corner values of a bounds that has not observed any position. Any finite
// position is below EmptyMin and above EmptyMax on every axis.
var (
	EmptyMin = math32.Inf(1)
	EmptyMax = math32.Inf(-1)
)

// Bounds is a running axis-aligned bounding box. The zero value is not
// empty; use NewBounds or Reset before observing.
type Bounds struct {
	Min math.Vec3
	Max math.Vec3
}

// NewBounds returns an empty bounds.
func NewBounds() Bounds {
	var b Bounds
	b.Reset()
	return b
}

// Reset restores the empty state.
func (b *Bounds) Reset() {
	b.Min = math.Vec3{X: EmptyMin, Y: EmptyMin, Z: EmptyMin}
	b.Max = math.Vec3{X: EmptyMax, Y: EmptyMax, Z: EmptyMax}
}

// Observe grows the box to include p.
func (b *Bounds) Observe(p math.Vec3) {
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// ObserveArray is Observe for raw [3]float32 positions.
func (b *Bounds) ObserveArray(p [3]float32) {
	b.Observe(math.Vec3From(p))
}

// IsEmpty reports whether no position has been observed.
// An empty box has Min > Max on every axis.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns the smallest box containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Center returns the box midpoint. Returns the zero vector when empty.
func (b Bounds) Center() math.Vec3 {
	if b.IsEmpty() {
		return math.Vec3{}
	}
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extent per axis. Returns the zero vector when empty.
func (b Bounds) Size() math.Vec3 {
	if b.IsEmpty() {
		return math.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Coords returns the box as {min corner, max corner}.
func (b Bounds) Coords() [2][3]float32 {
	return [2][3]float32{b.Min.Array(), b.Max.Array()}
}

// String formats the box for logs.
func (b Bounds) String() string {
	if b.IsEmpty() {
		return "(empty)"
	}
	return fmt.Sprintf("(%g, %g, %g), (%g, %g, %g)",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}
