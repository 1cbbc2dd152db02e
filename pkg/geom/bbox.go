package geom

import "math"

// BBox3 is an axis-aligned bounding box in float millimetres.
type BBox3 struct {
	Min, Max Vec3
}

// EmptyBBox returns a box that contains nothing; extending it with any
// point yields that point's box.
func EmptyBBox() BBox3 {
	inf := math.Inf(1)
	return BBox3{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to include point p.
func (b BBox3) Extend(p Vec3) BBox3 {
	return BBox3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b BBox3) Union(o BBox3) BBox3 {
	return BBox3{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Contains reports whether the box fully contains o.
func (b BBox3) Contains(o BBox3) bool {
	return b.Min.X <= o.Min.X && b.Min.Y <= o.Min.Y && b.Min.Z <= o.Min.Z &&
		b.Max.X >= o.Max.X && b.Max.Y >= o.Max.Y && b.Max.Z >= o.Max.Z
}

// StraddlesZ reports whether the horizontal plane at height z passes
// through the box (inclusive on both faces).
func (b BBox3) StraddlesZ(z float64) bool {
	return b.Min.Z <= z && z <= b.Max.Z
}

// Center returns the center point of the box.
func (b BBox3) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box extents per axis.
func (b BBox3) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// LongestAxis returns 0, 1 or 2 for the axis with the largest extent.
func (b BBox3) LongestAxis() int {
	s := b.Size()
	axis := 0
	if s.Y > s.X {
		axis = 1
	}
	if s.Z > s.X && s.Z > s.Y {
		axis = 2
	}
	return axis
}

// SurfaceArea returns the total surface area of the box, the cost
// measure used by the surface area heuristic. An empty box has zero
// area.
func (b BBox3) SurfaceArea() float64 {
	s := b.Size()
	if s.X < 0 || s.Y < 0 || s.Z < 0 {
		return 0
	}
	return 2 * (s.X*s.Y + s.Y*s.Z + s.Z*s.X)
}

// Axis returns the given component of v.
func Axis(v Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}
