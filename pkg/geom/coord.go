// Package geom defines the geometric primitives shared by the slicing
// pipeline: a fixed-point scalar type for exact 2D predicate arithmetic,
// integer points in two and three dimensions, a float vector type for
// mesh vertices and normals, and an axis-aligned bounding box.
package geom

import "math"

// Coord is a signed fixed-point length. All exact geometric predicates
// operate on Coord; floating point only appears at the mesh ingestion
// boundary and is converted once.
type Coord int64

// Scale is the number of Coord units per millimetre.
const Scale Coord = 1_000_000

// FromMM converts a length in millimetres to fixed-point units,
// rounding to the nearest unit.
func FromMM(mm float64) Coord {
	return Coord(math.Round(mm * float64(Scale)))
}

// MM converts a fixed-point length back to millimetres.
func (c Coord) MM() float64 {
	return float64(c) / float64(Scale)
}

// Abs returns the absolute value of c.
func (c Coord) Abs() Coord {
	if c < 0 {
		return -c
	}
	return c
}

// MulDiv returns a*b/c rounded to nearest, computed with a 128-bit
// intermediate so the product cannot overflow. c must be non-zero.
// Used for exact linear interpolation between Coord values.
func MulDiv(a, b, c Coord) Coord {
	neg := false
	if a < 0 {
		a, neg = -a, !neg
	}
	if b < 0 {
		b, neg = -b, !neg
	}
	if c < 0 {
		c, neg = -c, !neg
	}
	q := mulDivU(uint64(a), uint64(b), uint64(c))
	if neg {
		return -Coord(q)
	}
	return Coord(q)
}
