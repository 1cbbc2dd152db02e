package geom

import "math/bits"

// Point2 is an exact 2D point in fixed-point units. Equality and
// ordering are exact integer comparisons.
type Point2 struct {
	X, Y Coord
}

// Point3 is an exact 3D point in fixed-point units.
type Point3 struct {
	X, Y, Z Coord
}

// Add returns p + q componentwise.
func (p Point2) Add(q Point2) Point2 {
	return Point2{p.X + q.X, p.Y + q.Y}
}

// Sub returns p - q componentwise.
func (p Point2) Sub(q Point2) Point2 {
	return Point2{p.X - q.X, p.Y - q.Y}
}

// DistSq returns the squared distance between p and q in squared Coord
// units. The result saturates at math.MaxInt64 when the true value does
// not fit in 64 bits, so threshold comparisons against in-range
// tolerances remain correct.
func (p Point2) DistSq(q Point2) int64 {
	dx := int64(p.X - q.X)
	dy := int64(p.Y - q.Y)
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	hx, lx := bits.Mul64(uint64(dx), uint64(dx))
	hy, ly := bits.Mul64(uint64(dy), uint64(dy))
	lo, carry := bits.Add64(lx, ly, 0)
	hi := hx + hy + carry
	if hi != 0 || lo > uint64(maxInt64) {
		return maxInt64
	}
	return int64(lo)
}

const maxInt64 = int64(^uint64(0) >> 1)

// XY projects the point onto the slicing plane, dropping Z.
func (p Point3) XY() Point2 {
	return Point2{p.X, p.Y}
}

// Vec converts the fixed-point point to a float vector in millimetres.
func (p Point3) Vec() Vec3 {
	return Vec3{p.X.MM(), p.Y.MM(), p.Z.MM()}
}

// FromVec3 converts a float vector in millimetres to a fixed-point
// point, rounding each component once.
func FromVec3(v Vec3) Point3 {
	return Point3{FromMM(v.X), FromMM(v.Y), FromMM(v.Z)}
}

// mulDivU returns a*b/c rounded to nearest using a 128-bit
// intermediate. Callers must guarantee the quotient fits in 64 bits.
func mulDivU(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	lo, carry := bits.Add64(lo, c/2, 0)
	hi += carry
	q, _ := bits.Div64(hi, lo, c)
	return q
}
