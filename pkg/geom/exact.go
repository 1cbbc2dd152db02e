package geom

import "math/bits"

// MulCmp returns the sign of a*b - c*d, computed exactly with 128-bit
// products. It backs the collinearity and orientation tests that
// cannot tolerate cancellation error.
func MulCmp(a, b, c, d int64) int {
	n1, h1, l1 := mul128(a, b)
	n2, h2, l2 := mul128(c, d)
	if n1 != n2 {
		if n2 {
			return 1
		}
		return -1
	}
	cmp := cmp128(h1, l1, h2, l2)
	if n1 {
		return -cmp
	}
	return cmp
}

// Collinear reports whether b lies on the line through a and c, using
// the exact cross product of the two edge vectors.
func Collinear(a, b, c Point2) bool {
	dx1 := int64(b.X - a.X)
	dy1 := int64(b.Y - a.Y)
	dx2 := int64(c.X - b.X)
	dy2 := int64(c.Y - b.Y)
	return MulCmp(dx1, dy2, dy1, dx2) == 0
}

// SameDirection reports whether the turn a->b->c continues forward,
// i.e. the two edge vectors have positive dot product. Combined with
// Collinear it distinguishes a pass-through point from a spike.
func SameDirection(a, b, c Point2) bool {
	dx1 := int64(b.X - a.X)
	dy1 := int64(b.Y - a.Y)
	dx2 := int64(c.X - b.X)
	dy2 := int64(c.Y - b.Y)
	// dx1*dx2 + dy1*dy2 > 0  <=>  dx1*dx2 > -dy1*dy2
	return MulCmp(dx1, dx2, -dy1, dy2) > 0
}

// mul128 returns the product a*b as a sign flag plus 128-bit
// magnitude. A zero product reports a positive sign.
func mul128(a, b int64) (neg bool, hi, lo uint64) {
	neg = (a < 0) != (b < 0)
	ua := uint64(a)
	if a < 0 {
		ua = uint64(-a)
	}
	ub := uint64(b)
	if b < 0 {
		ub = uint64(-b)
	}
	hi, lo = bits.Mul64(ua, ub)
	if hi == 0 && lo == 0 {
		neg = false
	}
	return neg, hi, lo
}

// cmp128 compares two 128-bit magnitudes.
func cmp128(h1, l1, h2, l2 uint64) int {
	switch {
	case h1 != h2:
		if h1 > h2 {
			return 1
		}
		return -1
	case l1 != l2:
		if l1 > l2 {
			return 1
		}
		return -1
	default:
		return 0
	}
}
