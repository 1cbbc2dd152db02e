package geom_test

import (
	"math"
	"testing"

	"github.com/chazu/lamina/pkg/geom"
)

func TestFromMMRoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 0.2, 10.05, -3.333333, 123.456789, 0.000001}
	for _, mm := range cases {
		c := geom.FromMM(mm)
		got := c.MM()
		if math.Abs(got-mm) > 1.0/float64(geom.Scale) {
			t.Errorf("FromMM(%v).MM() = %v, want within one unit", mm, got)
		}
	}
}

func TestFromMMExactEquality(t *testing.T) {
	// Two conversions of the same millimetre value must be identical.
	for _, mm := range []float64{0.1, 5.0, -17.3, 0.0000004} {
		a := geom.FromMM(mm)
		b := geom.FromMM(mm)
		if a != b {
			t.Errorf("FromMM(%v) not deterministic: %d vs %d", mm, a, b)
		}
	}
}

func TestMulDiv(t *testing.T) {
	cases := []struct {
		a, b, c geom.Coord
		want    geom.Coord
	}{
		{10, 3, 6, 5},
		{-10, 3, 6, -5},
		{10, -3, 6, -5},
		{1_000_000_000, 999_999_999, 1_000_000_000, 999_999_999},
		{7, 1, 2, 4}, // rounds to nearest, 3.5 -> 4
		{0, 5, 9, 0},
	}
	for _, tc := range cases {
		if got := geom.MulDiv(tc.a, tc.b, tc.c); got != tc.want {
			t.Errorf("MulDiv(%d, %d, %d) = %d, want %d", tc.a, tc.b, tc.c, got, tc.want)
		}
	}
}

func TestMulDivLargeIntermediate(t *testing.T) {
	// a*b overflows int64 but the quotient fits.
	a := geom.Coord(4_000_000_000)
	b := geom.Coord(3_000_000_000)
	c := geom.Coord(6_000_000_000)
	if got := geom.MulDiv(a, b, c); got != 2_000_000_000 {
		t.Errorf("MulDiv large = %d, want 2000000000", got)
	}
}

func TestDistSq(t *testing.T) {
	p := geom.Point2{X: 3, Y: 0}
	q := geom.Point2{X: 0, Y: 4}
	if got := p.DistSq(q); got != 25 {
		t.Errorf("DistSq = %d, want 25", got)
	}
	if got := p.DistSq(p); got != 0 {
		t.Errorf("DistSq(self) = %d, want 0", got)
	}
}

func TestDistSqSaturates(t *testing.T) {
	p := geom.Point2{X: math.MaxInt64 / 2, Y: 0}
	q := geom.Point2{X: -(math.MaxInt64 / 2), Y: 0}
	if got := p.DistSq(q); got != math.MaxInt64 {
		t.Errorf("DistSq overflow = %d, want MaxInt64", got)
	}
}

func TestBBoxExtendAndContains(t *testing.T) {
	b := geom.EmptyBBox()
	b = b.Extend(geom.Vec3{X: 1, Y: 2, Z: 3})
	b = b.Extend(geom.Vec3{X: -1, Y: 0, Z: 5})

	want := geom.BBox3{
		Min: geom.Vec3{X: -1, Y: 0, Z: 3},
		Max: geom.Vec3{X: 1, Y: 2, Z: 5},
	}
	if b != want {
		t.Fatalf("Extend = %+v, want %+v", b, want)
	}
	inner := geom.BBox3{
		Min: geom.Vec3{X: 0, Y: 1, Z: 4},
		Max: geom.Vec3{X: 0.5, Y: 1.5, Z: 4.5},
	}
	if !b.Contains(inner) {
		t.Error("Contains(inner) = false, want true")
	}
	if inner.Contains(b) {
		t.Error("inner.Contains(outer) = true, want false")
	}
}

func TestBBoxStraddlesZ(t *testing.T) {
	b := geom.BBox3{Min: geom.Vec3{Z: 1}, Max: geom.Vec3{Z: 3}}
	cases := []struct {
		z    float64
		want bool
	}{
		{0.5, false},
		{1, true},
		{2, true},
		{3, true},
		{3.1, false},
	}
	for _, tc := range cases {
		if got := b.StraddlesZ(tc.z); got != tc.want {
			t.Errorf("StraddlesZ(%v) = %v, want %v", tc.z, got, tc.want)
		}
	}
}

func TestBBoxLongestAxis(t *testing.T) {
	b := geom.BBox3{Max: geom.Vec3{X: 1, Y: 5, Z: 2}}
	if got := b.LongestAxis(); got != 1 {
		t.Errorf("LongestAxis = %d, want 1", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := geom.Vec3{X: 1}
	y := geom.Vec3{Y: 1}
	if got := x.Cross(y); got != (geom.Vec3{Z: 1}) {
		t.Errorf("x cross y = %+v, want +z", got)
	}
}
