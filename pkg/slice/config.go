package slice

import "github.com/chazu/lamina/pkg/geom"

// Config centralizes every tolerance used by the predicate and the
// chaining engine, so behavior is reproducible and testable instead of
// depending on constants scattered through call sites.
type Config struct {
	// ZEpsilon is the on-plane classification band in Coord units. A
	// vertex within this band of the slicing plane is treated as
	// lying exactly on it. It absorbs float-to-fixed conversion
	// noise.
	ZEpsilon geom.Coord

	// ExactEpsilon is the phase 2 endpoint merge distance in mm. Two
	// open polyline ends closer than this are considered the same
	// point.
	ExactEpsilon float64

	// MaxGapDistance is the phase 3 search radius in mm.
	MaxGapDistance float64

	// MaxAngleDeviation is the phase 3 limit, in degrees, on the
	// angle between an endpoint's outgoing tangent and the bridge
	// direction.
	MaxAngleDeviation float64

	// AllowSelfClose permits phase 3 to bridge the two ends of the
	// same open polyline. When false, gap closing only ever joins
	// distinct polylines.
	AllowSelfClose bool

	// Workers bounds slicing parallelism. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the tolerances used when the caller has no
// opinion.
func DefaultConfig() Config {
	return Config{
		ZEpsilon:          2,
		ExactEpsilon:      0.001,
		MaxGapDistance:    2.0,
		MaxAngleDeviation: 45,
		AllowSelfClose:    true,
	}
}
