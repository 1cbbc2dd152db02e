// Package slice converts a triangle mesh into horizontal layers of
// closed 2D polygons. It houses the triangle-plane intersection
// predicate, the three-phase segment chaining engine, and the parallel
// per-layer driver.
package slice

import (
	"time"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

// SegmentKind classifies how a segment was produced by the plane
// predicate. Every triangle/plane pair yields exactly one of the five
// enumerated configurations; there is no give-up branch.
type SegmentKind uint8

const (
	// KindCrossing is the generic case: the plane passes through the
	// triangle interior, crossing two edges.
	KindCrossing SegmentKind = iota
	// KindVertexOnPlane: one vertex sits in the plane and the other
	// two straddle it.
	KindVertexOnPlane
	// KindEdgeOnPlane: two vertices (one mesh edge) lie in the plane.
	KindEdgeOnPlane
	// KindFaceTop: all three vertices lie in the plane and the face
	// normal points up.
	KindFaceTop
	// KindFaceBottom: all three vertices lie in the plane and the
	// face normal points down.
	KindFaceBottom
)

func (k SegmentKind) String() string {
	switch k {
	case KindCrossing:
		return "crossing"
	case KindVertexOnPlane:
		return "vertex-on-plane"
	case KindEdgeOnPlane:
		return "edge-on-plane"
	case KindFaceTop:
		return "face-top"
	case KindFaceBottom:
		return "face-bottom"
	default:
		return "unknown"
	}
}

// EndpointTag records which mesh feature a segment endpoint derives
// from. Segments whose endpoints share a feature are joined by
// topology, which is immune to floating-point noise.
type EndpointTag struct {
	Edge   mesh.EdgeID // crossed edge, or NoEdge
	Vertex uint32      // on-plane vertex, or NoVertex
}

// NoTag is an endpoint with no topology reference.
var NoTag = EndpointTag{Edge: mesh.NoEdge, Vertex: mesh.NoVertex}

// Segment is one line emitted by intersecting a triangle with the
// slicing plane.
type Segment struct {
	Start, End geom.Point2
	StartTag   EndpointTag
	EndTag     EndpointTag
	Triangle   uint32
	Edge       mesh.EdgeID // mesh edge the segment lies on, or NoEdge
	Kind       SegmentKind
}

// Polygon is an ordered point sequence. A closed polygon's last point
// connects back to its first; the first point is not repeated.
type Polygon struct {
	Points []geom.Point2
	Closed bool
}

// Len returns the number of points.
func (p *Polygon) Len() int {
	return len(p.Points)
}

// Area returns the signed shoelace area in mm². Positive for
// counter-clockwise winding. Open polygons report the area of their
// implicit closure.
func (p *Polygon) Area() float64 {
	if len(p.Points) < 3 {
		return 0
	}
	var sum float64
	prev := p.Points[len(p.Points)-1]
	for _, pt := range p.Points {
		sum += prev.X.MM()*pt.Y.MM() - pt.X.MM()*prev.Y.MM()
		prev = pt
	}
	return sum / 2
}

// ChainDiagnostics counts what happened inside the chaining engine for
// one layer. Open counts are non-increasing across the three phases.
type ChainDiagnostics struct {
	Segments          int // segments fed into chaining, after dedup
	DroppedOnEdge     int // duplicate/interior on-edge segments removed
	DroppedZeroLength int
	DegenerateLoops   int // closed loops that simplified below 3 points
	OpenAfterPhase1   int
	OpenAfterPhase2   int
	GapsClosed        int // phase 3 connections made
	Unresolved        int // polylines still open after all phases
}

// Layer is the slicing result at one Z height.
type Layer struct {
	Z          geom.Coord
	Polygons   []Polygon
	Diag       ChainDiagnostics
	Candidates int // triangles returned by the plane query
}

// Stats aggregates diagnostics over a whole slicing run.
type Stats struct {
	Layers            int
	Segments          int
	GapsClosed        int
	Unresolved        int
	VolumeEstimate    float64 // mm³, closed polygons only
	TrianglesPerLayer float64 // mean candidate count per layer
	Elapsed           time.Duration
}

// Result is the ordered output of a slicing run, layers sorted by
// increasing Z. Contours are not oriented as outer versus hole; that
// classification belongs to the downstream boolean stage.
type Result struct {
	Layers []Layer
	Stats  Stats
}
