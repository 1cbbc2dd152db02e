package slice

import (
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

// SectionTriangle intersects one triangle with the horizontal plane at
// height z and returns the emitted segments. The predicate is total:
// every vertex-sign pattern falls into exactly one of five cases, so
// degenerate contact (vertices, edges or the whole face in the plane)
// emits tagged segments instead of being dropped.
//
// eps is the on-plane classification band: |vertexZ - z| <= eps reads
// as "on the plane", absorbing float-to-fixed conversion noise.
func SectionTriangle(m *mesh.Mesh, ti uint32, z, eps geom.Coord) []Segment {
	tri := &m.Triangles[ti]

	var p [3]geom.Point3
	var d [3]geom.Coord
	var sign [3]int
	onPlane, above, below := 0, 0, 0
	for i := 0; i < 3; i++ {
		p[i] = m.Positions[tri.V[i]]
		d[i] = p[i].Z - z
		switch {
		case d[i].Abs() <= eps:
			sign[i] = 0
			onPlane++
		case d[i] > 0:
			sign[i] = 1
			above++
		default:
			sign[i] = -1
			below++
		}
	}

	switch onPlane {
	case 0:
		if above == 0 || below == 0 {
			// Entirely on one side.
			return nil
		}
		return []Segment{crossingSegment(m, ti, tri, sign, d, z)}

	case 1:
		zi := 0
		for sign[zi] != 0 {
			zi++
		}
		if above == 2 || below == 2 {
			// The plane only grazes one vertex; no interior contact.
			return nil
		}
		// Other two vertices straddle: segment from the on-plane
		// vertex to the crossing on the opposite edge.
		j, k := (zi+1)%3, (zi+2)%3
		seg := Segment{
			Start:    p[zi].XY(),
			End:      interpolate(m, tri.V[j], tri.V[k], z),
			StartTag: EndpointTag{Edge: mesh.NoEdge, Vertex: tri.V[zi]},
			EndTag:   EndpointTag{Edge: tri.E[j], Vertex: mesh.NoVertex},
			Triangle: ti,
			Edge:     mesh.NoEdge,
			Kind:     KindVertexOnPlane,
		}
		orientSegment(&seg, tri.Normal)
		return []Segment{seg}

	case 2:
		// One mesh edge lies in the plane. Emit it in winding order
		// so the projected triangle interior stays on a consistent
		// side; the chaining stage dedupes the copy emitted by the
		// neighboring triangle.
		i := 0
		for !(sign[i] == 0 && sign[(i+1)%3] == 0) {
			i++
		}
		j := (i + 1) % 3
		return []Segment{{
			Start:    p[i].XY(),
			End:      p[j].XY(),
			StartTag: EndpointTag{Edge: mesh.NoEdge, Vertex: tri.V[i]},
			EndTag:   EndpointTag{Edge: mesh.NoEdge, Vertex: tri.V[j]},
			Triangle: ti,
			Edge:     tri.E[i],
			Kind:     KindEdgeOnPlane,
		}}

	default:
		// Whole face in the plane: emit all three edges, oriented by
		// the normal's Z sign so top and bottom faces project with
		// opposite windings.
		kind := KindFaceTop
		if tri.Normal.Z < 0 {
			kind = KindFaceBottom
		}
		segs := make([]Segment, 0, 3)
		for i := 0; i < 3; i++ {
			j := (i + 1) % 3
			seg := Segment{
				Start:    p[i].XY(),
				End:      p[j].XY(),
				StartTag: EndpointTag{Edge: mesh.NoEdge, Vertex: tri.V[i]},
				EndTag:   EndpointTag{Edge: mesh.NoEdge, Vertex: tri.V[j]},
				Triangle: ti,
				Edge:     tri.E[i],
				Kind:     kind,
			}
			if kind == KindFaceBottom {
				seg.Start, seg.End = seg.End, seg.Start
				seg.StartTag, seg.EndTag = seg.EndTag, seg.StartTag
			}
			segs = append(segs, seg)
		}
		return segs
	}
}

// crossingSegment handles the generic case: no vertex on the plane,
// mixed signs, so exactly two edges cross.
func crossingSegment(m *mesh.Mesh, ti uint32, tri *mesh.Triangle, sign [3]int, d [3]geom.Coord, z geom.Coord) Segment {
	// The lone vertex is on the minority side; the two edges touching
	// it are the crossing ones.
	lone := 1
	if sign[0] == sign[1] {
		lone = 2
	} else if sign[0] == sign[2] {
		lone = 1
	} else {
		lone = 0
	}
	j, k := (lone+1)%3, (lone+2)%3

	seg := Segment{
		Start:    interpolate(m, tri.V[lone], tri.V[j], z),
		End:      interpolate(m, tri.V[k], tri.V[lone], z),
		StartTag: EndpointTag{Edge: tri.E[lone], Vertex: mesh.NoVertex},
		EndTag:   EndpointTag{Edge: tri.E[k], Vertex: mesh.NoVertex},
		Triangle: ti,
		Edge:     mesh.NoEdge,
		Kind:     KindCrossing,
	}
	orientSegment(&seg, tri.Normal)
	return seg
}

// interpolate returns the exact point where the edge between two mesh
// vertices crosses the plane at z. The vertex pair is canonicalized by
// index first so both triangles sharing the edge compute bit-identical
// coordinates.
func interpolate(m *mesh.Mesh, vi, vj uint32, z geom.Coord) geom.Point2 {
	if vi > vj {
		vi, vj = vj, vi
	}
	a := m.Positions[vi]
	b := m.Positions[vj]
	da := a.Z - z
	db := b.Z - z
	den := da - db
	return geom.Point2{
		X: a.X + geom.MulDiv(b.X-a.X, da, den),
		Y: a.Y + geom.MulDiv(b.Y-a.Y, da, den),
	}
}

// orientSegment flips the segment if needed so that walking start to
// end keeps the triangle's projected interior on a consistent side.
// The intersection line of the face plane with the slicing plane runs
// along normal x +Z, which projects to (N.Y, -N.X).
func orientSegment(seg *Segment, normal geom.Vec3) {
	vx := float64(seg.End.X - seg.Start.X)
	vy := float64(seg.End.Y - seg.Start.Y)
	if vx*normal.Y-vy*normal.X < 0 {
		seg.Start, seg.End = seg.End, seg.Start
		seg.StartTag, seg.EndTag = seg.EndTag, seg.StartTag
	}
}
