// Package mesh stores indexed triangle meshes with derived edge
// connectivity. A Mesh is built once from a vertex and index array,
// after which it is immutable and safe for concurrent readers.
package mesh

import (
	"fmt"

	"github.com/chazu/lamina/pkg/geom"
)

// EdgeID identifies an edge in a mesh's edge table.
type EdgeID uint32

// NoEdge marks the absence of an edge reference.
const NoEdge EdgeID = ^EdgeID(0)

// NoVertex marks the absence of a vertex reference.
const NoVertex uint32 = ^uint32(0)

// degenerateArea is the minimum triangle area in mm² below which a
// triangle is flagged degenerate and excluded from slicing.
const degenerateArea = 1e-12

// Edge is an unordered vertex pair plus the triangles incident to it.
// A manifold interior edge has exactly two incident triangles; boundary
// and non-manifold edges have one or more than two, and both are
// tolerated.
type Edge struct {
	V    [2]uint32 // vertex indices, V[0] < V[1]
	Tris []uint32  // incident triangle ids
}

// Triangle is three vertex indices, the ids of its three edges, and a
// precomputed face normal. Edge E[i] joins V[i] and V[(i+1)%3].
type Triangle struct {
	V          [3]uint32
	E          [3]EdgeID
	Normal     geom.Vec3
	Degenerate bool
}

// Stats counts ingestion defects. Defects are recorded, never raised:
// the offending primitives are excluded and processing continues.
type Stats struct {
	DegenerateTriangles int
	BoundaryEdges       int
	NonManifoldEdges    int
}

// Mesh is an indexed triangle mesh. Vertices holds the float positions
// as ingested; Positions holds the same points converted once to
// fixed-point, which is what every exact predicate reads.
type Mesh struct {
	Vertices  []geom.Vec3
	Positions []geom.Point3
	Triangles []Triangle
	Edges     []Edge
	Bounds    geom.BBox3
	Stats     Stats
}

// Build constructs a mesh from a vertex array and a flat triangle index
// array (three indices per triangle). Degenerate triangles are flagged
// and excluded from connectivity but kept in the triangle array so ids
// remain stable. Non-manifold input never fails.
func Build(vertices []geom.Vec3, indices []uint32) (*Mesh, error) {
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("mesh: index count %d is not a multiple of 3", len(indices))
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("mesh: vertex index %d out of range (have %d vertices)", idx, len(vertices))
		}
	}

	m := &Mesh{
		Vertices:  vertices,
		Positions: make([]geom.Point3, len(vertices)),
		Triangles: make([]Triangle, 0, len(indices)/3),
		Bounds:    geom.EmptyBBox(),
	}
	for i, v := range vertices {
		m.Positions[i] = geom.FromVec3(v)
		m.Bounds = m.Bounds.Extend(v)
	}

	edgeIndex := make(map[[2]uint32]EdgeID, len(indices))
	for i := 0; i < len(indices); i += 3 {
		tri := Triangle{
			V: [3]uint32{indices[i], indices[i+1], indices[i+2]},
			E: [3]EdgeID{NoEdge, NoEdge, NoEdge},
		}
		ti := uint32(len(m.Triangles))

		a := vertices[tri.V[0]]
		b := vertices[tri.V[1]]
		c := vertices[tri.V[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		area := n.Length() / 2

		if tri.V[0] == tri.V[1] || tri.V[1] == tri.V[2] || tri.V[0] == tri.V[2] || area < degenerateArea {
			tri.Degenerate = true
			m.Stats.DegenerateTriangles++
			m.Triangles = append(m.Triangles, tri)
			continue
		}
		tri.Normal = n.Normalize()

		for e := 0; e < 3; e++ {
			key := edgeKey(tri.V[e], tri.V[(e+1)%3])
			id, ok := edgeIndex[key]
			if !ok {
				id = EdgeID(len(m.Edges))
				edgeIndex[key] = id
				m.Edges = append(m.Edges, Edge{V: key})
			}
			m.Edges[id].Tris = append(m.Edges[id].Tris, ti)
			tri.E[e] = id
		}
		m.Triangles = append(m.Triangles, tri)
	}

	for _, e := range m.Edges {
		switch {
		case len(e.Tris) == 1:
			m.Stats.BoundaryEdges++
		case len(e.Tris) > 2:
			m.Stats.NonManifoldEdges++
		}
	}
	return m, nil
}

// edgeKey returns the sorted vertex pair identifying an edge.
func edgeKey(a, b uint32) [2]uint32 {
	if a > b {
		a, b = b, a
	}
	return [2]uint32{a, b}
}

// TriangleCount returns the number of triangles, degenerate included.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Triangles) == 0
}

// TriBounds returns the bounding box of triangle ti.
func (m *Mesh) TriBounds(ti uint32) geom.BBox3 {
	t := m.Triangles[ti]
	b := geom.EmptyBBox()
	for _, vi := range t.V {
		b = b.Extend(m.Vertices[vi])
	}
	return b
}

// EdgeBetween returns the id of the edge joining vertices a and b, or
// NoEdge if the mesh has no such edge.
func (m *Mesh) EdgeBetween(a, b uint32) EdgeID {
	key := edgeKey(a, b)
	for ti := range m.Edges {
		if m.Edges[ti].V == key {
			return EdgeID(ti)
		}
	}
	return NoEdge
}
