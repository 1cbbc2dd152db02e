package aabb

import (
	"math"

	"github.com/chazu/lamina/pkg/geom"
)

// Hit describes the nearest ray-triangle intersection found by
// QueryRay.
type Hit struct {
	Triangle uint32
	T        float64 // distance along the ray direction
	Point    geom.Vec3
}

// QueryRay returns the nearest intersection of the ray with the
// mesh's triangles, or false if the ray misses everything. The slicing
// pipeline does not use rays; they are exposed for collaborators and
// for cross-checking the tree in tests.
func (t *Tree) QueryRay(origin, dir geom.Vec3) (Hit, bool) {
	if len(t.Nodes) == 0 {
		return Hit{}, false
	}
	inv := geom.Vec3{X: 1 / dir.X, Y: 1 / dir.Y, Z: 1 / dir.Z}

	best := Hit{T: math.Inf(1)}
	found := false

	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.Nodes[ni]
		if !slabHit(node.Bounds, origin, inv, best.T) {
			continue
		}
		if node.IsLeaf() {
			for i := node.Offset; i < node.Offset+node.Count; i++ {
				ti := t.Prims[i]
				if dist, ok := t.intersectTriangle(ti, origin, dir); ok && dist < best.T {
					best = Hit{
						Triangle: ti,
						T:        dist,
						Point:    origin.Add(dir.Scale(dist)),
					}
					found = true
				}
			}
			continue
		}
		stack = append(stack, node.LeftChild, node.LeftChild+1)
	}
	if !found {
		return Hit{}, false
	}
	return best, true
}

// slabHit is the slab test: does the ray enter the box before tMax?
func slabHit(b geom.BBox3, origin, inv geom.Vec3, tMax float64) bool {
	t1 := (b.Min.X - origin.X) * inv.X
	t2 := (b.Max.X - origin.X) * inv.X
	tmin := math.Min(t1, t2)
	tmax := math.Max(t1, t2)

	t1 = (b.Min.Y - origin.Y) * inv.Y
	t2 = (b.Max.Y - origin.Y) * inv.Y
	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	t1 = (b.Min.Z - origin.Z) * inv.Z
	t2 = (b.Max.Z - origin.Z) * inv.Z
	tmin = math.Max(tmin, math.Min(t1, t2))
	tmax = math.Min(tmax, math.Max(t1, t2))

	return tmax >= math.Max(tmin, 0) && tmin < tMax
}

// intersectTriangle is the Möller–Trumbore ray-triangle test.
func (t *Tree) intersectTriangle(ti uint32, origin, dir geom.Vec3) (float64, bool) {
	const eps = 1e-12
	tri := t.mesh.Triangles[ti]
	v0 := t.mesh.Vertices[tri.V[0]]
	v1 := t.mesh.Vertices[tri.V[1]]
	v2 := t.mesh.Vertices[tri.V[2]]

	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < eps {
		return 0, false
	}
	invDet := 1 / det

	s := origin.Sub(v0)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := e2.Dot(q) * invDet
	if dist < eps {
		return 0, false
	}
	return dist, true
}
