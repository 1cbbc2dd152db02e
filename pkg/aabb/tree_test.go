package aabb_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/chazu/lamina/pkg/aabb"
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

// makeRandomMesh builds a mesh of n disconnected triangles scattered
// in a 100mm cube, seeded for reproducibility.
func makeRandomMesh(t *testing.T, n int, seed int64) *mesh.Mesh {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	var vertices []geom.Vec3
	var indices []uint32
	for i := 0; i < n; i++ {
		base := geom.Vec3{
			X: rng.Float64() * 100,
			Y: rng.Float64() * 100,
			Z: rng.Float64() * 100,
		}
		for j := 0; j < 3; j++ {
			jitter := geom.Vec3{
				X: rng.Float64()*4 - 2,
				Y: rng.Float64()*4 - 2,
				Z: rng.Float64()*4 - 2,
			}
			indices = append(indices, uint32(len(vertices)))
			vertices = append(vertices, base.Add(jitter))
		}
	}
	m, err := mesh.Build(vertices, indices)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestQueryPlaneMatchesBruteForce(t *testing.T) {
	m := makeRandomMesh(t, 500, 42)
	tree := aabb.Build(m)
	if err := tree.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	for _, z := range []float64{-1, 0, 13.7, 50, 99.9, 101} {
		want := map[uint32]bool{}
		for ti := range m.Triangles {
			if m.Triangles[ti].Degenerate {
				continue
			}
			if m.TriBounds(uint32(ti)).StraddlesZ(z) {
				want[uint32(ti)] = true
			}
		}
		got := tree.QueryPlane(z)
		if len(got) != len(want) {
			t.Errorf("z=%v: QueryPlane returned %d triangles, brute force %d", z, len(got), len(want))
			continue
		}
		for _, ti := range got {
			if !want[ti] {
				t.Errorf("z=%v: QueryPlane returned triangle %d not straddling", z, ti)
			}
		}
	}
}

func TestBuildDropsDegenerate(t *testing.T) {
	vertices := []geom.Vec3{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 2, Y: 0, Z: 0}, // collinear
		{X: 0, Y: 1, Z: 0},
	}
	indices := []uint32{0, 1, 2, 0, 1, 3}
	m, err := mesh.Build(vertices, indices)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tree := aabb.Build(m)
	if len(tree.Prims) != 1 {
		t.Errorf("tree holds %d primitives, want 1 (degenerate dropped)", len(tree.Prims))
	}
	if err := tree.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEmptyTreeQueries(t *testing.T) {
	m, err := mesh.Build(nil, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tree := aabb.Build(m)
	if got := tree.QueryPlane(1); got != nil {
		t.Errorf("QueryPlane on empty tree = %v, want nil", got)
	}
	if _, ok := tree.QueryRay(geom.Vec3{}, geom.Vec3{Z: 1}); ok {
		t.Error("QueryRay on empty tree reported a hit")
	}
	if err := tree.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestQueryRayNearestHit(t *testing.T) {
	// A box from (0,0,0) to (10,10,10); a ray down the +Z axis through
	// the middle must hit the bottom face first.
	m := mesh.Box(geom.Vec3{}, geom.Vec3{X: 10, Y: 10, Z: 10})
	tree := aabb.Build(m)

	hit, ok := tree.QueryRay(geom.Vec3{X: 5, Y: 5, Z: -5}, geom.Vec3{Z: 1})
	if !ok {
		t.Fatal("QueryRay missed the box")
	}
	if math.Abs(hit.T-5) > 1e-9 {
		t.Errorf("hit.T = %v, want 5 (bottom face)", hit.T)
	}
	if math.Abs(hit.Point.Z) > 1e-9 {
		t.Errorf("hit.Point.Z = %v, want 0", hit.Point.Z)
	}

	if _, ok := tree.QueryRay(geom.Vec3{X: 50, Y: 50, Z: -5}, geom.Vec3{Z: 1}); ok {
		t.Error("QueryRay reported a hit for a ray that misses")
	}
}

func TestBuildDeterministic(t *testing.T) {
	m := makeRandomMesh(t, 200, 7)
	a := aabb.Build(m)
	b := aabb.Build(m)
	if len(a.Nodes) != len(b.Nodes) || len(a.Prims) != len(b.Prims) {
		t.Fatal("two builds of the same mesh differ in size")
	}
	for i := range a.Prims {
		if a.Prims[i] != b.Prims[i] {
			t.Fatalf("primitive order differs at %d", i)
		}
	}
}
