package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/lamina/pkg/geom"
)

// DefaultMeshCells controls marching cubes resolution in FromSDF.
const DefaultMeshCells = 100

// FromSDF tessellates a signed distance field into an indexed mesh
// using marching cubes. cells controls resolution; values of zero or
// below use DefaultMeshCells.
func FromSDF(s sdf.SDF3, cells int) (*Mesh, error) {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)

	soup := make([][3]geom.Vec3, 0, len(triangles))
	for _, tri := range triangles {
		var t [3]geom.Vec3
		for j := 0; j < 3; j++ {
			t[j] = geom.Vec3{X: tri[j].X, Y: tri[j].Y, Z: tri[j].Z}
		}
		soup = append(soup, t)
	}
	m, err := IndexSoup(soup, 0)
	if err != nil {
		return nil, fmt.Errorf("mesh: indexing marching cubes output: %w", err)
	}
	return m, nil
}

// BoxSolid returns a box solid with its minimum corner at the origin.
func BoxSolid(x, y, z float64) (sdf.SDF3, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		return nil, fmt.Errorf("mesh: box solid: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{X: x / 2, Y: y / 2, Z: z / 2})
	return sdf.Transform3D(s, m), nil
}

// CylinderSolid returns a cylinder solid centered on the Z axis with
// its base at z=0.
func CylinderSolid(height, radius float64) (sdf.SDF3, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("mesh: cylinder solid: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{Z: height / 2})
	return sdf.Transform3D(s, m), nil
}

// SphereSolid returns a sphere solid centered at z=radius so the whole
// solid sits above the slicing floor.
func SphereSolid(radius float64) (sdf.SDF3, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("mesh: sphere solid: %w", err)
	}
	m := sdf.Translate3d(v3.Vec{Z: radius})
	return sdf.Transform3D(s, m), nil
}

// Box builds an exact axis-aligned box mesh (8 vertices, 12 triangles)
// with outward-facing windings. Useful as a slicing fixture where
// marching cubes resolution would get in the way.
func Box(min, max geom.Vec3) *Mesh {
	v := []geom.Vec3{
		{X: min.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z},
		{X: min.X, Y: max.Y, Z: max.Z},
	}
	indices := []uint32{
		0, 2, 1, 0, 3, 2, // bottom (-Z)
		4, 5, 6, 4, 6, 7, // top (+Z)
		0, 1, 5, 0, 5, 4, // front (-Y)
		2, 3, 7, 2, 7, 6, // back (+Y)
		3, 0, 4, 3, 4, 7, // left (-X)
		1, 2, 6, 1, 6, 5, // right (+X)
	}
	m, err := Build(v, indices)
	if err != nil {
		// Static input, cannot fail.
		panic(err)
	}
	return m
}
