package mesh

import (
	"math"

	"github.com/chazu/lamina/pkg/geom"
)

// DefaultMergeTolerance is the vertex-welding tolerance (mm) used when
// indexing a triangle soup.
const DefaultMergeTolerance = 1e-6

// quantKey is a hashable vertex position quantized to the merge grid.
// Quantizing sidesteps float comparison noise between triangles that
// share a vertex only by value.
type quantKey struct {
	x, y, z int64
}

func quantize(p geom.Vec3, tolerance float64) quantKey {
	s := 1.0 / tolerance
	return quantKey{
		x: int64(math.Round(p.X * s)),
		y: int64(math.Round(p.Y * s)),
		z: int64(math.Round(p.Z * s)),
	}
}

// IndexSoup welds a flat triangle soup (as produced by STL ingestion or
// marching cubes) into an indexed mesh, merging vertices that coincide
// within tolerance. A tolerance of zero or below uses
// DefaultMergeTolerance.
func IndexSoup(tris [][3]geom.Vec3, tolerance float64) (*Mesh, error) {
	if tolerance <= 0 {
		tolerance = DefaultMergeTolerance
	}
	var vertices []geom.Vec3
	indices := make([]uint32, 0, len(tris)*3)
	lookup := make(map[quantKey]uint32, len(tris))

	for _, tri := range tris {
		for _, p := range tri {
			key := quantize(p, tolerance)
			vi, ok := lookup[key]
			if !ok {
				vi = uint32(len(vertices))
				vertices = append(vertices, p)
				lookup[key] = vi
			}
			indices = append(indices, vi)
		}
	}
	return Build(vertices, indices)
}
