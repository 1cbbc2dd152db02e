package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

// Binary STL: 80-byte header, uint32 triangle count, then 50 bytes per
// triangle (normal, three vertices, attribute count).
const (
	stlHeaderSize   = 84
	stlTriangleSize = 50
)

// LoadSTL reads an STL file from disk, detecting ASCII versus binary.
func LoadSTL(path string, opt Options) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: read %s: %w", path, err)
	}
	return DecodeSTL(data, opt)
}

// DecodeSTL parses STL bytes in either format and welds the triangle
// soup into an indexed mesh. File normals are ignored; the mesh
// recomputes them from winding.
func DecodeSTL(data []byte, opt Options) (*mesh.Mesh, error) {
	var (
		tris [][3]geom.Vec3
		err  error
	)
	if isBinarySTL(data) {
		tris, err = parseBinarySTL(data)
	} else {
		tris, err = parseASCIISTL(data)
	}
	if err != nil {
		return nil, err
	}
	m, err := mesh.IndexSoup(tris, opt.MergeTolerance)
	if err != nil {
		return nil, fmt.Errorf("meshio: index stl soup: %w", err)
	}
	return m, nil
}

// isBinarySTL detects binary format. ASCII files start with "solid",
// but so can a binary header, so a "solid" prefix is only trusted when
// the binary size prediction fails.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize {
		return false
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		count := binary.LittleEndian.Uint32(data[80:84])
		// Size arithmetic in int64 so a huge declared count cannot
		// wrap into a false match.
		return int64(len(data)) == stlHeaderSize+int64(count)*stlTriangleSize
	}
	return true
}

func parseBinarySTL(data []byte) ([][3]geom.Vec3, error) {
	if len(data) < stlHeaderSize {
		return nil, fmt.Errorf("meshio: binary stl too short: %d bytes", len(data))
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	if int64(len(data)) < stlHeaderSize+int64(count)*stlTriangleSize {
		return nil, fmt.Errorf("meshio: binary stl truncated: %d triangles declared, %d bytes present", count, len(data))
	}

	tris := make([][3]geom.Vec3, 0, count)
	offset := stlHeaderSize
	for range count {
		offset += 12 // facet normal, recomputed from winding instead

		var tri [3]geom.Vec3
		for v := range 3 {
			tri[v] = geom.Vec3{
				X: float64(readFloat32LE(data[offset:])),
				Y: float64(readFloat32LE(data[offset+4:])),
				Z: float64(readFloat32LE(data[offset+8:])),
			}
			offset += 12
		}
		offset += 2 // attribute byte count
		tris = append(tris, tri)
	}
	return tris, nil
}

func readFloat32LE(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func parseASCIISTL(data []byte) ([][3]geom.Vec3, error) {
	var (
		tris    [][3]geom.Vec3
		facet   []geom.Vec3
		inFacet bool
		inLoop  bool
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "facet":
			inFacet = true
			facet = facet[:0]

		case "outer":
			inLoop = true

		case "vertex":
			if !inFacet || !inLoop {
				return nil, fmt.Errorf("meshio: line %d: vertex outside facet loop", lineNum)
			}
			if len(fields) < 4 {
				return nil, fmt.Errorf("meshio: line %d: vertex needs x y z", lineNum)
			}
			var p geom.Vec3
			var err error
			if p.X, err = strconv.ParseFloat(fields[1], 64); err != nil {
				return nil, fmt.Errorf("meshio: line %d: bad vertex x: %w", lineNum, err)
			}
			if p.Y, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("meshio: line %d: bad vertex y: %w", lineNum, err)
			}
			if p.Z, err = strconv.ParseFloat(fields[3], 64); err != nil {
				return nil, fmt.Errorf("meshio: line %d: bad vertex z: %w", lineNum, err)
			}
			facet = append(facet, p)

		case "endloop":
			inLoop = false

		case "endfacet":
			if len(facet) != 3 {
				return nil, fmt.Errorf("meshio: line %d: facet has %d vertices, want 3", lineNum, len(facet))
			}
			tris = append(tris, [3]geom.Vec3{facet[0], facet[1], facet[2]})
			inFacet = false

		case "solid", "endsolid":
			// Name lines carry no geometry.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("meshio: scan ascii stl: %w", err)
	}
	return tris, nil
}
