// Package meshio ingests triangle geometry from the interchange formats
// a slicing pipeline actually meets in the wild: STL (ASCII and binary)
// and glTF (.gltf / .glb). Every loader welds the incoming soup through
// mesh.IndexSoup so downstream code always sees an indexed mesh with
// edge connectivity.
package meshio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/lamina/pkg/mesh"
)

// Options tunes geometry ingestion.
type Options struct {
	// MergeTolerance is the vertex-welding distance in mm. Zero or
	// below uses mesh.DefaultMergeTolerance.
	MergeTolerance float64
}

// Load reads a mesh from a file, dispatching on the extension.
// Supported: .stl, .gltf, .glb.
func Load(path string) (*mesh.Mesh, error) {
	return LoadWithOptions(path, Options{})
}

// LoadWithOptions is Load with explicit ingestion options.
func LoadWithOptions(path string, opt Options) (*mesh.Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("meshio: read %s: %w", path, err)
		}
		return DecodeSTL(data, opt)
	case ".gltf", ".glb":
		return LoadGLTF(path, opt)
	default:
		return nil, fmt.Errorf("meshio: unsupported mesh format %q", filepath.Ext(path))
	}
}
