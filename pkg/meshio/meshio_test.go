package meshio_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/chazu/lamina/pkg/meshio"
)

// binarySTL assembles a binary STL from triangles given as 9 floats
// each (normals zeroed; loaders recompute them).
func binarySTL(header string, tris [][9]float32) []byte {
	var buf bytes.Buffer
	var hdr [80]byte
	copy(hdr[:], header)
	buf.Write(hdr[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		binary.Write(&buf, binary.LittleEndian, [3]float32{}) // normal
		binary.Write(&buf, binary.LittleEndian, tri)
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestDecodeBinarySTL(t *testing.T) {
	data := binarySTL("test", [][9]float32{
		{0, 0, 0, 10, 0, 0, 0, 10, 0},
		{10, 0, 0, 10, 10, 0, 0, 10, 0},
	})
	m, err := meshio.DecodeSTL(data, meshio.Options{})
	if err != nil {
		t.Fatalf("DecodeSTL: %v", err)
	}
	if len(m.Triangles) != 2 {
		t.Errorf("triangles = %d, want 2", len(m.Triangles))
	}
	// The shared edge (10,0,0)-(0,10,0) must weld to shared vertices.
	if len(m.Vertices) != 4 {
		t.Errorf("vertices = %d, want 4 after welding", len(m.Vertices))
	}
	if m.Stats.BoundaryEdges != 4 {
		t.Errorf("boundary edges = %d, want 4", m.Stats.BoundaryEdges)
	}
}

func TestDecodeBinarySTLHugeCount(t *testing.T) {
	// A declared triangle count chosen so the 32-bit size product
	// wraps back to the actual file length. The parser must reject it
	// instead of reading past the buffer: 84 + 85899346*50 is 2³²+88.
	data := make([]byte, 88)
	binary.LittleEndian.PutUint32(data[80:84], 85899346)
	if _, err := meshio.DecodeSTL(data, meshio.Options{}); err == nil {
		t.Error("wrapped triangle count: want error")
	}
}

func TestDecodeBinarySTLTruncated(t *testing.T) {
	data := binarySTL("test", [][9]float32{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
	})
	if _, err := meshio.DecodeSTL(data[:len(data)-10], meshio.Options{}); err == nil {
		t.Error("truncated binary STL: want error")
	}
}

const asciiTetra = `solid tetra
facet normal 0 0 -1
  outer loop
    vertex 0 0 0
    vertex 0 10 0
    vertex 10 0 0
  endloop
endfacet
facet normal 0 -1 0
  outer loop
    vertex 0 0 0
    vertex 10 0 0
    vertex 0 0 10
  endloop
endfacet
facet normal -1 0 0
  outer loop
    vertex 0 0 0
    vertex 0 0 10
    vertex 0 10 0
  endloop
endfacet
facet normal 1 1 1
  outer loop
    vertex 10 0 0
    vertex 0 10 0
    vertex 0 0 10
  endloop
endfacet
endsolid tetra
`

func TestDecodeASCIISTL(t *testing.T) {
	m, err := meshio.DecodeSTL([]byte(asciiTetra), meshio.Options{})
	if err != nil {
		t.Fatalf("DecodeSTL: %v", err)
	}
	if len(m.Triangles) != 4 {
		t.Errorf("triangles = %d, want 4", len(m.Triangles))
	}
	if len(m.Vertices) != 4 {
		t.Errorf("vertices = %d, want 4 after welding", len(m.Vertices))
	}
	// A closed tetrahedron has 6 edges, all manifold.
	if len(m.Edges) != 6 {
		t.Errorf("edges = %d, want 6", len(m.Edges))
	}
	if m.Stats.BoundaryEdges != 0 || m.Stats.NonManifoldEdges != 0 {
		t.Errorf("stats = %+v, want closed manifold", m.Stats)
	}
}

func TestDecodeASCIISTLBadVertex(t *testing.T) {
	src := "solid s\nfacet normal 0 0 1\nouter loop\nvertex 0 zero 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\nendsolid s\n"
	if _, err := meshio.DecodeSTL([]byte(src), meshio.Options{}); err == nil {
		t.Error("malformed vertex: want error")
	}
}

func TestBinarySTLWithSolidHeader(t *testing.T) {
	// A binary file whose header happens to begin with "solid" must
	// still be detected as binary via the size check.
	data := binarySTL("solid exported from cad", [][9]float32{
		{0, 0, 0, 1, 0, 0, 0, 1, 0},
	})
	m, err := meshio.DecodeSTL(data, meshio.Options{})
	if err != nil {
		t.Fatalf("DecodeSTL: %v", err)
	}
	if len(m.Triangles) != 1 {
		t.Errorf("triangles = %d, want 1", len(m.Triangles))
	}
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tetra.stl")
	if err := os.WriteFile(path, []byte(asciiTetra), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := meshio.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Triangles) != 4 {
		t.Errorf("triangles = %d, want 4", len(m.Triangles))
	}

	if _, err := meshio.Load(filepath.Join(dir, "model.obj")); err == nil {
		t.Error("unsupported extension: want error")
	}
}

// gltfTriangleDoc builds an in-memory document with one indexed
// triangle under a translated node.
func gltfTriangleDoc(translate [3]float64) *gltf.Document {
	var buf bytes.Buffer
	positions := []float32{
		0, 0, 0,
		10, 0, 0,
		0, 10, 0,
	}
	binary.Write(&buf, binary.LittleEndian, positions)
	posLen := buf.Len()
	indices := []uint16{0, 1, 2}
	binary.Write(&buf, binary.LittleEndian, indices)

	return &gltf.Document{
		Buffers: []*gltf.Buffer{
			{ByteLength: buf.Len(), Data: buf.Bytes()},
		},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: posLen},
			{Buffer: 0, ByteOffset: posLen, ByteLength: buf.Len() - posLen},
		},
		Accessors: []*gltf.Accessor{
			{BufferView: gltf.Index(0), Count: 3, Type: gltf.AccessorVec3, ComponentType: gltf.ComponentFloat},
			{BufferView: gltf.Index(1), Count: 3, Type: gltf.AccessorScalar, ComponentType: gltf.ComponentUshort},
		},
		Meshes: []*gltf.Mesh{
			{Primitives: []*gltf.Primitive{
				{
					Attributes: map[string]int{gltf.POSITION: 0},
					Indices:    gltf.Index(1),
					Mode:       gltf.PrimitiveTriangles,
				},
			}},
		},
		Nodes: []*gltf.Node{
			{
				Mesh:        gltf.Index(0),
				Translation: translate,
				Rotation:    [4]float64{0, 0, 0, 1},
				Scale:       [3]float64{1, 1, 1},
				Matrix:      [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
			},
		},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
	}
}

func TestDecodeGLTF(t *testing.T) {
	m, err := meshio.DecodeGLTF(gltfTriangleDoc([3]float64{0, 0, 0}), meshio.Options{})
	if err != nil {
		t.Fatalf("DecodeGLTF: %v", err)
	}
	if len(m.Triangles) != 1 || len(m.Vertices) != 3 {
		t.Fatalf("got %d triangles, %d vertices; want 1 and 3", len(m.Triangles), len(m.Vertices))
	}
	if m.Vertices[1].X != 10 {
		t.Errorf("vertex 1 = %+v, want x=10", m.Vertices[1])
	}
}

func TestDecodeGLTFAccessorOverrun(t *testing.T) {
	// An accessor whose declared count overruns its buffer view must
	// surface an error, not read out of range.
	doc := gltfTriangleDoc([3]float64{0, 0, 0})
	doc.Accessors[0].Count = 100
	if _, err := meshio.DecodeGLTF(doc, meshio.Options{}); err == nil {
		t.Error("position accessor overrun: want error")
	}

	doc = gltfTriangleDoc([3]float64{0, 0, 0})
	doc.Accessors[1].Count = 64
	if _, err := meshio.DecodeGLTF(doc, meshio.Options{}); err == nil {
		t.Error("index accessor overrun: want error")
	}
}

func TestDecodeGLTFIndexOutOfRange(t *testing.T) {
	// Indices referencing positions past the accessor's count must be
	// rejected.
	doc := gltfTriangleDoc([3]float64{0, 0, 0})
	view := doc.BufferViews[1]
	doc.Buffers[0].Data[view.ByteOffset] = 200 // first index → 200, only 3 positions
	if _, err := meshio.DecodeGLTF(doc, meshio.Options{}); err == nil {
		t.Error("out-of-range vertex index: want error")
	}
}

func TestDecodeGLTFNodeTransform(t *testing.T) {
	m, err := meshio.DecodeGLTF(gltfTriangleDoc([3]float64{5, 0, 2}), meshio.Options{})
	if err != nil {
		t.Fatalf("DecodeGLTF: %v", err)
	}
	if len(m.Vertices) != 3 {
		t.Fatalf("vertices = %d, want 3", len(m.Vertices))
	}
	v := m.Vertices[0]
	if math.Abs(v.X-5) > 1e-9 || math.Abs(v.Z-2) > 1e-9 {
		t.Errorf("vertex 0 = %+v, want translated by (5,0,2)", v)
	}
}
