package meshio

import (
	"fmt"

	"github.com/qmuntal/gltf"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

// LoadGLTF reads a glTF or GLB file and extracts its triangle geometry.
// Node transforms are applied so the mesh lands in scene coordinates;
// materials, textures and non-triangle primitives are skipped.
func LoadGLTF(path string, opt Options) (*mesh.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: open gltf %s: %w", path, err)
	}
	return DecodeGLTF(doc, opt)
}

// DecodeGLTF extracts triangle geometry from an already-parsed glTF
// document.
func DecodeGLTF(doc *gltf.Document, opt Options) (*mesh.Mesh, error) {
	var tris [][3]geom.Vec3

	appendNode := func(nodeIdx int) error {
		return walkNode(doc, nodeIdx, identityMat4(), &tris)
	}

	if len(doc.Scenes) > 0 {
		sceneIdx := 0
		if doc.Scene != nil {
			sceneIdx = int(*doc.Scene)
		}
		for _, nodeIdx := range doc.Scenes[sceneIdx].Nodes {
			if err := appendNode(int(nodeIdx)); err != nil {
				return nil, err
			}
		}
	} else {
		for i := range doc.Nodes {
			if isRootNode(doc, i) {
				if err := appendNode(i); err != nil {
					return nil, err
				}
			}
		}
	}

	m, err := mesh.IndexSoup(tris, opt.MergeTolerance)
	if err != nil {
		return nil, fmt.Errorf("meshio: index gltf soup: %w", err)
	}
	return m, nil
}

func isRootNode(doc *gltf.Document, idx int) bool {
	for _, n := range doc.Nodes {
		for _, child := range n.Children {
			if int(child) == idx {
				return false
			}
		}
	}
	return true
}

// walkNode recursively visits a node subtree, accumulating transforms.
func walkNode(doc *gltf.Document, nodeIdx int, parent mat4, tris *[][3]geom.Vec3) error {
	node := doc.Nodes[nodeIdx]

	local := identityMat4()
	if node.Translation != [3]float64{0, 0, 0} {
		local = local.mul(translateMat4(node.Translation))
	}
	if node.Rotation != [4]float64{0, 0, 0, 1} {
		local = local.mul(quatMat4(node.Rotation))
	}
	if node.Scale != [3]float64{1, 1, 1} && node.Scale != [3]float64{0, 0, 0} {
		local = local.mul(scaleMat4(node.Scale))
	}
	if node.Matrix != [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1} {
		local = mat4(node.Matrix)
	}
	world := parent.mul(local)

	if node.Mesh != nil {
		if err := appendPrimitives(doc, doc.Meshes[*node.Mesh], world, tris); err != nil {
			return err
		}
	}
	for _, childIdx := range node.Children {
		if err := walkNode(doc, int(childIdx), world, tris); err != nil {
			return err
		}
	}
	return nil
}

func appendPrimitives(doc *gltf.Document, m *gltf.Mesh, world mat4, tris *[][3]geom.Vec3) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("meshio: read gltf positions: %w", err)
		}
		for i := range positions {
			positions[i] = world.mulPoint(positions[i])
		}

		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("meshio: read gltf indices: %w", err)
			}
			for _, idx := range indices {
				if idx >= len(positions) {
					return fmt.Errorf("meshio: gltf index %d out of range (%d positions)", idx, len(positions))
				}
			}
			for i := 0; i+2 < len(indices); i += 3 {
				*tris = append(*tris, [3]geom.Vec3{
					positions[indices[i]],
					positions[indices[i+1]],
					positions[indices[i+2]],
				})
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				*tris = append(*tris, [3]geom.Vec3{
					positions[i],
					positions[i+1],
					positions[i+2],
				})
			}
		}
	}
	return nil
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]geom.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3 accessor, got %v", accessor.Type)
	}
	stride := accessorStride(doc, accessor, 12)
	data, err := accessorBytes(doc, accessor, stride, 12)
	if err != nil {
		return nil, err
	}

	result := make([]geom.Vec3, accessor.Count)
	for i := range accessor.Count {
		offset := i * stride
		result[i] = geom.Vec3{
			X: float64(readFloat32LE(data[offset:])),
			Y: float64(readFloat32LE(data[offset+4:])),
			Z: float64(readFloat32LE(data[offset+8:])),
		}
	}
	return result, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]

	var elemSize int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		elemSize = 1
	case gltf.ComponentUshort:
		elemSize = 2
	case gltf.ComponentUint:
		elemSize = 4
	default:
		return nil, fmt.Errorf("unsupported index component type %v", accessor.ComponentType)
	}
	stride := accessorStride(doc, accessor, elemSize)
	data, err := accessorBytes(doc, accessor, stride, elemSize)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		for i := range accessor.Count {
			result[i] = int(data[i*stride])
		}
	case gltf.ComponentUshort:
		for i := range accessor.Count {
			off := i * stride
			result[i] = int(uint16(data[off]) | uint16(data[off+1])<<8)
		}
	case gltf.ComponentUint:
		for i := range accessor.Count {
			off := i * stride
			result[i] = int(uint32(data[off]) |
				uint32(data[off+1])<<8 |
				uint32(data[off+2])<<16 |
				uint32(data[off+3])<<24)
		}
	}
	return result, nil
}

// accessorBytes returns the accessor's backing bytes starting at its
// offset, validated to hold count elements of elemSize at stride.
// Only embedded buffers (GLB, data URIs) are supported.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, stride, elemSize int) ([]byte, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}
	view := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[view.Buffer]
	if buffer.Data == nil {
		return nil, fmt.Errorf("external gltf buffers are not supported")
	}

	need := 0
	if accessor.Count > 0 {
		need = (accessor.Count-1)*stride + elemSize
	}
	if accessor.ByteOffset+need > view.ByteLength {
		return nil, fmt.Errorf("accessor overruns buffer view: %d elements need %d bytes, view holds %d",
			accessor.Count, accessor.ByteOffset+need, view.ByteLength)
	}
	start := view.ByteOffset + accessor.ByteOffset
	if start+need > len(buffer.Data) {
		return nil, fmt.Errorf("accessor overruns buffer: needs bytes [%d,%d), buffer holds %d",
			start, start+need, len(buffer.Data))
	}
	return buffer.Data[start:], nil
}

func accessorStride(doc *gltf.Document, accessor *gltf.Accessor, natural int) int {
	view := doc.BufferViews[*accessor.BufferView]
	if view.ByteStride != 0 {
		return view.ByteStride
	}
	return natural
}

// mat4 is a column-major 4×4 affine transform, laid out the way glTF
// stores node matrices.
type mat4 [16]float64

func identityMat4() mat4 {
	return mat4{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
}

func translateMat4(t [3]float64) mat4 {
	m := identityMat4()
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

func scaleMat4(s [3]float64) mat4 {
	m := identityMat4()
	m[0], m[5], m[10] = s[0], s[1], s[2]
	return m
}

// quatMat4 converts a unit quaternion (x, y, z, w) to a rotation
// matrix.
func quatMat4(q [4]float64) mat4 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	return mat4{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0,
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0,
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0,
		0, 0, 0, 1,
	}
}

func (a mat4) mul(b mat4) mat4 {
	var c mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			c[col*4+row] = sum
		}
	}
	return c
}

func (a mat4) mulPoint(p geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		X: a[0]*p.X + a[4]*p.Y + a[8]*p.Z + a[12],
		Y: a[1]*p.X + a[5]*p.Y + a[9]*p.Z + a[13],
		Z: a[2]*p.X + a[6]*p.Y + a[10]*p.Z + a[14],
	}
}
