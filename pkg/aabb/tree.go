// Package aabb implements a bounding-volume hierarchy over mesh
// triangles. The tree is built once per mesh into flat arrays and is
// read-only afterwards, so any number of goroutines may query it
// concurrently.
package aabb

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

const (
	// leafSize is the primitive count at or below which a node
	// becomes a leaf.
	leafSize = 4
	// sahThreshold is the primitive count above which split positions
	// are chosen by the surface area heuristic; below it a median
	// split is cheaper than the sweep.
	sahThreshold = 8
)

// Node is one BVH node. LeftChild == 0 marks a leaf (node 0 is always
// the root, so 0 can never be a valid child index); the right child is
// always LeftChild+1. Leaves reference Count primitive ids starting at
// Offset in the tree's permutation array.
type Node struct {
	Bounds    geom.BBox3
	LeftChild int32
	Count     int32
	Offset    int32
}

// Tree is an immutable BVH over the non-degenerate triangles of a
// mesh. Degenerate triangles are dropped at build time.
type Tree struct {
	Nodes []Node
	Prims []uint32
	mesh  *mesh.Mesh
}

// IsLeaf reports whether the node is a leaf.
func (n *Node) IsLeaf() bool {
	return n.LeftChild == 0
}

// Build constructs a BVH over the mesh's triangles. Building never
// fails: degenerate triangles are silently dropped and an empty mesh
// yields a tree whose queries return nothing.
func Build(m *mesh.Mesh) *Tree {
	t := &Tree{mesh: m}
	for ti := range m.Triangles {
		if !m.Triangles[ti].Degenerate {
			t.Prims = append(t.Prims, uint32(ti))
		}
	}
	if len(t.Prims) == 0 {
		return t
	}

	b := &builder{tree: t}
	b.bounds = make([]geom.BBox3, len(t.Prims))
	b.centroids = make([]geom.Vec3, len(t.Prims))
	for i, ti := range t.Prims {
		b.bounds[i] = m.TriBounds(ti)
		b.centroids[i] = b.bounds[i].Center()
	}

	t.Nodes = append(t.Nodes, Node{})
	b.build(0, 0, len(t.Prims))
	return t
}

// builder holds per-build scratch state. bounds and centroids are
// indexed in parallel with tree.Prims and permuted alongside it.
type builder struct {
	tree      *Tree
	bounds    []geom.BBox3
	centroids []geom.Vec3
}

func (b *builder) build(node int32, start, end int) {
	bounds := geom.EmptyBBox()
	for i := start; i < end; i++ {
		bounds = bounds.Union(b.bounds[i])
	}
	n := end - start
	if n <= leafSize {
		b.tree.Nodes[node] = Node{
			Bounds: bounds,
			Count:  int32(n),
			Offset: int32(start),
		}
		return
	}

	axis := bounds.LongestAxis()
	b.sortRange(start, end, axis)

	mid := start + n/2
	if n > sahThreshold {
		mid = start + b.sahSplit(start, end)
	}

	left := int32(len(b.tree.Nodes))
	b.tree.Nodes = append(b.tree.Nodes, Node{}, Node{})
	b.tree.Nodes[node] = Node{Bounds: bounds, LeftChild: left}
	b.build(left, start, mid)
	b.build(left+1, mid, end)
}

// byCentroid sorts a primitive range by centroid along one axis,
// keeping the parallel bounds and centroid arrays in lockstep.
type byCentroid struct {
	prims     []uint32
	bounds    []geom.BBox3
	centroids []geom.Vec3
	axis      int
}

func (s *byCentroid) Len() int { return len(s.prims) }

func (s *byCentroid) Less(i, j int) bool {
	ci := geom.Axis(s.centroids[i], s.axis)
	cj := geom.Axis(s.centroids[j], s.axis)
	if ci != cj {
		return ci < cj
	}
	// Tie-break on triangle id keeps builds deterministic.
	return s.prims[i] < s.prims[j]
}

func (s *byCentroid) Swap(i, j int) {
	s.prims[i], s.prims[j] = s.prims[j], s.prims[i]
	s.bounds[i], s.bounds[j] = s.bounds[j], s.bounds[i]
	s.centroids[i], s.centroids[j] = s.centroids[j], s.centroids[i]
}

// sortRange orders the primitive range by centroid along the given
// axis. A comparison sort keeps construction at O(n log n).
func (b *builder) sortRange(start, end, axis int) {
	sort.Sort(&byCentroid{
		prims:     b.tree.Prims[start:end],
		bounds:    b.bounds[start:end],
		centroids: b.centroids[start:end],
		axis:      axis,
	})
}

// sahSplit evaluates every candidate split position along the sorted
// range and returns the offset (relative to start) minimizing the
// surface area cost. The returned offset is always in [1, n-1].
func (b *builder) sahSplit(start, end int) int {
	n := end - start

	// Suffix bounds: rightBounds[i] covers primitives [start+i, end).
	rightBounds := make([]geom.BBox3, n)
	acc := geom.EmptyBBox()
	for i := n - 1; i >= 0; i-- {
		acc = acc.Union(b.bounds[start+i])
		rightBounds[i] = acc
	}

	best := 1
	bestCost := math.Inf(1)
	left := geom.EmptyBBox()
	for i := 1; i < n; i++ {
		left = left.Union(b.bounds[start+i-1])
		cost := left.SurfaceArea()*float64(i) + rightBounds[i].SurfaceArea()*float64(n-i)
		if cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best
}

// QueryPlane returns the ids of all triangles whose bounding box
// straddles the horizontal plane at z. An empty tree returns nil.
func (t *Tree) QueryPlane(z float64) []uint32 {
	if len(t.Nodes) == 0 {
		return nil
	}
	var out []uint32
	stack := make([]int32, 0, 64)
	stack = append(stack, 0)
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &t.Nodes[ni]
		if !node.Bounds.StraddlesZ(z) {
			continue
		}
		if node.IsLeaf() {
			for i := node.Offset; i < node.Offset+node.Count; i++ {
				ti := t.Prims[i]
				if t.mesh.TriBounds(ti).StraddlesZ(z) {
					out = append(out, ti)
				}
			}
			continue
		}
		stack = append(stack, node.LeftChild, node.LeftChild+1)
	}
	return out
}

// Validate checks the structural invariants: every node's bounds
// contain the bounds of all triangles in its subtree, child indices
// are in range, and the permutation covers each primitive exactly
// once. Used by tests, not on the hot path.
func (t *Tree) Validate() error {
	if len(t.Nodes) == 0 {
		if len(t.Prims) != 0 {
			return fmt.Errorf("aabb: empty tree with %d primitives", len(t.Prims))
		}
		return nil
	}
	seen := make([]bool, len(t.Prims))
	if err := t.validateNode(0, seen); err != nil {
		return err
	}
	for i, s := range seen {
		if !s {
			return fmt.Errorf("aabb: primitive slot %d unreachable", i)
		}
	}
	return nil
}

func (t *Tree) validateNode(ni int32, seen []bool) error {
	node := &t.Nodes[ni]
	if node.IsLeaf() {
		if node.Offset < 0 || int(node.Offset+node.Count) > len(t.Prims) {
			return fmt.Errorf("aabb: node %d primitive range [%d,%d) out of bounds", ni, node.Offset, node.Offset+node.Count)
		}
		for i := node.Offset; i < node.Offset+node.Count; i++ {
			if seen[i] {
				return fmt.Errorf("aabb: primitive slot %d referenced twice", i)
			}
			seen[i] = true
			if !node.Bounds.Contains(t.mesh.TriBounds(t.Prims[i])) {
				return fmt.Errorf("aabb: node %d does not contain triangle %d", ni, t.Prims[i])
			}
		}
		return nil
	}
	for _, ci := range []int32{node.LeftChild, node.LeftChild + 1} {
		if ci <= 0 || int(ci) >= len(t.Nodes) {
			return fmt.Errorf("aabb: node %d child index %d out of range", ni, ci)
		}
		if !node.Bounds.Contains(t.Nodes[ci].Bounds) {
			return fmt.Errorf("aabb: node %d does not contain child %d", ni, ci)
		}
		if err := t.validateNode(ci, seen); err != nil {
			return err
		}
	}
	return nil
}
