package slice

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/chazu/lamina/pkg/aabb"
	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

// Slicer drives the pipeline: plane query, predicate, chaining, once
// per requested height. The mesh and tree are immutable after
// construction and shared read-only by every layer computation, so a
// Slicer is safe for concurrent use.
type Slicer struct {
	mesh *mesh.Mesh
	tree *aabb.Tree
	cfg  Config
}

// NewSlicer builds the spatial index for the mesh and returns a
// slicer using the given tolerances.
func NewSlicer(m *mesh.Mesh, cfg Config) *Slicer {
	return &Slicer{mesh: m, tree: aabb.Build(m), cfg: cfg}
}

// Tree exposes the underlying spatial index, mainly so collaborators
// can run ray queries against the same structure.
func (s *Slicer) Tree() *aabb.Tree {
	return s.tree
}

// SliceOne computes the layer at a single height in millimetres. It is
// a pure function of the slicer's immutable state and z.
func (s *Slicer) SliceOne(zmm float64) Layer {
	z := geom.FromMM(zmm)
	candidates := s.tree.QueryPlane(zmm)

	var segs []Segment
	for _, ti := range candidates {
		segs = append(segs, SectionTriangle(s.mesh, ti, z, s.cfg.ZEpsilon)...)
	}
	polys, diag := Chain(segs, s.cfg)
	return Layer{
		Z:          z,
		Polygons:   polys,
		Diag:       diag,
		Candidates: len(candidates),
	}
}

// Slice computes one layer per height. Heights must be strictly
// increasing; layers land in preallocated slots indexed by position,
// so workers never contend. Cancellation is cooperative at layer
// granularity: a worker checks ctx between layers, never mid-layer.
func (s *Slicer) Slice(ctx context.Context, heights []float64) (*Result, error) {
	for i := 1; i < len(heights); i++ {
		if heights[i] <= heights[i-1] {
			return nil, fmt.Errorf("slice: heights not strictly increasing at index %d (%v after %v)", i, heights[i], heights[i-1])
		}
	}

	start := time.Now()
	layers := make([]Layer, len(heights))

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(heights) {
		workers = len(heights)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				layers[i] = s.SliceOne(heights[i])
			}
		}()
	}
	for i := range layers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("slice: %w", err)
	}

	res := &Result{Layers: layers}
	res.Stats = summarize(layers, heights)
	res.Stats.Elapsed = time.Since(start)
	return res, nil
}

// summarize aggregates per-layer diagnostics and estimates the solid
// volume by integrating closed polygon area over layer spacing.
func summarize(layers []Layer, heights []float64) Stats {
	st := Stats{Layers: len(layers)}
	if len(layers) == 0 {
		return st
	}

	totalCandidates := 0
	for i := range layers {
		st.Segments += layers[i].Diag.Segments
		st.GapsClosed += layers[i].Diag.GapsClosed
		st.Unresolved += layers[i].Diag.Unresolved
		totalCandidates += layers[i].Candidates

		var area float64
		for pi := range layers[i].Polygons {
			p := &layers[i].Polygons[pi]
			if p.Closed {
				area += math.Abs(p.Area())
			}
		}
		st.VolumeEstimate += area * spacing(heights, i)
	}
	st.TrianglesPerLayer = float64(totalCandidates) / float64(len(layers))
	return st
}

// spacing returns the height interval attributed to layer i, midpoint
// rule with single-sided boundaries.
func spacing(heights []float64, i int) float64 {
	switch {
	case len(heights) < 2:
		return 0
	case i == 0:
		return heights[1] - heights[0]
	case i == len(heights)-1:
		return heights[i] - heights[i-1]
	default:
		return (heights[i+1] - heights[i-1]) / 2
	}
}
