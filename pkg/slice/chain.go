package slice

import (
	"math"
	"sort"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/mesh"
)

// Chain assembles the flat segment list emitted for one layer into
// polygons. Three progressively relaxed passes each consume the open
// tail left by the previous one: mesh-topology joins, exact endpoint
// matches, then grid-indexed gap closing. Whatever stays open after
// all three is reported, not discarded.
func Chain(segs []Segment, cfg Config) ([]Polygon, ChainDiagnostics) {
	var diag ChainDiagnostics

	segs = dedupeSegments(segs, &diag)
	diag.Segments = len(segs)

	lines := assembleTopology(segs)
	diag.OpenAfterPhase1 = countOpen(lines)

	matchExact(lines, cfg)
	diag.OpenAfterPhase2 = countOpen(lines)

	diag.GapsClosed = closeGaps(lines, cfg)

	return finalize(lines, &diag), diag
}

// topoKey identifies a mesh feature an endpoint can join on.
type topoKey struct {
	kind uint8 // 1 = edge, 2 = vertex
	id   uint32
}

func tagKeys(t EndpointTag) []topoKey {
	var keys []topoKey
	if t.Edge != mesh.NoEdge {
		keys = append(keys, topoKey{kind: 1, id: uint32(t.Edge)})
	}
	if t.Vertex != mesh.NoVertex {
		keys = append(keys, topoKey{kind: 2, id: t.Vertex})
	}
	return keys
}

// shareTopo reports whether two endpoint tags reference the same mesh
// feature.
func shareTopo(a, b EndpointTag) bool {
	if a.Edge != mesh.NoEdge && a.Edge == b.Edge {
		return true
	}
	if a.Vertex != mesh.NoVertex && a.Vertex == b.Vertex {
		return true
	}
	return false
}

// polyline is chaining's working state: an open or closed point chain
// with the topology tags of its two free ends. first is the smallest
// source-segment index, the stable processing key that keeps all three
// phases deterministic.
type polyline struct {
	pts    []geom.Point2
	head   EndpointTag
	tail   EndpointTag
	first  int
	closed bool
	dead   bool // merged into another polyline
}

func (pl *polyline) headPt() geom.Point2 { return pl.pts[0] }
func (pl *polyline) tailPt() geom.Point2 { return pl.pts[len(pl.pts)-1] }

func (pl *polyline) reverse() {
	for i, j := 0, len(pl.pts)-1; i < j; i, j = i+1, j-1 {
		pl.pts[i], pl.pts[j] = pl.pts[j], pl.pts[i]
	}
	pl.head, pl.tail = pl.tail, pl.head
}

// markClosed closes the polyline, merging coincident end points.
func (pl *polyline) markClosed() {
	if len(pl.pts) > 1 && pl.pts[0] == pl.pts[len(pl.pts)-1] {
		pl.pts = pl.pts[:len(pl.pts)-1]
	}
	pl.closed = true
}

func countOpen(lines []*polyline) int {
	n := 0
	for _, pl := range lines {
		if !pl.dead && !pl.closed {
			n++
		}
	}
	return n
}

// dedupeSegments drops zero-length segments and resolves multiple
// emissions of the same mesh edge. An edge emitted by two coplanar
// faces with opposite windings is interior to the coplanar region and
// contributes nothing; any other multiplicity keeps exactly one copy,
// preferring the face-on-plane emission whose orientation follows the
// face region.
func dedupeSegments(segs []Segment, diag *ChainDiagnostics) []Segment {
	drop := make([]bool, len(segs))
	byEdge := make(map[mesh.EdgeID][]int)
	for i, s := range segs {
		if s.Start == s.End {
			drop[i] = true
			diag.DroppedZeroLength++
			continue
		}
		if s.Edge != mesh.NoEdge {
			byEdge[s.Edge] = append(byEdge[s.Edge], i)
		}
	}

	for _, group := range byEdge {
		if len(group) < 2 {
			continue
		}
		var faces []int
		for _, i := range group {
			if segs[i].Kind == KindFaceTop || segs[i].Kind == KindFaceBottom {
				faces = append(faces, i)
			}
		}
		// Two coplanar faces sharing this edge with opposite
		// directions: the edge is interior, cancel everything.
		cancelled := false
		for a := 0; a < len(faces) && !cancelled; a++ {
			for b := a + 1; b < len(faces); b++ {
				sa, sb := segs[faces[a]], segs[faces[b]]
				if sa.Start == sb.End && sa.End == sb.Start {
					cancelled = true
					break
				}
			}
		}
		keep := -1
		if !cancelled {
			if len(faces) > 0 {
				keep = faces[0]
			} else {
				keep = group[0]
			}
		}
		for _, i := range group {
			if i != keep && !drop[i] {
				drop[i] = true
				diag.DroppedOnEdge++
			}
		}
	}

	out := make([]Segment, 0, len(segs))
	for i, s := range segs {
		if !drop[i] {
			out = append(out, s)
		}
	}
	return out
}

// assembleTopology is phase 1: join segment endpoints that reference
// the same mesh edge or vertex, regardless of the distance between
// their computed coordinates. This is the most reliable join because
// it uses connectivity, not numeric proximity.
func assembleTopology(segs []Segment) []*polyline {
	index := make(map[topoKey][]int, len(segs)*2)
	for i, s := range segs {
		for _, k := range tagKeys(s.StartTag) {
			index[k] = append(index[k], i)
		}
		for _, k := range tagKeys(s.EndTag) {
			index[k] = append(index[k], i)
		}
	}

	used := make([]bool, len(segs))
	var lines []*polyline
	for i := range segs {
		if used[i] {
			continue
		}
		used[i] = true
		pl := &polyline{
			pts:   []geom.Point2{segs[i].Start, segs[i].End},
			head:  segs[i].StartTag,
			tail:  segs[i].EndTag,
			first: i,
		}
		extendTail(pl, segs, index, used)
		if !pl.closed {
			// Walk the other direction too.
			pl.reverse()
			extendTail(pl, segs, index, used)
		}
		lines = append(lines, pl)
	}
	return lines
}

// extendTail repeatedly attaches the lowest-index unused segment
// sharing a topology key with the polyline's tail. Closure is checked
// before each extension so a completed loop closes immediately instead
// of absorbing further segments from a non-manifold fan at the closing
// feature.
func extendTail(pl *polyline, segs []Segment, index map[topoKey][]int, used []bool) {
	for {
		if len(pl.pts) >= 3 && shareTopo(pl.head, pl.tail) {
			pl.markClosed()
			return
		}
		cand := -1
		for _, k := range tagKeys(pl.tail) {
			for _, si := range index[k] {
				if used[si] {
					continue
				}
				if cand == -1 || si < cand {
					cand = si
				}
			}
		}
		if cand == -1 {
			return
		}
		used[cand] = true
		s := segs[cand]
		if shareTopo(pl.tail, s.StartTag) {
			pl.pts = append(pl.pts, s.End)
			pl.tail = s.EndTag
		} else {
			pl.pts = append(pl.pts, s.Start)
			pl.tail = s.StartTag
		}
	}
}

// matchExact is phase 2: connect endpoints whose squared distance is
// below a tight tolerance. This resolves touches with no shared
// topology tag, such as two independently interpolated points meeting
// at a vertex grazed by the plane.
func matchExact(lines []*polyline, cfg Config) {
	tol := geom.FromMM(cfg.ExactEpsilon)
	tolSq := int64(tol) * int64(tol)

	order := openOrder(lines)
	for changed := true; changed; {
		changed = false
		for _, pl := range order {
			if pl.dead || pl.closed {
				continue
			}
			if len(pl.pts) >= 3 && pl.headPt().DistSq(pl.tailPt()) <= tolSq {
				pl.markClosed()
				changed = true
				continue
			}
			if mergeNearest(pl, order, tolSq) {
				changed = true
			}
		}
	}
}

// mergeNearest joins pl with the closest other open polyline whose
// nearest end is within tolSq. Returns true if a merge happened.
func mergeNearest(pl *polyline, order []*polyline, tolSq int64) bool {
	bestDist := int64(math.MaxInt64)
	var bestOther *polyline
	bestEnds := [2]int{0, 0} // pl end, other end (0 = head, 1 = tail)

	for _, other := range order {
		if other == pl || other.dead || other.closed {
			continue
		}
		for _, pe := range [2]int{1, 0} {
			for _, oe := range [2]int{0, 1} {
				d := endPoint(pl, pe).DistSq(endPoint(other, oe))
				if d <= tolSq && d < bestDist {
					bestDist = d
					bestOther = other
					bestEnds = [2]int{pe, oe}
				}
			}
		}
	}
	if bestOther == nil {
		return false
	}
	mergeInto(pl, bestEnds[0], bestOther, bestEnds[1], true)
	return true
}

func endPoint(pl *polyline, end int) geom.Point2 {
	if end == 0 {
		return pl.headPt()
	}
	return pl.tailPt()
}

// mergeInto appends other to pl, connecting the given ends. When the
// joined points coincide exactly, weld drops the duplicate.
func mergeInto(pl *polyline, plEnd int, other *polyline, otherEnd int, weld bool) {
	if plEnd == 0 {
		pl.reverse()
	}
	if otherEnd == 1 {
		other.reverse()
	}
	start := 0
	if weld && pl.tailPt() == other.headPt() {
		start = 1
	}
	pl.pts = append(pl.pts, other.pts[start:]...)
	pl.tail = other.tail
	if other.first < pl.first {
		pl.first = other.first
	}
	other.dead = true
}

// openOrder returns the live open polylines in ascending first-segment
// order, the stable processing order shared by phases 2 and 3.
func openOrder(lines []*polyline) []*polyline {
	var order []*polyline
	for _, pl := range lines {
		if !pl.dead && !pl.closed {
			order = append(order, pl)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].first < order[j].first })
	return order
}

// finalize simplifies closed loops and packages everything into
// polygons. Open polylines are still emitted, flagged, so the caller
// decides how to treat them.
func finalize(lines []*polyline, diag *ChainDiagnostics) []Polygon {
	ordered := make([]*polyline, 0, len(lines))
	for _, pl := range lines {
		if !pl.dead {
			ordered = append(ordered, pl)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].first < ordered[j].first })

	var polys []Polygon
	for _, pl := range ordered {
		if pl.closed {
			pts := simplifyLoop(pl.pts)
			if len(pts) < 3 {
				diag.DegenerateLoops++
				continue
			}
			polys = append(polys, Polygon{Points: pts, Closed: true})
			continue
		}
		diag.Unresolved++
		polys = append(polys, Polygon{Points: pl.pts, Closed: false})
	}
	return polys
}

// simplifyLoop removes duplicate and collinear pass-through points
// from a closed loop, using exact integer tests. Corner points and
// spikes are preserved.
func simplifyLoop(pts []geom.Point2) []geom.Point2 {
	for changed := true; changed && len(pts) >= 3; {
		changed = false
		out := make([]geom.Point2, 0, len(pts))
		n := len(pts)
		for i := 0; i < n; i++ {
			prev := pts[(i-1+n)%n]
			cur := pts[i]
			next := pts[(i+1)%n]
			if cur == next {
				changed = true
				continue
			}
			if geom.Collinear(prev, cur, next) && geom.SameDirection(prev, cur, next) {
				changed = true
				continue
			}
			out = append(out, cur)
		}
		pts = out
	}
	return pts
}
