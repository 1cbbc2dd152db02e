package slice

import (
	"math"

	"github.com/chazu/lamina/pkg/geom"
)

// closeGaps is phase 3: bridge open polyline ends separated by small
// gaps. Free endpoints are indexed in a uniform grid; each round the
// single best-scoring connection below both thresholds is made, then
// the search repeats until nothing qualifies. Returns the number of
// connections made.
//
// The grid is local to one layer's computation and never shared.
func closeGaps(lines []*polyline, cfg Config) int {
	if cfg.MaxGapDistance <= 0 {
		return 0
	}
	closed := 0
	for {
		if !closeBestGap(lines, cfg) {
			break
		}
		closed++
	}
	return closed
}

// freeEnd is one open polyline endpoint in the grid.
type freeEnd struct {
	pl  *polyline
	end int // 0 = head, 1 = tail
	pt  geom.Point2
}

type gridCell struct {
	x, y int64
}

// closeBestGap finds and connects the globally best candidate pair.
// Scoring combines normalized distance and angular deviation; ties
// break on smaller distance, then on lower candidate index, so the
// result is deterministic.
func closeBestGap(lines []*polyline, cfg Config) bool {
	order := openOrder(lines)
	if len(order) == 0 {
		return false
	}

	var ends []freeEnd
	for _, pl := range order {
		ends = append(ends, freeEnd{pl: pl, end: 0, pt: pl.headPt()})
		ends = append(ends, freeEnd{pl: pl, end: 1, pt: pl.tailPt()})
	}

	cell := int64(geom.FromMM(cfg.MaxGapDistance))
	grid := make(map[gridCell][]int, len(ends))
	for i, e := range ends {
		grid[cellOf(e.pt, cell)] = append(grid[cellOf(e.pt, cell)], i)
	}

	maxAngle := cfg.MaxAngleDeviation * math.Pi / 180

	bestScore := math.Inf(1)
	bestDist := math.Inf(1)
	bestI, bestJ := -1, -1
	for i, e := range ends {
		c := cellOf(e.pt, cell)
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for _, j := range grid[gridCell{c.x + dx, c.y + dy}] {
					if j == i {
						continue
					}
					o := ends[j]
					if o.pl == e.pl && (!cfg.AllowSelfClose || len(e.pl.pts) < 3) {
						continue
					}
					dist := distMM(e.pt, o.pt)
					if dist > cfg.MaxGapDistance {
						continue
					}
					angle := bridgeAngle(e, o.pt, dist)
					if angle > maxAngle {
						continue
					}
					score := dist/cfg.MaxGapDistance + angle/maxAngle
					better := score < bestScore ||
						(score == bestScore && dist < bestDist)
					if better {
						bestScore, bestDist = score, dist
						bestI, bestJ = i, j
					}
				}
			}
		}
	}
	if bestI < 0 {
		return false
	}

	a, b := ends[bestI], ends[bestJ]
	if a.pl == b.pl {
		a.pl.markClosed()
		return true
	}
	mergeInto(a.pl, a.end, b.pl, b.end, true)
	return true
}

func cellOf(p geom.Point2, cell int64) gridCell {
	return gridCell{x: floorDiv(int64(p.X), cell), y: floorDiv(int64(p.Y), cell)}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func distMM(a, b geom.Point2) float64 {
	dx := float64(b.X-a.X) / float64(geom.Scale)
	dy := float64(b.Y-a.Y) / float64(geom.Scale)
	return math.Hypot(dx, dy)
}

// bridgeAngle measures how far the bridge to target deviates from the
// endpoint's outgoing tangent. A zero-length gap deviates by nothing.
func bridgeAngle(e freeEnd, target geom.Point2, dist float64) float64 {
	if dist == 0 {
		return 0
	}
	var tangent geom.Point2
	pts := e.pl.pts
	if e.end == 0 {
		tangent = geom.Point2{X: pts[0].X - pts[1].X, Y: pts[0].Y - pts[1].Y}
	} else {
		n := len(pts)
		tangent = geom.Point2{X: pts[n-1].X - pts[n-2].X, Y: pts[n-1].Y - pts[n-2].Y}
	}
	tx, ty := float64(tangent.X), float64(tangent.Y)
	tl := math.Hypot(tx, ty)
	if tl == 0 {
		return 0
	}
	bx := float64(target.X - e.pt.X)
	by := float64(target.Y - e.pt.Y)
	cos := (tx*bx + ty*by) / (tl * math.Hypot(bx, by))
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}
