package placement

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/footprint"
)

// Proxy claim markers. Non-negative claims are net indices.
const (
	claimFree     int32 = -1
	claimObstacle int32 = -2
)

// terminal is a net endpoint resolved against the part list. part is -1 for
// a bare hole terminal.
type terminal struct {
	part, pin int
	hole      board.Hole
}

// CostModel scores complete placements of a project's parts. Everything that
// depends only on the project (pin net membership, baselines, adjacency) is
// computed once; Cost itself is a pure function of the placements it is
// given.
type CostModel struct {
	board   board.Board
	weights Weights
	fixed   map[board.Hole]bool

	nets      [][]terminal
	pinNets   [][][]int // part -> pin -> sorted net indices
	adjacency [][]float64

	baseRotation []board.Rotation
	baseOrigin   []board.Hole
	kinds        []board.PartKind
	footprints   []board.Footprint
}

// NewCostModel prepares a cost model for p. The current part placements
// become the baseline that disturbance penalties are measured against.
// Net terminals that do not resolve are ignored.
func NewCostModel(p board.Project, fixed map[board.Hole]bool, w Weights) *CostModel {
	m := &CostModel{
		board:        p.Board,
		weights:      w,
		fixed:        fixed,
		pinNets:      make([][][]int, len(p.Parts)),
		adjacency:    make([][]float64, len(p.Parts)),
		baseRotation: make([]board.Rotation, len(p.Parts)),
		baseOrigin:   make([]board.Hole, len(p.Parts)),
		kinds:        make([]board.PartKind, len(p.Parts)),
		footprints:   make([]board.Footprint, len(p.Parts)),
	}

	partIndex := make(map[string]int, len(p.Parts))
	for i, part := range p.Parts {
		partIndex[part.ID] = i
		m.pinNets[i] = make([][]int, len(footprint.LocalOffsets(part.Kind, part.Footprint)))
		m.adjacency[i] = make([]float64, len(p.Parts))
		m.baseRotation[i] = part.Placement.Rotation.Normalize()
		m.baseOrigin[i] = part.Placement.Origin
		m.kinds[i] = part.Kind
		m.footprints[i] = part.Footprint
	}

	for ni, net := range p.Netlist {
		var terms []terminal
		partsInNet := make(map[int]bool)
		for _, t := range net.Terminals {
			if t.Kind == board.TerminalHole {
				terms = append(terms, terminal{part: -1, pin: -1, hole: t.Hole})
				continue
			}
			pi, ok := partIndex[t.PartID]
			if !ok {
				continue
			}
			pin := footprint.PinIndex(p.Parts[pi], t.PinID)
			if pin < 0 {
				continue
			}
			terms = append(terms, terminal{part: pi, pin: pin})
			if !containsInt(m.pinNets[pi][pin], ni) {
				m.pinNets[pi][pin] = append(m.pinNets[pi][pin], ni)
			}
			partsInNet[pi] = true
		}
		m.nets = append(m.nets, terms)

		members := make([]int, 0, len(partsInNet))
		for pi := range partsInNet {
			members = append(members, pi)
		}
		sort.Ints(members)
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				m.adjacency[members[a]][members[b]]++
				m.adjacency[members[b]][members[a]]++
			}
		}
	}
	for i := range m.pinNets {
		for j := range m.pinNets[i] {
			sort.Ints(m.pinNets[i][j])
		}
	}
	return m
}

// Cost scores a full placement. parts must be the project's parts in the
// same order the model was built from; only their placements are read.
func (m *CostModel) Cost(parts []board.Part) float64 {
	pins := make([][]board.Hole, len(parts))
	pls := make([]board.Placement, len(parts))
	for i, part := range parts {
		pls[i] = part.Placement
		pins[i] = footprint.Holes(m.kinds[i], m.footprints[i], part.Placement)
	}
	return m.evaluate(pls, pins)
}

// evaluate is the cost of the given placements. Parts whose pins entry is
// nil are absent and contribute nothing.
func (m *CostModel) evaluate(pls []board.Placement, pins [][]board.Hole) float64 {
	w := m.weights
	cost := 0.0

	// (a) collisions, (d) clearance, (b) fixed holes
	radius := w.ClearanceMin
	for i := range pins {
		for pi, h := range pins[i] {
			if m.fixed[h] {
				cost += w.FixedHole
			}
			for j := i + 1; j < len(pins); j++ {
				for pj, o := range pins[j] {
					d := h.Manhattan(o)
					if d >= radius && d != 0 {
						continue
					}
					if m.shareNet(i, pi, j, pj) {
						continue
					}
					if d == 0 {
						cost += w.Collision
					}
					if d < radius {
						enc := float64(radius - d)
						cost += w.Clearance * enc * enc
					}
				}
			}
		}
	}

	// (c) bounding-box overlap
	boxes := make([]bbox, len(pins))
	for i := range pins {
		boxes[i] = boundsOf(pins[i])
	}
	for i := range boxes {
		if boxes[i].empty {
			continue
		}
		for j := i + 1; j < len(boxes); j++ {
			if boxes[j].empty {
				continue
			}
			cost += w.Overlap * float64(boxes[i].overlap(boxes[j]))
		}
	}

	// (e) net geometry and (f) routing proxy
	cost += m.netCost(pins)

	// (g) adjacency
	cents := make([]Point, len(pins))
	for i := range pins {
		cents[i] = centroid(pins[i])
	}
	for i := range pins {
		if pins[i] == nil {
			continue
		}
		for j := i + 1; j < len(pins); j++ {
			if pins[j] == nil || m.adjacency[i][j] == 0 {
				continue
			}
			d := math.Abs(cents[i].X-cents[j].X) + math.Abs(cents[i].Y-cents[j].Y)
			cost += w.Adjacency * m.adjacency[i][j] * d
		}
	}

	// (h) overall area
	var all bbox
	all.empty = true
	for i := range boxes {
		all = all.union(boxes[i])
	}
	if !all.empty {
		cost += w.Area * float64(all.area())
	}

	// (i) disturbance from baseline
	for i := range pins {
		if pins[i] == nil {
			continue
		}
		if pls[i].Rotation.Normalize() != m.baseRotation[i] {
			cost += w.RotationChange
		}
		cost += w.OriginMove * float64(pls[i].Origin.Manhattan(m.baseOrigin[i]))
	}

	return cost
}

// netCost covers the per-net geometric terms and the single-bend routing
// proxy. Nets are visited in netlist order so congestion claims are
// deterministic.
func (m *CostModel) netCost(pins [][]board.Hole) float64 {
	w := m.weights
	cost := 0.0

	claims := make([]int32, m.board.Cells())
	for i := range claims {
		claims[i] = claimFree
	}
	for i := range pins {
		for pi, h := range pins[i] {
			if !m.board.Contains(h) {
				continue
			}
			if len(m.pinNets[i][pi]) > 0 {
				claims[m.board.Index(h)] = int32(m.pinNets[i][pi][0])
			} else {
				claims[m.board.Index(h)] = claimObstacle
			}
		}
	}

	for ni, terms := range m.nets {
		holes := m.netHoles(terms, pins)
		if len(holes) < 2 {
			continue
		}

		xs := make([]float64, len(holes))
		ys := make([]float64, len(holes))
		for i, h := range holes {
			xs[i] = float64(h.X)
			ys[i] = float64(h.Y)
		}
		sort.Float64s(xs)
		sort.Float64s(ys)
		mx := stat.Quantile(0.5, stat.Empirical, xs, nil)
		my := stat.Quantile(0.5, stat.Empirical, ys, nil)
		anchor := board.Hole{X: int(mx), Y: int(my)}

		spread := 0.0
		for _, h := range holes {
			spread += math.Abs(float64(h.X)-mx) + math.Abs(float64(h.Y)-my)
		}
		cost += w.MedianDistance * spread
		cost += w.Span * ((xs[len(xs)-1] - xs[0]) + (ys[len(ys)-1] - ys[0]))
		if len(holes) == 2 && holes[0].X != holes[1].X && holes[0].Y != holes[1].Y {
			cost += w.Diagonal
		}

		for _, h := range holes {
			cost += m.proxyPath(h, anchor, int32(ni), claims)
		}
	}
	return cost
}

// netHoles resolves a net's terminals against the current pin positions.
func (m *CostModel) netHoles(terms []terminal, pins [][]board.Hole) []board.Hole {
	out := make([]board.Hole, 0, len(terms))
	for _, t := range terms {
		if t.part < 0 {
			out = append(out, t.hole)
			continue
		}
		if pins[t.part] == nil || t.pin >= len(pins[t.part]) {
			continue
		}
		out = append(out, pins[t.part][t.pin])
	}
	return out
}

// proxyPath prices the cheaper single-bend path from h to anchor and claims
// its free cells for net.
func (m *CostModel) proxyPath(h, anchor board.Hole, net int32, claims []int32) float64 {
	w := m.weights
	length := h.Manhattan(anchor)
	if length == 0 {
		return 0
	}
	bends := 0
	if h.X != anchor.X && h.Y != anchor.Y {
		bends = 1
	}

	horizontal := board.Hole{X: anchor.X, Y: h.Y}
	vertical := board.Hole{X: h.X, Y: anchor.Y}

	congestion := func(corner board.Hole) int {
		n := 0
		walkL(h, corner, anchor, func(c board.Hole) {
			if !m.board.Contains(c) {
				return
			}
			claim := claims[m.board.Index(c)]
			if claim == claimObstacle || (claim >= 0 && claim != net) {
				n++
			}
		})
		return n
	}

	corner := horizontal
	best := congestion(horizontal)
	if bends > 0 {
		if v := congestion(vertical); v < best {
			best, corner = v, vertical
		}
	}

	walkL(h, corner, anchor, func(c board.Hole) {
		if !m.board.Contains(c) {
			return
		}
		if i := m.board.Index(c); claims[i] == claimFree {
			claims[i] = net
		}
	})

	return w.ProxyLength*float64(length) + w.ProxyBend*float64(bends) + w.ProxyCongestion*float64(best)
}

// walkL visits every cell after from along from→corner→to.
func walkL(from, corner, to board.Hole, fn func(board.Hole)) {
	cur := from
	for _, target := range []board.Hole{corner, to} {
		for cur != target {
			cur.X += sign(target.X - cur.X)
			cur.Y += sign(target.Y - cur.Y)
			fn(cur)
		}
	}
}

func (m *CostModel) shareNet(i, pi, j, pj int) bool {
	a, b := m.pinNets[i][pi], m.pinNets[j][pj]
	for x, y := 0, 0; x < len(a) && y < len(b); {
		switch {
		case a[x] == b[y]:
			return true
		case a[x] < b[y]:
			x++
		default:
			y++
		}
	}
	return false
}

// bbox is an inclusive cell rectangle.
type bbox struct {
	minX, minY, maxX, maxY int
	empty                  bool
}

func boundsOf(pins []board.Hole) bbox {
	if len(pins) == 0 {
		return bbox{empty: true}
	}
	b := bbox{minX: pins[0].X, maxX: pins[0].X, minY: pins[0].Y, maxY: pins[0].Y}
	for _, h := range pins[1:] {
		b.minX = min(b.minX, h.X)
		b.maxX = max(b.maxX, h.X)
		b.minY = min(b.minY, h.Y)
		b.maxY = max(b.maxY, h.Y)
	}
	return b
}

func (b bbox) overlap(o bbox) int {
	w := min(b.maxX, o.maxX) - max(b.minX, o.minX) + 1
	h := min(b.maxY, o.maxY) - max(b.minY, o.minY) + 1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

func (b bbox) union(o bbox) bbox {
	if o.empty {
		return b
	}
	if b.empty {
		return o
	}
	return bbox{
		minX: min(b.minX, o.minX), minY: min(b.minY, o.minY),
		maxX: max(b.maxX, o.maxX), maxY: max(b.maxY, o.maxY),
	}
}

func (b bbox) area() int {
	return (b.maxX - b.minX + 1) * (b.maxY - b.minY + 1)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
