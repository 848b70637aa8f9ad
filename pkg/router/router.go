// Package router connects the nets of a placed perfboard with wire traces.
//
// Route uses negotiated congestion: every pass routes all nets one at a time
// with A* over the hole grid, letting nets share cells at a price. Shared
// cells grow more expensive from pass to pass until the nets settle into
// disjoint paths or the pass limit is reached. The best pass is returned.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/footprint"
)

var tracer = otel.Tracer("perfroute/router")

// traceNamespace seeds the deterministic ids of emitted traces.
var traceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("perfroute/trace"))

const (
	DefaultMaxIterations    = 28
	DefaultPresentFactor    = 0.7
	DefaultPresentGrowth    = 1.35
	DefaultHistoryIncrement = 0.85
	DefaultHistoryWeight    = 1.1
	DefaultTurnPenalty      = 0.45
)

// Options tunes the negotiated-congestion loop.
type Options struct {
	MaxIterations    int
	PresentFactor    float64
	PresentGrowth    float64
	HistoryIncrement float64
	HistoryWeight    float64
	TurnPenalty      float64

	Logger *slog.Logger
}

// DefaultOptions returns the standard router configuration.
func DefaultOptions() *Options {
	return &Options{
		MaxIterations:    DefaultMaxIterations,
		PresentFactor:    DefaultPresentFactor,
		PresentGrowth:    DefaultPresentGrowth,
		HistoryIncrement: DefaultHistoryIncrement,
		HistoryWeight:    DefaultHistoryWeight,
		TurnPenalty:      DefaultTurnPenalty,
	}
}

// Validate replaces out-of-range values with defaults.
func (o *Options) Validate() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.PresentFactor < 0 {
		o.PresentFactor = DefaultPresentFactor
	}
	if o.PresentGrowth < 1 {
		o.PresentGrowth = DefaultPresentGrowth
	}
	if o.HistoryIncrement < 0 {
		o.HistoryIncrement = DefaultHistoryIncrement
	}
	if o.HistoryWeight < 0 {
		o.HistoryWeight = DefaultHistoryWeight
	}
	if o.TurnPenalty < 0 {
		o.TurnPenalty = DefaultTurnPenalty
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// Result is the outcome of a routing run.
type Result struct {
	// Traces holds one compressed wire per routed tree branch. A hole
	// where another branch of the same net joins stays a node even on a
	// straight run, so Compress(trace.Nodes) may return fewer nodes.
	Traces []board.Trace
	// Warnings explains dropped terminals, holes claimed by two nets,
	// unroutable nets and overflow.
	Warnings []string
	// TotalNetCount is the number of nets with at least two routable terminals.
	TotalNetCount int
	// RoutedNetCount is the number of those nets fully connected.
	RoutedNetCount int
	// Complete is true when every net routed and no cell is shared.
	Complete bool
	// Overflow is the number of extra net occupancies over all cells.
	Overflow int
	// Length is the total number of grid steps over all traces.
	Length int
	// Iterations is the number of passes run.
	Iterations int
}

// routeNet is a user net reduced to distinct on-board terminal holes.
type routeNet struct {
	id        string
	name      string
	order     int // position in the project netlist
	terminals []board.Hole
	blocked   []bool
}

// netRoute is one net's tree from a single pass.
type netRoute struct {
	paths [][]board.Hole
	cells []int
}

// pass is the state kept for the best pass seen.
type pass struct {
	routes   []*netRoute // indexed like the routing order; nil when unrouted
	routed   int
	overflow int
	length   int
}

func (p *pass) better(q *pass) bool {
	if q == nil {
		return true
	}
	if p.routed != q.routed {
		return p.routed > q.routed
	}
	if p.overflow != q.overflow {
		return p.overflow < q.overflow
	}
	return p.length < q.length
}

// Route routes every net of p on the bottom layer. Existing traces are
// ignored. The context only carries trace spans.
func Route(ctx context.Context, p board.Project, opts *Options) *Result {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	o.Validate()

	_, span := tracer.Start(ctx, "router.Route")
	defer span.End()

	res := &Result{}
	nets, warnings := buildNets(p)
	res.Warnings = append(res.Warnings, warnings...)
	res.TotalNetCount = len(nets)

	cells := p.Board.Cells()
	history := make([]float64, cells)
	present := o.PresentFactor

	var best *pass
	for iter := 0; iter < o.MaxIterations; iter++ {
		res.Iterations = iter + 1
		cur := runPass(p.Board, nets, history, present, &o)
		if cur.better(best) {
			best = cur
		}
		o.Logger.Debug("routing pass finished",
			"pass", iter+1, "routed", cur.routed, "overflow", cur.overflow, "length", cur.length)

		// Hard obstacles never change between passes, so without shared
		// cells there is nothing left to negotiate.
		if cur.overflow == 0 {
			break
		}
		occ := occupancy(cells, cur)
		for c, n := range occ {
			if n > 1 {
				history[c] += o.HistoryIncrement * float64(n-1)
			}
		}
		present *= o.PresentGrowth
	}

	if best == nil {
		best = &pass{}
	}
	res.RoutedNetCount = best.routed
	res.Overflow = best.overflow
	res.Length = best.length
	res.Complete = best.routed == len(nets) && best.overflow == 0

	emit := make([]int, len(nets))
	for i := range emit {
		emit[i] = i
	}
	sort.SliceStable(emit, func(a, b int) bool { return nets[emit[a]].order < nets[emit[b]].order })
	for _, ni := range emit {
		net := nets[ni]
		var r *netRoute
		if best.routes != nil {
			r = best.routes[ni]
		}
		if r == nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("net %s is unroutable", net.name))
			continue
		}
		junctions := make(map[board.Hole]bool)
		for _, path := range r.paths[1:] {
			junctions[path[0]] = true
		}
		for k, path := range r.paths {
			res.Traces = append(res.Traces, board.Trace{
				ID:    traceID(net.id, k),
				Kind:  board.TraceWire,
				Layer: board.LayerBottom,
				Nodes: compressKeep(path, junctions),
			})
		}
	}
	if best.overflow > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d cells remain shared between nets", best.overflow))
	}

	span.SetAttributes(
		attribute.Int("nets", res.TotalNetCount),
		attribute.Int("routed", res.RoutedNetCount),
		attribute.Int("overflow", res.Overflow),
		attribute.Int("iterations", res.Iterations),
		attribute.Bool("complete", res.Complete),
	)
	routeRuns(ctx, res.Iterations)
	return res
}

func traceID(netID string, k int) string {
	return uuid.NewSHA1(traceNamespace, []byte(fmt.Sprintf("%s#%d", netID, k))).String()
}

// runPass routes every net once against the current history and present
// factor. A net whose tree cannot be completed contributes nothing.
func runPass(b board.Board, nets []*routeNet, history []float64, present float64, o *Options) *pass {
	cells := b.Cells()
	g := &grid{
		board:       b,
		occ:         make([]int, cells),
		history:     history,
		present:     present,
		historyW:    o.HistoryWeight,
		turnPenalty: o.TurnPenalty,
	}

	cur := &pass{routes: make([]*netRoute, len(nets))}
	for ni, net := range nets {
		g.blocked = net.blocked
		r, ok := routeOne(g, net)
		if !ok {
			continue
		}
		for _, c := range r.cells {
			g.occ[c]++
		}
		cur.routes[ni] = r
		cur.routed++
		for _, path := range r.paths {
			cur.length += len(path) - 1
		}
	}
	for _, n := range g.occ {
		if n > 1 {
			cur.overflow += n - 1
		}
	}
	return cur
}

// routeOne grows a Steiner-like tree from the terminal with the smallest
// total Manhattan distance to the others, attaching the nearest remaining
// terminal each step.
func routeOne(g *grid, net *routeNet) (*netRoute, bool) {
	b := g.board
	seed := 0
	bestSum := -1
	for i, t := range net.terminals {
		sum := 0
		for _, u := range net.terminals {
			sum += t.Manhattan(u)
		}
		if bestSum < 0 || sum < bestSum {
			seed, bestSum = i, sum
		}
	}

	inTree := make([]bool, b.Cells())
	isTarget := make([]bool, b.Cells())
	start := b.Index(net.terminals[seed])
	inTree[start] = true
	tree := []int{start}

	var remaining []board.Hole
	for i, t := range net.terminals {
		if i == seed {
			continue
		}
		remaining = append(remaining, t)
		isTarget[b.Index(t)] = true
	}

	r := &netRoute{cells: []int{start}}
	for len(remaining) > 0 {
		path, ok := g.search(tree, remaining, isTarget)
		if !ok {
			return nil, false
		}
		holes := make([]board.Hole, len(path))
		for i, c := range path {
			holes[i] = b.HoleAt(c)
			if !inTree[c] {
				inTree[c] = true
				tree = append(tree, c)
				r.cells = append(r.cells, c)
			}
		}
		r.paths = append(r.paths, holes)

		reached := path[len(path)-1]
		isTarget[reached] = false
		for i, t := range remaining {
			if b.Index(t) == reached {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	return r, true
}

func occupancy(cells int, p *pass) []int {
	occ := make([]int, cells)
	for _, r := range p.routes {
		if r == nil {
			continue
		}
		for _, c := range r.cells {
			occ[c]++
		}
	}
	return occ
}

// buildNets resolves the netlist into route nets ordered by descending
// terminal count, with a blocked mask per net.
func buildNets(p board.Project) ([]*routeNet, []string) {
	var warnings []string
	b := p.Board

	resolved := make([][]board.Hole, len(p.Netlist))
	for ni, net := range p.Netlist {
		seen := make(map[board.Hole]bool)
		for _, t := range net.Terminals {
			h, ok := resolveTerminal(p, t)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("net %s: terminal %s does not resolve", net.DisplayName(), t))
				continue
			}
			if !b.Contains(h) {
				warnings = append(warnings, fmt.Sprintf("net %s: terminal %s is off the board", net.DisplayName(), t))
				continue
			}
			if seen[h] {
				continue
			}
			seen[h] = true
			resolved[ni] = append(resolved[ni], h)
		}
	}

	owner := make(map[board.Hole]int)
	for ni, holes := range resolved {
		for _, h := range holes {
			first, ok := owner[h]
			if !ok {
				owner[h] = ni
				continue
			}
			warnings = append(warnings, fmt.Sprintf("hole %s is a terminal of both net %s and net %s",
				h, p.Netlist[first].DisplayName(), p.Netlist[ni].DisplayName()))
		}
	}

	var pinHoles []board.Hole
	for _, part := range p.Parts {
		for _, pin := range footprint.Pins(part) {
			if b.Contains(pin.Hole) {
				pinHoles = append(pinHoles, pin.Hole)
			}
		}
	}
	fixed := p.Constraints.FixedHoleSet()

	var nets []*routeNet
	for ni, net := range p.Netlist {
		if len(resolved[ni]) < 2 {
			if len(net.Terminals) > 0 {
				warnings = append(warnings, fmt.Sprintf("net %s has fewer than 2 routable terminals", net.DisplayName()))
			}
			continue
		}
		own := make(map[board.Hole]bool, len(resolved[ni]))
		for _, h := range resolved[ni] {
			own[h] = true
		}
		blocked := make([]bool, b.Cells())
		mark := func(h board.Hole) {
			if b.Contains(h) && !own[h] {
				blocked[b.Index(h)] = true
			}
		}
		for oi, other := range resolved {
			if oi == ni {
				continue
			}
			for _, h := range other {
				mark(h)
			}
		}
		for _, h := range pinHoles {
			mark(h)
		}
		for h := range fixed {
			mark(h)
		}
		nets = append(nets, &routeNet{
			id:        net.ID,
			name:      net.DisplayName(),
			order:     ni,
			terminals: resolved[ni],
			blocked:   blocked,
		})
	}

	sort.SliceStable(nets, func(a, b int) bool {
		return len(nets[a].terminals) > len(nets[b].terminals)
	})
	return nets, warnings
}

func resolveTerminal(p board.Project, t board.NetTerminal) (board.Hole, bool) {
	if t.Kind == board.TerminalHole {
		return t.Hole, true
	}
	pi := p.PartByID(t.PartID)
	if pi < 0 {
		return board.Hole{}, false
	}
	pin, ok := footprint.Resolve(p.Parts[pi], t.PinID)
	if !ok {
		return board.Hole{}, false
	}
	return pin.Hole, true
}
