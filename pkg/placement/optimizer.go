// Package placement positions movable parts on a perfboard.
//
// Optimize runs a multi-restart simulated annealer over a finite set of valid
// candidate placements per part. Starts are the (normalized) baseline, a
// greedy construction and uniformly random configurations; every run is
// scored by CostModel and the cheapest configuration wins. Randomness comes
// from an explicit xorshift32 value, so identical inputs and seed give
// identical output.
package placement

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/footprint"
)

var tracer = otel.Tracer("perfroute/placement")

// Result is the outcome of a placement run.
type Result struct {
	// Project is a copy of the input with movable parts repositioned.
	Project board.Project
	// Warnings lists parts that could not be placed.
	Warnings []string
	// Seed is the seed actually used.
	Seed uint32
	// BaselineCost is the cost of the normalized starting placement.
	BaselineCost float64
	// BestCost is the cost of the returned placement.
	BestCost float64
}

// movable is a part the annealer may reposition.
type movable struct {
	part      int
	cands     []Candidate
	preferred []int
	lookup    map[placementKey]int
}

// search holds the per-call mutable state of one optimization.
type search struct {
	model *CostModel
	rng   *Rand
	opts  *Options
	mov   []movable
	pls   []board.Placement
	pins  [][]board.Hole
}

// Optimize positions every movable part of p. It never fails: a part with no
// valid candidate keeps its placement and a warning is recorded. The
// context only carries trace spans; the run is not interrupted.
func Optimize(ctx context.Context, p board.Project, opts *Options) *Result {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	o.Validate()

	seed := DeriveSeed(p)
	if o.Seed != nil {
		seed = *o.Seed
	}

	_, span := tracer.Start(ctx, "placement.Optimize")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("seed", int64(seed)),
		attribute.Int("parts", len(p.Parts)),
		attribute.Int("iterations", o.Iterations),
		attribute.Int("restarts", o.Restarts),
	)

	out := p.Clone()
	res := &Result{Project: out, Seed: seed}
	s, warnings := newSearch(p, &o, seed)
	res.Warnings = append(res.Warnings, warnings...)

	if len(s.mov) == 0 {
		res.BaselineCost = s.model.evaluate(s.pls, s.pins)
		res.BestCost = res.BaselineCost
		optimizeRuns(ctx)
		return res
	}

	// baseline, snapped to valid candidates
	baseline := s.normalizeBaseline(p)

	// start configurations
	starts := [][]int{baseline}
	if o.Restarts >= 2 {
		starts = append(starts, s.greedy())
	}
	for len(starts) < o.Restarts {
		starts = append(starts, s.random())
	}

	s.apply(baseline)
	res.BaselineCost = s.model.evaluate(s.pls, s.pins)

	// anneal each start and keep the overall best
	var best []int
	bestCost := math.Inf(1)
	for si, start := range starts {
		cfg, cost := s.anneal(start)
		o.Logger.Debug("placement restart finished", "start", si, "cost", cost)
		if cost < bestCost {
			best, bestCost = cfg, cost
		}
	}

	// fixed and unplaceable parts stay untouched, original order
	for mi, mv := range s.mov {
		pl := mv.cands[best[mi]].Placement
		pl.Flip = p.Parts[mv.part].Placement.Flip
		out.Parts[mv.part].Placement = pl
	}
	res.Project = out
	res.BestCost = bestCost

	span.SetAttributes(
		attribute.Float64("baseline_cost", res.BaselineCost),
		attribute.Float64("best_cost", bestCost),
		attribute.Int("warnings", len(res.Warnings)),
	)
	optimizeRuns(ctx)
	return res
}

// newSearch splits p into fixed and movable parts and builds each movable
// part's full and preferred candidate sets. Parts with no valid candidate
// stay where they are and are reported in the returned warnings.
func newSearch(p board.Project, o *Options, seed uint32) (*search, []string) {
	fixed := p.Constraints.FixedHoleSet()
	s := &search{
		model: NewCostModel(p, fixed, o.Weights),
		rng:   NewRand(seed),
		opts:  o,
		pls:   make([]board.Placement, len(p.Parts)),
		pins:  make([][]board.Hole, len(p.Parts)),
	}
	for i, part := range p.Parts {
		s.pls[i] = part.Placement
		s.pins[i] = footprint.Holes(part.Kind, part.Footprint, part.Placement)
	}

	var warnings []string
	for i, part := range p.Parts {
		if p.Constraints.IsFixedPart(part.ID) {
			continue
		}
		cands := Candidates(p.Board, part, o.AllowRotate, fixed)
		if len(cands) == 0 {
			warnings = append(warnings, fmt.Sprintf("no valid placement for %s", part.Name()))
			continue
		}
		mv := movable{part: i, cands: cands, lookup: make(map[placementKey]int, len(cands))}
		for ci, c := range cands {
			mv.lookup[keyOf(c.Placement)] = ci
		}
		mv.preferred = Preferred(cands, targetFor(p, i, s.pins), o.PreferredLimit)
		s.mov = append(s.mov, mv)
	}
	return s, warnings
}

// targetFor is the point a part's preferred candidates cluster around: the
// mean position of its net partners, or its own centroid clamped to the
// board when it shares no net.
func targetFor(p board.Project, part int, pins [][]board.Hole) Point {
	id := p.Parts[part].ID
	var sx, sy float64
	n := 0
	for _, net := range p.Netlist {
		inNet := false
		for _, t := range net.Terminals {
			if t.Kind == board.TerminalPin && t.PartID == id {
				inNet = true
				break
			}
		}
		if !inNet {
			continue
		}
		for _, t := range net.Terminals {
			if t.Kind == board.TerminalHole {
				sx += float64(t.Hole.X)
				sy += float64(t.Hole.Y)
				n++
				continue
			}
			if t.PartID == id {
				continue
			}
			pi := p.PartByID(t.PartID)
			if pi < 0 {
				continue
			}
			idx := footprint.PinIndex(p.Parts[pi], t.PinID)
			if idx < 0 || idx >= len(pins[pi]) {
				continue
			}
			sx += float64(pins[pi][idx].X)
			sy += float64(pins[pi][idx].Y)
			n++
		}
	}
	if n > 0 {
		return Point{X: sx / float64(n), Y: sy / float64(n)}
	}
	c := centroid(pins[part])
	c.X = math.Max(0, math.Min(c.X, float64(p.Board.Width-1)))
	c.Y = math.Max(0, math.Min(c.Y, float64(p.Board.Height-1)))
	return c
}

// normalizeBaseline maps each movable part's current placement onto its
// candidate list, relocating invalid placements to the nearest preferred
// candidate.
func (s *search) normalizeBaseline(p board.Project) []int {
	cfg := make([]int, len(s.mov))
	for mi, mv := range s.mov {
		part := p.Parts[mv.part]
		if ci, ok := mv.lookup[keyOf(part.Placement)]; ok {
			cfg[mi] = ci
			continue
		}
		here := centroid(s.pins[mv.part])
		bestIdx, bestDist := mv.preferred[0], math.Inf(1)
		for _, ci := range mv.preferred {
			if d := dist2(mv.cands[ci].Centroid, here); d < bestDist {
				bestIdx, bestDist = ci, d
			}
		}
		cfg[mi] = bestIdx
	}
	return cfg
}

// greedy places parts by descending pin count, each at its cheapest
// candidate from the full set against the parts already placed. Ties keep
// the earliest candidate in enumeration order.
func (s *search) greedy() []int {
	order := make([]int, len(s.mov))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(s.mov[order[a]].cands[0].Pins) > len(s.mov[order[b]].cands[0].Pins)
	})

	for _, mv := range s.mov {
		s.pins[mv.part] = nil
	}

	cfg := make([]int, len(s.mov))
	for _, mi := range order {
		mv := s.mov[mi]
		bestIdx, bestCost := 0, math.Inf(1)
		for ci := range mv.cands {
			s.set(mi, ci)
			if c := s.model.evaluate(s.pls, s.pins); c < bestCost {
				bestIdx, bestCost = ci, c
			}
		}
		cfg[mi] = bestIdx
		s.set(mi, bestIdx)
	}
	return cfg
}

// random draws every movable part uniformly from its full candidate set.
func (s *search) random() []int {
	cfg := make([]int, len(s.mov))
	for mi, mv := range s.mov {
		cfg[mi] = s.rng.Intn(len(mv.cands))
	}
	return cfg
}

// anneal runs simulated annealing from start and returns the best
// configuration seen with its cost.
func (s *search) anneal(start []int) ([]int, float64) {
	cur := append([]int(nil), start...)
	s.apply(cur)
	curCost := s.model.evaluate(s.pls, s.pins)
	best := append([]int(nil), cur...)
	bestCost := curCost

	iters := s.opts.Iterations
	n := len(s.mov)
	for step := 0; step < iters; step++ {
		temp := 1 - float64(step)/float64(iters)

		var changed [2]int
		var prev [2]int
		moved := 0

		if n >= 2 && s.rng.Float64() < s.opts.SwapRate {
			a := s.rng.Intn(n)
			b := s.rng.Intn(n - 1)
			if b >= a {
				b++
			}
			ca, okA := s.mov[a].lookup[keyOf(s.mov[b].cands[cur[b]].Placement)]
			cb, okB := s.mov[b].lookup[keyOf(s.mov[a].cands[cur[a]].Placement)]
			if !okA || !okB {
				continue
			}
			changed, prev = [2]int{a, b}, [2]int{cur[a], cur[b]}
			moved = 2
			cur[a], cur[b] = ca, cb
		} else {
			m := s.rng.Intn(n)
			mv := s.mov[m]
			var ci int
			if s.rng.Float64() < s.opts.PreferredRate {
				ci = mv.preferred[s.rng.Intn(len(mv.preferred))]
			} else {
				ci = s.rng.Intn(len(mv.cands))
			}
			if ci == cur[m] {
				continue
			}
			changed[0], prev[0] = m, cur[m]
			moved = 1
			cur[m] = ci
		}

		for k := 0; k < moved; k++ {
			s.set(changed[k], cur[changed[k]])
		}
		proposed := s.model.evaluate(s.pls, s.pins)

		accept := proposed <= curCost
		if !accept {
			t := math.Max(minTemperature, temp)
			accept = s.rng.Float64() < math.Exp((curCost-proposed)/t)
		}
		if accept {
			curCost = proposed
			if curCost < bestCost {
				bestCost = curCost
				copy(best, cur)
			}
			continue
		}
		for k := 0; k < moved; k++ {
			cur[changed[k]] = prev[k]
			s.set(changed[k], prev[k])
		}
	}

	annealSteps(iters)
	return best, bestCost
}

// apply loads a full configuration into the working placement.
func (s *search) apply(cfg []int) {
	for mi := range s.mov {
		s.set(mi, cfg[mi])
	}
}

func (s *search) set(mi, ci int) {
	mv := s.mov[mi]
	s.pls[mv.part] = mv.cands[ci].Placement
	s.pins[mv.part] = mv.cands[ci].Pins
}
