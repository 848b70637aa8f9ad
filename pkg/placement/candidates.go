package placement

import (
	"sort"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/footprint"
)

// Point is a fractional board coordinate.
type Point struct {
	X, Y float64
}

// Candidate is one valid placement of a part.
type Candidate struct {
	Placement board.Placement
	Pins      []board.Hole
	Centroid  Point
}

// Candidates enumerates every valid placement of a part: each origin on the
// board times each rotation (all four when allowRotate, otherwise only the
// part's current one). Placements with a pin off the board or on a fixed
// hole are rejected. Order is rotation, then row, then column.
func Candidates(b board.Board, part board.Part, allowRotate bool, fixed map[board.Hole]bool) []Candidate {
	rotations := []board.Rotation{part.Placement.Rotation.Normalize()}
	if allowRotate {
		rotations = board.Rotations
	}

	var out []Candidate
	for _, rot := range rotations {
		for y := 0; y < b.Height; y++ {
			for x := 0; x < b.Width; x++ {
				pl := board.Placement{
					Origin:   board.Hole{X: x, Y: y},
					Rotation: rot,
					Flip:     part.Placement.Flip,
				}
				pins := footprint.Holes(part.Kind, part.Footprint, pl)
				if !validPins(b, pins, fixed) {
					continue
				}
				out = append(out, Candidate{
					Placement: pl,
					Pins:      pins,
					Centroid:  centroid(pins),
				})
			}
		}
	}
	return out
}

// Preferred returns the indices of the limit candidates whose centroid is
// nearest target. Ties keep enumeration order.
func Preferred(cands []Candidate, target Point, limit int) []int {
	idx := make([]int, len(cands))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return dist2(cands[idx[a]].Centroid, target) < dist2(cands[idx[b]].Centroid, target)
	})
	if len(idx) > limit {
		idx = idx[:limit]
	}
	return idx
}

// Valid reports whether a part's placement keeps every pin on the board and
// off fixed holes.
func Valid(b board.Board, part board.Part, fixed map[board.Hole]bool) bool {
	return validPins(b, footprint.Holes(part.Kind, part.Footprint, part.Placement), fixed)
}

func validPins(b board.Board, pins []board.Hole, fixed map[board.Hole]bool) bool {
	if len(pins) == 0 {
		return false
	}
	for _, h := range pins {
		if !b.Contains(h) || fixed[h] {
			return false
		}
	}
	return true
}

func centroid(pins []board.Hole) Point {
	if len(pins) == 0 {
		return Point{}
	}
	var sx, sy int
	for _, h := range pins {
		sx += h.X
		sy += h.Y
	}
	n := float64(len(pins))
	return Point{X: float64(sx) / n, Y: float64(sy) / n}
}

func dist2(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// placementKey identifies a placement within one part's candidate list.
type placementKey struct {
	origin   board.Hole
	rotation board.Rotation
}

func keyOf(pl board.Placement) placementKey {
	return placementKey{origin: pl.Origin, rotation: pl.Rotation.Normalize()}
}
