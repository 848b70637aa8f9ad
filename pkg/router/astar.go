package router

import (
	"container/heap"
	"math"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

// Directions on the 4-connected grid. noDir marks a search source.
const (
	dirEast = iota
	dirSouth
	dirWest
	dirNorth
	noDir
	dirStates
)

var (
	stepX = [4]int{1, 0, -1, 0}
	stepY = [4]int{0, 1, 0, -1}
)

// grid is the cost surface one A* search runs on.
type grid struct {
	board   board.Board
	blocked []bool    // hard obstacles for the current net
	occ     []int     // nets already occupying each cell this pass
	history []float64 // accumulated congestion cost

	present     float64
	historyW    float64
	turnPenalty float64
}

// stepCost is the price of entering cell c with direction nd after arriving
// with direction d.
func (g *grid) stepCost(c, d, nd int) float64 {
	cost := 1 + g.present*float64(g.occ[c]) + g.history[c]*g.historyW
	if d != noDir && d != nd {
		cost += g.turnPenalty
	}
	return cost
}

// search is a multi-source, multi-target A* from every cell of the growing
// tree to the nearest remaining terminal. It returns the cell path from a
// tree cell to the reached target.
func (g *grid) search(tree []int, targets []board.Hole, isTarget []bool) ([]int, bool) {
	cells := g.board.Cells()
	gScore := make([]float64, cells*dirStates)
	parent := make([]int32, cells*dirStates)
	closed := make([]bool, cells*dirStates)
	for i := range gScore {
		gScore[i] = math.Inf(1)
		parent[i] = -1
	}

	h := func(c int) float64 {
		at := g.board.HoleAt(c)
		best := math.MaxInt
		for _, t := range targets {
			if d := at.Manhattan(t); d < best {
				best = d
			}
		}
		return float64(best)
	}

	pq := &stateQueue{}
	seq := 0
	for _, c := range tree {
		s := c*dirStates + noDir
		gScore[s] = 0
		heap.Push(pq, &stateItem{state: s, f: h(c), seq: seq})
		seq++
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*stateItem)
		s := item.state
		if closed[s] {
			continue
		}
		closed[s] = true

		c, d := s/dirStates, s%dirStates
		if isTarget[c] {
			return reconstruct(parent, s), true
		}

		at := g.board.HoleAt(c)
		for nd := 0; nd < 4; nd++ {
			next := board.Hole{X: at.X + stepX[nd], Y: at.Y + stepY[nd]}
			if !g.board.Contains(next) {
				continue
			}
			nc := g.board.Index(next)
			if g.blocked[nc] && !isTarget[nc] {
				continue
			}
			ns := nc*dirStates + nd
			if closed[ns] {
				continue
			}
			tentative := gScore[s] + g.stepCost(nc, d, nd)
			if tentative < gScore[ns] {
				gScore[ns] = tentative
				parent[ns] = int32(s)
				heap.Push(pq, &stateItem{state: ns, f: tentative + h(nc), seq: seq})
				seq++
			}
		}
	}
	return nil, false
}

func reconstruct(parent []int32, s int) []int {
	var path []int
	for s >= 0 {
		path = append(path, s/dirStates)
		s = int(parent[s])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// stateItem is a node in the A* priority queue.
type stateItem struct {
	state int
	f     float64
	seq   int
	index int
}

// stateQueue implements heap.Interface; ties pop in insertion order.
type stateQueue []*stateItem

func (pq stateQueue) Len() int { return len(pq) }
func (pq stateQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}
func (pq stateQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *stateQueue) Push(x interface{}) {
	item := x.(*stateItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *stateQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}
