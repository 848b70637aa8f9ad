package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

func h(x, y int) board.Hole { return board.Hole{X: x, Y: y} }

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(4)

	for i := 0; i < 4; i++ {
		assert.Equal(t, i, uf.find(i), "node %d should be its own root initially", i)
	}

	uf.union(0, 1)
	assert.Equal(t, uf.find(0), uf.find(1))
	assert.NotEqual(t, uf.find(0), uf.find(2))

	uf.union(1, 2)
	assert.Equal(t, uf.find(0), uf.find(2), "union should be transitive")

	id := uf.add()
	assert.Equal(t, 4, id)
	assert.Equal(t, id, uf.find(id))
}

func TestTraceJoinsHoles(t *testing.T) {
	p := board.Project{
		Board: board.Board{Width: 10, Height: 10},
		Traces: []board.Trace{
			{ID: "t1", Nodes: []board.Hole{h(1, 1), h(4, 1)}},
			{ID: "t2", Nodes: []board.Hole{h(4, 1), h(4, 5), h(7, 5)}},
			{ID: "t3", Nodes: []board.Hole{h(0, 9), h(2, 9)}},
		},
	}

	idx := ComputeIndex(p)

	assert.True(t, idx.Connected(h(1, 1), h(7, 5)))
	assert.False(t, idx.Connected(h(1, 1), h(0, 9)))

	netID, ok := idx.NetOf(h(7, 5))
	require.True(t, ok)
	assert.Equal(t, "net:1,1", netID)
	assert.Equal(t, []string{"1,1", "4,1", "4,5", "7,5"}, idx.NetIDToHoles[netID])
	assert.Equal(t, []string{"net:0,9", "net:1,1"}, idx.NetIDs())
}

func TestNetIDIsLexicographicallySmallestKey(t *testing.T) {
	// "10,0" sorts before "2,0"
	p := board.Project{
		Board:  board.Board{Width: 12, Height: 2},
		Traces: []board.Trace{{ID: "t", Nodes: []board.Hole{h(2, 0), h(10, 0)}}},
	}
	id, _ := ComputeIndex(p).NetOf(h(2, 0))
	assert.Equal(t, "net:10,0", id)
}

func TestStableAcrossOrdering(t *testing.T) {
	a := board.Project{
		Board: board.Board{Width: 10, Height: 10},
		Traces: []board.Trace{
			{ID: "a", Nodes: []board.Hole{h(5, 5), h(5, 8)}},
			{ID: "b", Nodes: []board.Hole{h(5, 8), h(2, 8)}},
		},
		Labels: []board.NetLabel{{ID: "l", Anchor: h(2, 8), Name: "OUT"}},
	}
	b := a.Clone()
	b.Traces[0], b.Traces[1] = b.Traces[1], b.Traces[0]
	b.Traces[0].Nodes[0], b.Traces[0].Nodes[1] = b.Traces[0].Nodes[1], b.Traces[0].Nodes[0]

	ia, ib := ComputeIndex(a), ComputeIndex(b)
	assert.Equal(t, ia, ib, "index differs with trace order")
	assert.Equal(t, ia, ComputeIndex(a), "recomputation is not stable")
}

func TestPinsAndLabelsAreSeeded(t *testing.T) {
	p := board.Project{
		Board: board.Board{Width: 10, Height: 10},
		Parts: []board.Part{{
			ID: "R1", Kind: board.KindResistor, Footprint: board.Inline2(3),
			Placement: board.Placement{Origin: h(1, 1)},
		}},
		Traces: []board.Trace{{ID: "t", Nodes: []board.Hole{h(4, 1), h(4, 4)}}},
		Labels: []board.NetLabel{{ID: "l", Anchor: h(8, 8), Name: "GND"}},
	}

	idx := ComputeIndex(p)

	_, ok := idx.NetOf(h(1, 1))
	assert.True(t, ok, "pin 1 hole should be seeded")
	assert.True(t, idx.Connected(h(4, 1), h(4, 4)), "pin 2 should join the trace touching it")
	assert.False(t, idx.Connected(h(1, 1), h(4, 1)), "pins of one part are not joined without a trace")
	assert.Equal(t, "GND", idx.NetIDToName["net:8,8"])
	assert.Empty(t, idx.NetIDToConflicts["net:8,8"])
}

func TestLabelConflicts(t *testing.T) {
	p := board.Project{
		Board:  board.Board{Width: 10, Height: 10},
		Traces: []board.Trace{{ID: "t", Nodes: []board.Hole{h(0, 0), h(0, 5)}}},
		Labels: []board.NetLabel{
			{ID: "a", Anchor: h(0, 0), Name: "VCC"},
			{ID: "b", Anchor: h(0, 5), Name: "5V"},
			{ID: "c", Anchor: h(0, 5), Name: "VCC"},
		},
	}

	idx := ComputeIndex(p)
	netID := "net:0,0"

	assert.Equal(t, "5V", idx.NetIDToName[netID])
	assert.Equal(t, []string{"5V", "VCC"}, idx.NetIDToConflicts[netID])
}

func TestEmptyProject(t *testing.T) {
	idx := ComputeIndex(board.Project{Board: board.Board{Width: 3, Height: 3}})
	assert.Empty(t, idx.HoleToNetID)
	assert.Empty(t, idx.NetIDs())
}
