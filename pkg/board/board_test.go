package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoleKeyAndDistance(t *testing.T) {
	h := Hole{X: 12, Y: -3}
	assert.Equal(t, "12,-3", h.Key())
	assert.Equal(t, "(12,-3)", h.String())
	assert.Equal(t, 6, h.Manhattan(Hole{X: 10, Y: 1}))
}

func TestBoardIndexRoundTrip(t *testing.T) {
	b := Board{Width: 7, Height: 4}
	require.Equal(t, 28, b.Cells())
	for i := 0; i < b.Cells(); i++ {
		h := b.HoleAt(i)
		require.True(t, b.Contains(h), "HoleAt(%d) = %v is off the board", i, h)
		require.Equal(t, i, b.Index(h))
	}

	for _, h := range []Hole{{-1, 0}, {0, -1}, {7, 0}, {0, 4}} {
		assert.False(t, b.Contains(h), "Contains(%v)", h)
	}
}

func TestRotationNormalize(t *testing.T) {
	tests := []struct {
		in   Rotation
		want Rotation
	}{
		{0, Rot0},
		{90, Rot90},
		{360, Rot0},
		{450, Rot90},
		{-90, Rot270},
		{-180, Rot180},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize(), "Rotation(%d)", tt.in)
	}
}

func TestParsePartKind(t *testing.T) {
	for _, k := range PartKinds {
		got, err := ParsePartKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParsePartKind("capacitor ")
	assert.Error(t, err)
}

func TestProjectCloneIsDeep(t *testing.T) {
	off := Hole{X: 1, Y: 1}
	p := Project{
		Parts: []Part{{
			ID:         "r1",
			Footprint:  Inline2(4, "a", "b"),
			Properties: map[string]string{"tol": "1%"},
		}},
		Traces:  []Trace{{ID: "t", Nodes: []Hole{{0, 0}, {1, 0}}}},
		Netlist: []Net{{ID: "n", Terminals: []NetTerminal{PinTerminal("r1", "1")}}},
		Labels:  []NetLabel{{ID: "l", Offset: &off}},
		Constraints: LayoutConstraints{
			FixedPartIDs: []string{"r1"},
			FixedHoles:   []Hole{{2, 2}},
		},
	}

	c := p.Clone()
	c.Parts[0].Footprint.Labels[0] = "x"
	c.Parts[0].Properties["tol"] = "5%"
	c.Traces[0].Nodes[0] = Hole{X: 9, Y: 9}
	c.Netlist[0].Terminals[0].PinID = "2"
	c.Labels[0].Offset.X = 5
	c.Constraints.FixedHoles[0] = Hole{}

	assert.Equal(t, "a", p.Parts[0].Footprint.Labels[0], "footprint labels shared with clone")
	assert.Equal(t, "1%", p.Parts[0].Properties["tol"], "properties shared with clone")
	assert.Equal(t, Hole{}, p.Traces[0].Nodes[0], "trace nodes shared with clone")
	assert.Equal(t, "1", p.Netlist[0].Terminals[0].PinID, "net terminals shared with clone")
	assert.Equal(t, 1, off.X, "label offset shared with clone")
	assert.Equal(t, Hole{2, 2}, p.Constraints.FixedHoles[0], "constraints shared with clone")
}

func TestLookups(t *testing.T) {
	p := Project{Parts: []Part{{ID: "a"}, {ID: "b", Ref: "R2"}}}
	assert.Equal(t, 1, p.PartByID("b"))
	assert.Equal(t, -1, p.PartByID("z"))
	assert.Equal(t, "a", p.Parts[0].Name())
	assert.Equal(t, "R2", p.Parts[1].Name())
	assert.Equal(t, "n1", Net{ID: "n1"}.DisplayName())
	assert.Equal(t, "VCC", Net{ID: "n1", Name: "VCC"}.DisplayName())

	c := LayoutConstraints{FixedPartIDs: []string{"a"}, FixedHoles: []Hole{{1, 2}}}
	assert.True(t, c.IsFixedPart("a"))
	assert.False(t, c.IsFixedPart("b"))
	assert.True(t, c.FixedHoleSet()[Hole{1, 2}])
}
