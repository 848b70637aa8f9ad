package footprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

func holes(pins []board.PinRef) []board.Hole {
	out := make([]board.Hole, len(pins))
	for i, p := range pins {
		out[i] = p.Hole
	}
	return out
}

func TestPinsByFootprint(t *testing.T) {
	origin := board.Placement{Origin: board.Hole{X: 5, Y: 5}}

	tests := []struct {
		name string
		part board.Part
		want []board.Hole
	}{
		{
			name: "inline2",
			part: board.Part{ID: "R1", Kind: board.KindResistor, Footprint: board.Inline2(4), Placement: origin},
			want: []board.Hole{{5, 5}, {9, 5}},
		},
		{
			name: "to92 straight",
			part: board.Part{ID: "Q1", Kind: board.KindTransistor, Footprint: board.TO92Inline3(), Placement: origin},
			want: []board.Hole{{5, 5}, {6, 5}, {7, 5}},
		},
		{
			name: "to92 bent switch",
			part: board.Part{ID: "S1", Kind: board.KindSwitch, Footprint: board.TO92Inline3(), Placement: origin},
			want: []board.Hole{{5, 5}, {6, 6}, {5, 7}},
		},
		{
			name: "free2 diagonal",
			part: board.Part{ID: "X1", Kind: board.KindGeneric, Footprint: board.Free2(2, 3), Placement: origin},
			want: []board.Hole{{5, 5}, {7, 8}},
		},
		{
			name: "single",
			part: board.Part{ID: "H1", Kind: board.KindHeader, Footprint: board.Single(), Placement: origin},
			want: []board.Hole{{5, 5}},
		},
		{
			name: "dip8",
			part: board.Part{ID: "U1", Kind: board.KindIC, Footprint: board.DIP(8, 3), Placement: origin},
			want: []board.Hole{{5, 5}, {5, 6}, {5, 7}, {5, 8}, {8, 8}, {8, 7}, {8, 6}, {8, 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, holes(Pins(tt.part)))
		})
	}
}

func TestRotation(t *testing.T) {
	part := board.Part{ID: "R1", Kind: board.KindResistor, Footprint: board.Inline2(2)}

	tests := []struct {
		rot  board.Rotation
		want board.Hole
	}{
		{board.Rot0, board.Hole{X: 12, Y: 10}},
		{board.Rot90, board.Hole{X: 10, Y: 12}},
		{board.Rot180, board.Hole{X: 8, Y: 10}},
		{board.Rot270, board.Hole{X: 10, Y: 8}},
	}

	for _, tt := range tests {
		part.Placement = board.Placement{Origin: board.Hole{X: 10, Y: 10}, Rotation: tt.rot}
		pins := Pins(part)
		require.Len(t, pins, 2)
		assert.Equal(t, board.Hole{X: 10, Y: 10}, pins[0].Hole, "rotation %d moved the origin pin", tt.rot)
		assert.Equal(t, tt.want, pins[1].Hole, "rotation %d", tt.rot)
	}
}

func TestFlipDoesNotChangeGeometry(t *testing.T) {
	part := board.Part{ID: "U1", Kind: board.KindIC, Footprint: board.DIP(8, 3),
		Placement: board.Placement{Origin: board.Hole{X: 1, Y: 1}, Rotation: board.Rot90}}
	flipped := part
	flipped.Placement.Flip = true

	assert.Equal(t, Pins(part), Pins(flipped))
}

func TestDefaultLabels(t *testing.T) {
	tests := []struct {
		kind board.PartKind
		fp   board.Footprint
		want []string
	}{
		{board.KindTransistor, board.TO92Inline3(), []string{"E", "B", "C"}},
		{board.KindPotentiometer, board.TO92Inline3(), []string{"1", "2", "3"}},
		{board.KindJack, board.TO92Inline3(), []string{"T", "R", "S"}},
		{board.KindSwitch, board.TO92Inline3(), []string{"1", "2", "3"}},
		{board.KindTransistor, board.TO92Inline3("C", "B", "E"), []string{"C", "B", "E"}},
		{board.KindDiode, board.Inline2(4, "A", "K"), []string{"A", "K"}},
		{board.KindResistor, board.Inline2(4), []string{"1", "2"}},
	}

	for _, tt := range tests {
		part := board.Part{ID: "P", Kind: tt.kind, Footprint: tt.fp}
		pins := Pins(part)
		var got []string
		for _, p := range pins {
			got = append(got, p.Label)
		}
		assert.Equal(t, tt.want, got, "%s labels", tt.kind)
	}
}

func TestResolveByIDOrLabel(t *testing.T) {
	q := board.Part{ID: "Q1", Kind: board.KindTransistor, Footprint: board.TO92Inline3(),
		Placement: board.Placement{Origin: board.Hole{X: 0, Y: 0}}}

	pin, ok := Resolve(q, "2")
	require.True(t, ok)
	assert.Equal(t, "B", pin.Label)

	pin, ok = Resolve(q, "C")
	require.True(t, ok)
	assert.Equal(t, "3", pin.PinID)

	_, ok = Resolve(q, "G")
	assert.False(t, ok)

	assert.Equal(t, 0, PinIndex(q, "E"))
	assert.Equal(t, -1, PinIndex(q, "9"))
}

func TestConvertPartRegeneratesFootprint(t *testing.T) {
	r := board.Part{
		ID: "p7", Ref: "R3", Kind: board.KindResistor, Value: "4k7",
		Placement: board.Placement{Origin: board.Hole{X: 3, Y: 2}, Rotation: board.Rot90},
		Footprint: board.Inline2(4),
	}

	c := board.ConvertPart(r, board.KindElectrolytic)

	require.Equal(t, r.ID, c.ID)
	assert.Equal(t, r.Ref, c.Ref)
	assert.Equal(t, r.Value, c.Value)
	assert.Equal(t, r.Placement, c.Placement)

	pins := Pins(c)
	require.Len(t, pins, 2)
	assert.Equal(t, "+", pins[0].Label)
	assert.Equal(t, "-", pins[1].Label)
	assert.Equal(t, board.Hole{X: 3, Y: 4}, pins[1].Hole, "span not regenerated")
}
