// Package footprint resolves a part's footprint and placement into absolute
// pin holes.
package footprint

import (
	"strconv"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

// Offset is a pin position relative to the part origin.
type Offset struct {
	DX, DY int
}

// LocalOffsets returns the unrotated pin offsets for a part, in pin order.
func LocalOffsets(kind board.PartKind, fp board.Footprint) []Offset {
	switch fp.Kind {
	case board.FootprintInline2:
		return []Offset{{0, 0}, {fp.Span, 0}}

	case board.FootprintTO92Inline3:
		if kind == board.KindSwitch {
			// bent lead layout
			return []Offset{{0, 0}, {1, 1}, {0, 2}}
		}
		return []Offset{{0, 0}, {1, 0}, {2, 0}}

	case board.FootprintFree2:
		return []Offset{{0, 0}, {fp.DX, fp.DY}}

	case board.FootprintSingle:
		return []Offset{{0, 0}}

	case board.FootprintDIP:
		return dipOffsets(fp.Pins, fp.RowSpan)
	}
	return nil
}

// dipOffsets numbers pins 1..n/2 down the left column and n/2+1..n back up
// the right column.
func dipOffsets(pins, rowSpan int) []Offset {
	if pins < 2 {
		return nil
	}
	if rowSpan <= 0 {
		rowSpan = board.DefaultDIPRowSpan
	}
	half := pins / 2
	out := make([]Offset, 0, half*2)
	for i := 0; i < half; i++ {
		out = append(out, Offset{0, i})
	}
	for i := half - 1; i >= 0; i-- {
		out = append(out, Offset{rowSpan, i})
	}
	return out
}

// Rotate applies a quarter-turn rotation to an offset.
func Rotate(o Offset, r board.Rotation) Offset {
	switch r.Normalize() {
	case board.Rot90:
		return Offset{-o.DY, o.DX}
	case board.Rot180:
		return Offset{-o.DX, -o.DY}
	case board.Rot270:
		return Offset{o.DY, -o.DX}
	default:
		return o
	}
}

// Labels returns the display label of every pin, in pin order.
func Labels(kind board.PartKind, fp board.Footprint, count int) []string {
	out := make([]string, count)
	var defaults []string
	if fp.Kind == board.FootprintTO92Inline3 {
		switch kind {
		case board.KindTransistor:
			defaults = []string{"E", "B", "C"}
		case board.KindPotentiometer:
			defaults = []string{"1", "2", "3"}
		case board.KindJack:
			defaults = []string{"T", "R", "S"}
		}
	}
	for i := range out {
		switch {
		case i < len(fp.Labels) && fp.Labels[i] != "":
			out[i] = fp.Labels[i]
		case i < len(defaults):
			out[i] = defaults[i]
		default:
			out[i] = strconv.Itoa(i + 1)
		}
	}
	return out
}

// Holes returns the absolute pin holes for a footprint at a placement.
func Holes(kind board.PartKind, fp board.Footprint, pl board.Placement) []board.Hole {
	offs := LocalOffsets(kind, fp)
	out := make([]board.Hole, len(offs))
	for i, o := range offs {
		r := Rotate(o, pl.Rotation)
		out[i] = board.Hole{X: pl.Origin.X + r.DX, Y: pl.Origin.Y + r.DY}
	}
	return out
}

// Pins resolves every pin of a part to its absolute hole. Pin IDs are the
// 1-based positional numbers.
func Pins(p board.Part) []board.PinRef {
	holes := Holes(p.Kind, p.Footprint, p.Placement)
	labels := Labels(p.Kind, p.Footprint, len(holes))
	out := make([]board.PinRef, len(holes))
	for i, h := range holes {
		out[i] = board.PinRef{
			PartID: p.ID,
			PinID:  strconv.Itoa(i + 1),
			Label:  labels[i],
			Hole:   h,
		}
	}
	return out
}

// Resolve finds a pin by ID, falling back to a label match.
func Resolve(p board.Part, pinID string) (board.PinRef, bool) {
	pins := Pins(p)
	for _, pin := range pins {
		if pin.PinID == pinID {
			return pin, true
		}
	}
	for _, pin := range pins {
		if pin.Label == pinID {
			return pin, true
		}
	}
	return board.PinRef{}, false
}

// PinIndex returns the positional index of a pin, or -1.
func PinIndex(p board.Part, pinID string) int {
	labels := Labels(p.Kind, p.Footprint, len(LocalOffsets(p.Kind, p.Footprint)))
	for i := range labels {
		if strconv.Itoa(i+1) == pinID {
			return i
		}
	}
	for i, l := range labels {
		if l == pinID {
			return i
		}
	}
	return -1
}
