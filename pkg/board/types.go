package board

import (
	"fmt"
	"strconv"
)

// Hole is one integer grid coordinate on the board.
type Hole struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Key returns the canonical string key "x,y" for a hole.
func (h Hole) Key() string {
	return strconv.Itoa(h.X) + "," + strconv.Itoa(h.Y)
}

// String implements fmt.Stringer.
func (h Hole) String() string {
	return fmt.Sprintf("(%d,%d)", h.X, h.Y)
}

// Manhattan returns the grid distance between two holes.
func (h Hole) Manhattan(o Hole) int {
	return abs(h.X-o.X) + abs(h.Y-o.Y)
}

// LabelingMode selects how rows and columns are labeled by the editor.
type LabelingMode string

const (
	LabelingNumeric      LabelingMode = "numeric"
	LabelingAlphaNumeric LabelingMode = "alpha_numeric"
)

// Board describes the perfboard grid.
type Board struct {
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Labeling LabelingMode `json:"labeling,omitempty"`
}

// Contains reports whether h lies inside the board.
func (b Board) Contains(h Hole) bool {
	return h.X >= 0 && h.X < b.Width && h.Y >= 0 && h.Y < b.Height
}

// Index maps an in-bounds hole to a dense cell index (row-major).
func (b Board) Index(h Hole) int {
	return h.Y*b.Width + h.X
}

// HoleAt is the inverse of Index.
func (b Board) HoleAt(i int) Hole {
	return Hole{X: i % b.Width, Y: i / b.Width}
}

// Cells returns the number of holes on the board.
func (b Board) Cells() int {
	return b.Width * b.Height
}

// Rotation is a quarter-turn rotation in degrees.
type Rotation int

const (
	Rot0   Rotation = 0
	Rot90  Rotation = 90
	Rot180 Rotation = 180
	Rot270 Rotation = 270
)

// Rotations lists all four rotations in enumeration order.
var Rotations = []Rotation{Rot0, Rot90, Rot180, Rot270}

// Normalize folds any multiple of 90 into [0, 360).
func (r Rotation) Normalize() Rotation {
	n := ((int(r) % 360) + 360) % 360
	return Rotation(n - n%90)
}

// Placement is a part's position on the board.
type Placement struct {
	Origin   Hole     `json:"origin"`
	Rotation Rotation `json:"rotation"`
	// Flip is stored and round-tripped but does not affect pin geometry.
	Flip bool `json:"flip,omitempty"`
}

// FootprintKind tags the Footprint variant.
type FootprintKind string

const (
	FootprintInline2     FootprintKind = "inline2"
	FootprintTO92Inline3 FootprintKind = "to92_inline3"
	FootprintFree2       FootprintKind = "free2"
	FootprintSingle      FootprintKind = "single"
	FootprintDIP         FootprintKind = "dip"
)

// DefaultDIPRowSpan is the column spacing of a DIP when none is given.
const DefaultDIPRowSpan = 3

// Footprint describes the local pin pattern of a part before rotation.
// Only the fields relevant to Kind are consulted.
type Footprint struct {
	Kind FootprintKind `json:"kind"`

	Span int `json:"span,omitempty"` // inline2
	DX   int `json:"dx,omitempty"`   // free2
	DY   int `json:"dy,omitempty"`   // free2

	Pins    int `json:"pins,omitempty"`     // dip
	RowSpan int `json:"row_span,omitempty"` // dip

	// Labels holds pinLabels (inline2, free2), pinNames (to92_inline3)
	// or the single pinLabel (single).
	Labels []string `json:"labels,omitempty"`
}

// Inline2 builds a two-pin inline footprint.
func Inline2(span int, labels ...string) Footprint {
	return Footprint{Kind: FootprintInline2, Span: span, Labels: labels}
}

// TO92Inline3 builds a three-pin TO-92 style footprint.
func TO92Inline3(names ...string) Footprint {
	return Footprint{Kind: FootprintTO92Inline3, Labels: names}
}

// Free2 builds a two-pin footprint with an arbitrary second-pin offset.
func Free2(dx, dy int, labels ...string) Footprint {
	return Footprint{Kind: FootprintFree2, DX: dx, DY: dy, Labels: labels}
}

// Single builds a one-pin footprint.
func Single(label ...string) Footprint {
	return Footprint{Kind: FootprintSingle, Labels: label}
}

// DIP builds a dual-inline footprint.
func DIP(pins, rowSpan int) Footprint {
	if rowSpan <= 0 {
		rowSpan = DefaultDIPRowSpan
	}
	return Footprint{Kind: FootprintDIP, Pins: pins, RowSpan: rowSpan}
}

// Part is a component placed on the board.
type Part struct {
	ID         string            `json:"id"`
	Ref        string            `json:"ref"`
	Kind       PartKind          `json:"kind"`
	Value      string            `json:"value,omitempty"`
	Placement  Placement         `json:"placement"`
	Footprint  Footprint         `json:"footprint"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Name returns the reference designator, falling back to the ID.
func (p Part) Name() string {
	if p.Ref != "" {
		return p.Ref
	}
	return p.ID
}

// PinRef is a resolved pin position. It is derived on demand and never stored.
type PinRef struct {
	PartID string
	PinID  string
	Label  string
	Hole   Hole
}

// TerminalKind tags the NetTerminal variant.
type TerminalKind string

const (
	TerminalPin  TerminalKind = "pin"
	TerminalHole TerminalKind = "hole"
)

// NetTerminal is one endpoint of a user-declared net.
type NetTerminal struct {
	Kind   TerminalKind `json:"kind"`
	PartID string       `json:"part_id,omitempty"`
	PinID  string       `json:"pin_id,omitempty"`
	Hole   Hole         `json:"hole,omitempty"`
}

// PinTerminal references a part pin.
func PinTerminal(partID, pinID string) NetTerminal {
	return NetTerminal{Kind: TerminalPin, PartID: partID, PinID: pinID}
}

// HoleTerminal references a bare hole.
func HoleTerminal(h Hole) NetTerminal {
	return NetTerminal{Kind: TerminalHole, Hole: h}
}

// String implements fmt.Stringer.
func (t NetTerminal) String() string {
	if t.Kind == TerminalHole {
		return t.Hole.String()
	}
	return t.PartID + "." + t.PinID
}

// Net is a user-declared set of terminals that must be connected.
type Net struct {
	ID        string        `json:"id"`
	Name      string        `json:"name,omitempty"`
	Terminals []NetTerminal `json:"terminals"`
}

// DisplayName returns the net name, falling back to the ID.
func (n Net) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// TraceKind distinguishes wires from jumpers.
type TraceKind string

const (
	TraceWire   TraceKind = "wire"
	TraceJumper TraceKind = "jumper"
)

// Layer is the board side a trace lives on.
type Layer string

const (
	LayerBottom Layer = "bottom"
	LayerTop    Layer = "top"
)

// Trace is a polyline of holes.
type Trace struct {
	ID    string    `json:"id"`
	Kind  TraceKind `json:"kind"`
	Layer Layer     `json:"layer"`
	Nodes []Hole    `json:"nodes"`
	Color string    `json:"color,omitempty"`
}

// NetLabel attaches a name to the group containing its anchor hole.
type NetLabel struct {
	ID     string `json:"id"`
	Anchor Hole   `json:"anchor"`
	Name   string `json:"name"`
	Offset *Hole  `json:"offset,omitempty"`
}

// LayoutConstraints pins parts and holes in place.
type LayoutConstraints struct {
	FixedPartIDs []string `json:"fixed_part_ids,omitempty"`
	FixedHoles   []Hole   `json:"fixed_holes,omitempty"`
}

// IsFixedPart reports whether the part with id is fixed.
func (c LayoutConstraints) IsFixedPart(id string) bool {
	for _, f := range c.FixedPartIDs {
		if f == id {
			return true
		}
	}
	return false
}

// FixedHoleSet returns the fixed holes as a set.
func (c LayoutConstraints) FixedHoleSet() map[Hole]bool {
	set := make(map[Hole]bool, len(c.FixedHoles))
	for _, h := range c.FixedHoles {
		set[h] = true
	}
	return set
}

// Project is the complete snapshot the engine operates on.
type Project struct {
	Board       Board             `json:"board"`
	Parts       []Part            `json:"parts"`
	Traces      []Trace           `json:"traces,omitempty"`
	Netlist     []Net             `json:"netlist,omitempty"`
	Labels      []NetLabel        `json:"labels,omitempty"`
	Constraints LayoutConstraints `json:"constraints"`
}

// PartByID returns the index of the part with the given id, or -1.
func (p *Project) PartByID(id string) int {
	for i := range p.Parts {
		if p.Parts[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	out.Parts = make([]Part, len(p.Parts))
	for i, part := range p.Parts {
		out.Parts[i] = part.Clone()
	}
	out.Traces = make([]Trace, len(p.Traces))
	for i, t := range p.Traces {
		t.Nodes = append([]Hole(nil), t.Nodes...)
		out.Traces[i] = t
	}
	out.Netlist = make([]Net, len(p.Netlist))
	for i, n := range p.Netlist {
		n.Terminals = append([]NetTerminal(nil), n.Terminals...)
		out.Netlist[i] = n
	}
	out.Labels = make([]NetLabel, len(p.Labels))
	for i, l := range p.Labels {
		if l.Offset != nil {
			off := *l.Offset
			l.Offset = &off
		}
		out.Labels[i] = l
	}
	out.Constraints = LayoutConstraints{
		FixedPartIDs: append([]string(nil), p.Constraints.FixedPartIDs...),
		FixedHoles:   append([]Hole(nil), p.Constraints.FixedHoles...),
	}
	return out
}

// Clone returns a deep copy of the part.
func (p Part) Clone() Part {
	out := p
	out.Footprint.Labels = append([]string(nil), p.Footprint.Labels...)
	if p.Properties != nil {
		out.Properties = make(map[string]string, len(p.Properties))
		for k, v := range p.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
