// Package projectfile reads and writes perfboard project snapshots.
//
// A snapshot is a single s-expression rooted at perfboard_project:
//
//	(perfboard_project (version 1)
//	  (board (width 24) (height 18) (labeling alpha_numeric))
//	  (part (id "R1") (ref "R1") (kind resistor) (value "10k")
//	        (at 2 3 90) (flip no)
//	        (footprint inline2 (span 4) (labels "1" "2")))
//	  (net (id "n1") (name "VCC") (pin "R1" "1") (hole 3 4))
//	  (trace (id "t1") (kind wire) (layer bottom) (nodes (xy 0 0) (xy 3 0)))
//	  (label (id "l1") (at 3 4) (name "VCC") (offset 1 0))
//	  (constraints (fixed_part "R2") (fixed_hole 1 0)))
//
// Lines starting with # are comments. Unknown child lists are skipped.
package projectfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

const (
	rootTag = "perfboard_project"
	// Version is the snapshot format version written by Write.
	Version = 1
)

var (
	// ErrNotProject is returned when the input is not a project snapshot.
	ErrNotProject = errors.New("projectfile: not a perfboard project")
	// ErrUnsupportedVersion is returned for snapshots of an unknown version.
	ErrUnsupportedVersion = errors.New("projectfile: unsupported version")
)

// ParseFile reads a project snapshot from disk.
func ParseFile(path string) (*board.Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("projectfile: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a project snapshot.
func Parse(r io.Reader) (*board.Project, error) {
	nodes, err := newParser(r).parseAll()
	if err != nil {
		return nil, fmt.Errorf("projectfile: %w", err)
	}
	if len(nodes) != 1 || nodes[0].head() != rootTag {
		return nil, ErrNotProject
	}
	root := nodes[0]

	if v, ok := root.find("version"); ok {
		n, err := v.number(0)
		if err != nil {
			return nil, fmt.Errorf("projectfile: version: %w", err)
		}
		if n != Version {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, n)
		}
	}

	p := &board.Project{Board: board.Board{Labeling: board.LabelingNumeric}}
	if b, ok := root.find("board"); ok {
		if err := decodeBoard(b, &p.Board); err != nil {
			return nil, fmt.Errorf("projectfile: board: %w", err)
		}
	}
	for i, n := range root.findAll("part") {
		part, err := decodePart(n)
		if err != nil {
			return nil, fmt.Errorf("projectfile: part %d: %w", i+1, err)
		}
		p.Parts = append(p.Parts, part)
	}
	for i, n := range root.findAll("net") {
		net, err := decodeNet(n)
		if err != nil {
			return nil, fmt.Errorf("projectfile: net %d: %w", i+1, err)
		}
		p.Netlist = append(p.Netlist, net)
	}
	for i, n := range root.findAll("trace") {
		t, err := decodeTrace(n)
		if err != nil {
			return nil, fmt.Errorf("projectfile: trace %d: %w", i+1, err)
		}
		p.Traces = append(p.Traces, t)
	}
	for i, n := range root.findAll("label") {
		l, err := decodeLabel(n)
		if err != nil {
			return nil, fmt.Errorf("projectfile: label %d: %w", i+1, err)
		}
		p.Labels = append(p.Labels, l)
	}
	if c, ok := root.find("constraints"); ok {
		if err := decodeConstraints(c, &p.Constraints); err != nil {
			return nil, fmt.Errorf("projectfile: constraints: %w", err)
		}
	}
	return p, nil
}

func decodeBoard(n *node, b *board.Board) error {
	var err error
	if w, ok := n.find("width"); ok {
		if b.Width, err = w.number(0); err != nil {
			return err
		}
	}
	if h, ok := n.find("height"); ok {
		if b.Height, err = h.number(0); err != nil {
			return err
		}
	}
	if l, ok := n.find("labeling"); ok {
		mode, err := l.symbol(0)
		if err != nil {
			return err
		}
		switch board.LabelingMode(mode) {
		case board.LabelingNumeric, board.LabelingAlphaNumeric:
			b.Labeling = board.LabelingMode(mode)
		default:
			return fmt.Errorf("line %d: unknown labeling %q", l.line, mode)
		}
	}
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("line %d: negative dimensions %dx%d", n.line, b.Width, b.Height)
	}
	return nil
}

func decodePart(n *node) (board.Part, error) {
	var part board.Part
	var err error
	if part.ID, err = requiredText(n, "id"); err != nil {
		return part, err
	}
	part.Ref, _ = optionalText(n, "ref")
	part.Value, _ = optionalText(n, "value")

	kind, err := requiredSymbol(n, "kind")
	if err != nil {
		return part, err
	}
	if part.Kind, err = board.ParsePartKind(kind); err != nil {
		return part, err
	}

	if at, ok := n.find("at"); ok {
		if part.Placement.Origin, err = hole(at, 0); err != nil {
			return part, err
		}
		if len(at.args()) > 2 {
			rot, err := at.number(2)
			if err != nil {
				return part, err
			}
			if rot%90 != 0 {
				return part, fmt.Errorf("line %d: rotation %d is not a quarter turn", at.line, rot)
			}
			part.Placement.Rotation = board.Rotation(rot).Normalize()
		}
	}
	if f, ok := n.find("flip"); ok {
		v, err := f.symbol(0)
		if err != nil {
			return part, err
		}
		part.Placement.Flip = v == "yes"
	}

	part.Footprint = board.DefaultFootprint(part.Kind)
	if fp, ok := n.find("footprint"); ok {
		if part.Footprint, err = decodeFootprint(fp); err != nil {
			return part, err
		}
	}

	for _, prop := range n.findAll("property") {
		k, err := prop.text(0)
		if err != nil {
			return part, err
		}
		v, err := prop.text(1)
		if err != nil {
			return part, err
		}
		if part.Properties == nil {
			part.Properties = make(map[string]string)
		}
		part.Properties[k] = v
	}
	return part, nil
}

func decodeFootprint(n *node) (board.Footprint, error) {
	kind, err := n.symbol(0)
	if err != nil {
		return board.Footprint{}, err
	}
	fp := board.Footprint{Kind: board.FootprintKind(kind)}
	fields := []struct {
		key string
		dst *int
	}{
		{"span", &fp.Span},
		{"dx", &fp.DX},
		{"dy", &fp.DY},
		{"pins", &fp.Pins},
		{"row_span", &fp.RowSpan},
	}
	switch fp.Kind {
	case board.FootprintInline2, board.FootprintTO92Inline3, board.FootprintFree2,
		board.FootprintSingle, board.FootprintDIP:
	default:
		return fp, fmt.Errorf("line %d: unknown footprint %q", n.line, kind)
	}
	for _, field := range fields {
		if f, ok := n.find(field.key); ok {
			if *field.dst, err = f.number(0); err != nil {
				return fp, err
			}
		}
	}
	if l, ok := n.find("labels"); ok {
		if fp.Labels, err = l.texts(); err != nil {
			return fp, err
		}
	}
	if fp.Kind == board.FootprintDIP && fp.RowSpan <= 0 {
		fp.RowSpan = board.DefaultDIPRowSpan
	}
	return fp, nil
}

func decodeNet(n *node) (board.Net, error) {
	var net board.Net
	var err error
	if net.ID, err = requiredText(n, "id"); err != nil {
		return net, err
	}
	net.Name, _ = optionalText(n, "name")
	for _, c := range n.args() {
		switch c.head() {
		case "pin":
			part, err := c.text(0)
			if err != nil {
				return net, err
			}
			pin, err := c.text(1)
			if err != nil {
				return net, err
			}
			net.Terminals = append(net.Terminals, board.PinTerminal(part, pin))
		case "hole":
			h, err := hole(c, 0)
			if err != nil {
				return net, err
			}
			net.Terminals = append(net.Terminals, board.HoleTerminal(h))
		}
	}
	return net, nil
}

func decodeTrace(n *node) (board.Trace, error) {
	t := board.Trace{Kind: board.TraceWire, Layer: board.LayerBottom}
	var err error
	if t.ID, err = requiredText(n, "id"); err != nil {
		return t, err
	}
	k, ok, err := optionalSymbol(n, "kind")
	if err != nil {
		return t, err
	}
	if ok {
		switch board.TraceKind(k) {
		case board.TraceWire, board.TraceJumper:
			t.Kind = board.TraceKind(k)
		default:
			return t, fmt.Errorf("line %d: unknown trace kind %q", n.line, k)
		}
	}
	l, ok, err := optionalSymbol(n, "layer")
	if err != nil {
		return t, err
	}
	if ok {
		switch board.Layer(l) {
		case board.LayerBottom, board.LayerTop:
			t.Layer = board.Layer(l)
		default:
			return t, fmt.Errorf("line %d: unknown layer %q", n.line, l)
		}
	}
	t.Color, _ = optionalText(n, "color")
	if nodes, ok := n.find("nodes"); ok {
		for _, xy := range nodes.findAll("xy") {
			h, err := hole(xy, 0)
			if err != nil {
				return t, err
			}
			t.Nodes = append(t.Nodes, h)
		}
	}
	return t, nil
}

func decodeLabel(n *node) (board.NetLabel, error) {
	var l board.NetLabel
	var err error
	if l.ID, err = requiredText(n, "id"); err != nil {
		return l, err
	}
	if l.Name, err = requiredText(n, "name"); err != nil {
		return l, err
	}
	at, ok := n.find("at")
	if !ok {
		return l, fmt.Errorf("line %d: missing (at)", n.line)
	}
	if l.Anchor, err = hole(at, 0); err != nil {
		return l, err
	}
	if off, ok := n.find("offset"); ok {
		h, err := hole(off, 0)
		if err != nil {
			return l, err
		}
		l.Offset = &h
	}
	return l, nil
}

func decodeConstraints(n *node, c *board.LayoutConstraints) error {
	for _, f := range n.findAll("fixed_part") {
		id, err := f.text(0)
		if err != nil {
			return err
		}
		c.FixedPartIDs = append(c.FixedPartIDs, id)
	}
	for _, f := range n.findAll("fixed_hole") {
		h, err := hole(f, 0)
		if err != nil {
			return err
		}
		c.FixedHoles = append(c.FixedHoles, h)
	}
	return nil
}

func hole(n *node, i int) (board.Hole, error) {
	x, err := n.number(i)
	if err != nil {
		return board.Hole{}, err
	}
	y, err := n.number(i + 1)
	if err != nil {
		return board.Hole{}, err
	}
	return board.Hole{X: x, Y: y}, nil
}

func requiredText(n *node, key string) (string, error) {
	c, ok := n.find(key)
	if !ok {
		return "", fmt.Errorf("line %d: missing (%s)", n.line, key)
	}
	return c.text(0)
}

func requiredSymbol(n *node, key string) (string, error) {
	c, ok := n.find(key)
	if !ok {
		return "", fmt.Errorf("line %d: missing (%s)", n.line, key)
	}
	return c.symbol(0)
}

func optionalSymbol(n *node, key string) (string, bool, error) {
	c, ok := n.find(key)
	if !ok {
		return "", false, nil
	}
	s, err := c.symbol(0)
	return s, err == nil, err
}

func optionalText(n *node, key string) (string, bool) {
	c, ok := n.find(key)
	if !ok {
		return "", false
	}
	s, err := c.text(0)
	return s, err == nil
}
