package projectfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

// WriteFile writes p to path, replacing any existing file.
func WriteFile(path string, p *board.Project) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("projectfile: create %s: %w", path, err)
	}
	if err := Write(f, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("projectfile: close %s: %w", path, err)
	}
	return nil
}

// Write serializes p. Parsing the output yields an equal project.
func Write(w io.Writer, p *board.Project) error {
	bw := bufio.NewWriter(w)
	e := &encoder{w: bw}

	e.line(0, "(%s (version %d)", rootTag, Version)
	labeling := p.Board.Labeling
	if labeling == "" {
		labeling = board.LabelingNumeric
	}
	e.line(1, "(board (width %d) (height %d) (labeling %s))", p.Board.Width, p.Board.Height, labeling)

	for _, part := range p.Parts {
		e.part(part)
	}
	for _, net := range p.Netlist {
		e.net(net)
	}
	for _, t := range p.Traces {
		e.trace(t)
	}
	for _, l := range p.Labels {
		e.label(l)
	}
	e.constraints(p.Constraints)
	e.raw(")\n")

	if e.err != nil {
		return fmt.Errorf("projectfile: write: %w", e.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("projectfile: write: %w", err)
	}
	return nil
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) raw(s string) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.WriteString(s)
}

func (e *encoder) line(indent int, format string, args ...any) {
	e.raw(strings.Repeat("  ", indent) + fmt.Sprintf(format, args...) + "\n")
}

func (e *encoder) part(part board.Part) {
	var b strings.Builder
	fmt.Fprintf(&b, "(part (id %s) (ref %s) (kind %s)", quote(part.ID), quote(part.Ref), part.Kind)
	if part.Value != "" {
		fmt.Fprintf(&b, " (value %s)", quote(part.Value))
	}
	pl := part.Placement
	fmt.Fprintf(&b, " (at %d %d %d) (flip %s)", pl.Origin.X, pl.Origin.Y, int(pl.Rotation), yesNo(pl.Flip))
	b.WriteString(" " + footprint(part.Footprint))

	keys := make([]string, 0, len(part.Properties))
	for k := range part.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " (property %s %s)", quote(k), quote(part.Properties[k]))
	}
	b.WriteString(")")
	e.line(1, "%s", b.String())
}

func footprint(fp board.Footprint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(footprint %s", fp.Kind)
	switch fp.Kind {
	case board.FootprintInline2:
		fmt.Fprintf(&b, " (span %d)", fp.Span)
	case board.FootprintFree2:
		fmt.Fprintf(&b, " (dx %d) (dy %d)", fp.DX, fp.DY)
	case board.FootprintDIP:
		fmt.Fprintf(&b, " (pins %d) (row_span %d)", fp.Pins, fp.RowSpan)
	}
	if len(fp.Labels) > 0 {
		b.WriteString(" (labels")
		for _, l := range fp.Labels {
			b.WriteString(" " + quote(l))
		}
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

func (e *encoder) net(net board.Net) {
	var b strings.Builder
	fmt.Fprintf(&b, "(net (id %s)", quote(net.ID))
	if net.Name != "" {
		fmt.Fprintf(&b, " (name %s)", quote(net.Name))
	}
	for _, t := range net.Terminals {
		if t.Kind == board.TerminalHole {
			fmt.Fprintf(&b, " (hole %d %d)", t.Hole.X, t.Hole.Y)
			continue
		}
		fmt.Fprintf(&b, " (pin %s %s)", quote(t.PartID), quote(t.PinID))
	}
	b.WriteString(")")
	e.line(1, "%s", b.String())
}

func (e *encoder) trace(t board.Trace) {
	var b strings.Builder
	fmt.Fprintf(&b, "(trace (id %s) (kind %s) (layer %s)", quote(t.ID), t.Kind, t.Layer)
	if t.Color != "" {
		fmt.Fprintf(&b, " (color %s)", quote(t.Color))
	}
	b.WriteString(" (nodes")
	for _, h := range t.Nodes {
		fmt.Fprintf(&b, " (xy %d %d)", h.X, h.Y)
	}
	b.WriteString("))")
	e.line(1, "%s", b.String())
}

func (e *encoder) label(l board.NetLabel) {
	var b strings.Builder
	fmt.Fprintf(&b, "(label (id %s) (at %d %d) (name %s)", quote(l.ID), l.Anchor.X, l.Anchor.Y, quote(l.Name))
	if l.Offset != nil {
		fmt.Fprintf(&b, " (offset %d %d)", l.Offset.X, l.Offset.Y)
	}
	b.WriteString(")")
	e.line(1, "%s", b.String())
}

func (e *encoder) constraints(c board.LayoutConstraints) {
	if len(c.FixedPartIDs) == 0 && len(c.FixedHoles) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("(constraints")
	for _, id := range c.FixedPartIDs {
		fmt.Fprintf(&b, " (fixed_part %s)", quote(id))
	}
	for _, h := range c.FixedHoles {
		fmt.Fprintf(&b, " (fixed_hole %d %d)", h.X, h.Y)
	}
	b.WriteString(")")
	e.line(1, "%s", b.String())
}

var quoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
