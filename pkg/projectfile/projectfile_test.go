package projectfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

const sample = `# amplifier stage
(perfboard_project (version 1)
  (board (width 24) (height 18) (labeling alpha_numeric))
  (part (id "R1") (ref "R1") (kind resistor) (value "10k")
        (at 2 3 90) (flip no)
        (footprint inline2 (span 4) (labels "1" "2"))
        (property "tolerance" "5%"))
  (part (id "Q1") (ref "Q1") (kind transistor) (at 8 8))
  (part (id "U1") (kind ic) (at 12 2 450) (flip yes)
        (footprint dip (pins 14)))
  (net (id "n1") (name "VCC") (pin "R1" "1") (hole 3 4) (pin "Q1" "C"))
  (trace (id "t1") (kind wire) (layer bottom) (color "#c33")
         (nodes (xy 0 0) (xy 3 0)))
  (label (id "l1") (at 3 4) (name "VCC") (offset 1 0))
  (label (id "l2") (at 0 0) (name "say \"hi\""))
  (constraints (fixed_part "R2") (fixed_hole 1 0)))
`

func TestParseSample(t *testing.T) {
	p, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, board.Board{Width: 24, Height: 18, Labeling: board.LabelingAlphaNumeric}, p.Board)
	require.Len(t, p.Parts, 3)

	r1 := p.Parts[0]
	assert.Equal(t, board.KindResistor, r1.Kind)
	assert.Equal(t, "10k", r1.Value)
	assert.Equal(t, board.Placement{Origin: board.Hole{X: 2, Y: 3}, Rotation: board.Rot90}, r1.Placement)
	assert.Equal(t, "5%", r1.Properties["tolerance"])

	q1 := p.Parts[1]
	assert.Equal(t, board.DefaultFootprint(board.KindTransistor), q1.Footprint)

	u1 := p.Parts[2]
	assert.Equal(t, board.Rot90, u1.Placement.Rotation)
	assert.True(t, u1.Placement.Flip)
	assert.Equal(t, 14, u1.Footprint.Pins)
	assert.Equal(t, board.DefaultDIPRowSpan, u1.Footprint.RowSpan)

	require.Len(t, p.Netlist, 1)
	assert.Equal(t, []board.NetTerminal{
		board.PinTerminal("R1", "1"),
		board.HoleTerminal(board.Hole{X: 3, Y: 4}),
		board.PinTerminal("Q1", "C"),
	}, p.Netlist[0].Terminals)

	require.Len(t, p.Traces, 1)
	assert.Equal(t, "#c33", p.Traces[0].Color)
	assert.Len(t, p.Traces[0].Nodes, 2)

	require.Len(t, p.Labels, 2)
	require.NotNil(t, p.Labels[0].Offset)
	assert.Equal(t, board.Hole{X: 1, Y: 0}, *p.Labels[0].Offset)
	assert.Equal(t, `say "hi"`, p.Labels[1].Name)

	assert.True(t, p.Constraints.IsFixedPart("R2"))
	assert.Len(t, p.Constraints.FixedHoles, 1)
}

func TestWriteRoundTrip(t *testing.T) {
	p, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, p))
	again, err := Parse(&buf)
	require.NoError(t, err, buf.String())
	assert.Equal(t, p, again)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.perf")
	in := &board.Project{
		Board: board.Board{Width: 4, Height: 4, Labeling: board.LabelingNumeric},
		Parts: []board.Part{{
			ID: "h1", Ref: "H1", Kind: board.KindHeader,
			Footprint: board.Single(),
		}},
	}
	require.NoError(t, WriteFile(path, in))
	out, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		substr  string
	}{
		{name: "wrong root", input: "(kicad_pcb)", wantErr: ErrNotProject},
		{name: "quoted root", input: `("perfboard_project")`, wantErr: ErrNotProject},
		{name: "two roots", input: "(perfboard_project) (perfboard_project)", wantErr: ErrNotProject},
		{name: "empty", input: "", wantErr: ErrNotProject},
		{name: "future version", input: "(perfboard_project (version 7))", wantErr: ErrUnsupportedVersion},
		{name: "unterminated list", input: "(perfboard_project (board (width 3)", substr: "unexpected EOF"},
		{name: "unterminated string", input: `(perfboard_project (part (id "R1`, substr: "unterminated string"},
		{name: "stray paren", input: ")", substr: "unexpected"},
		{name: "bad number", input: "(perfboard_project (board (width wide)))", substr: "board"},
		{name: "quoted number", input: `(perfboard_project (board (width "3")))`, substr: "must not be quoted"},
		{name: "unknown kind", input: `(perfboard_project (part (id "X") (kind flux)))`, substr: "unknown part kind"},
		{name: "quoted kind", input: `(perfboard_project (part (id "X") (kind "resistor")))`, substr: "must not be quoted"},
		{name: "quoted footprint", input: `(perfboard_project (part (id "X") (kind header) (footprint "single")))`, substr: "must not be quoted"},
		{name: "quoted layer", input: `(perfboard_project (trace (id "t") (layer "top")))`, substr: "must not be quoted"},
		{name: "missing id", input: `(perfboard_project (part (kind resistor)))`, substr: "missing (id)"},
		{name: "odd rotation", input: `(perfboard_project (part (id "X") (kind header) (at 0 0 45)))`, substr: "quarter turn"},
		{name: "unknown footprint", input: `(perfboard_project (part (id "X") (kind header) (footprint qfn)))`, substr: "unknown footprint"},
		{name: "negative board", input: "(perfboard_project (board (width -1)))", substr: "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.substr != "" {
				assert.Contains(t, err.Error(), tt.substr)
			}
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "absent.perf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
