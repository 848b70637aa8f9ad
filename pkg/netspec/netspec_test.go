package netspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

func TestParseNetsAndLabels(t *testing.T) {
	src := `
# power rails
net VCC: R1.1, R2.2 (3,4)
net "audio in": J1.T C1.+
net empty:
label GND (0,5)
label "V+" (-1, 2)
`
	spec, err := Parse(src)
	require.NoError(t, err)

	assert.Equal(t, []board.Net{
		{ID: "VCC", Name: "VCC", Terminals: []board.NetTerminal{
			board.PinTerminal("R1", "1"),
			board.PinTerminal("R2", "2"),
			board.HoleTerminal(board.Hole{X: 3, Y: 4}),
		}},
		{ID: "audio in", Name: "audio in", Terminals: []board.NetTerminal{
			board.PinTerminal("J1", "T"),
			board.PinTerminal("C1", "+"),
		}},
		{ID: "empty", Name: "empty"},
	}, spec.Nets)

	require.Len(t, spec.Labels, 2)
	assert.Equal(t, "GND", spec.Labels[0].Name)
	assert.Equal(t, board.Hole{X: 0, Y: 5}, spec.Labels[0].Anchor)
	assert.Equal(t, "V+", spec.Labels[1].Name)
	assert.Equal(t, board.Hole{X: -1, Y: 2}, spec.Labels[1].Anchor)
	assert.NotEqual(t, spec.Labels[0].ID, spec.Labels[1].ID)
}

func TestLabelIDsAreStable(t *testing.T) {
	a, err := Parse("label GND (1,1)")
	require.NoError(t, err)
	b, err := Parse("# again\nlabel GND (1,1)\n")
	require.NoError(t, err)
	assert.Equal(t, a.Labels[0].ID, b.Labels[0].ID)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		substr string
	}{
		{"duplicate net", "net A: R1.1\nnet A: R2.1", "already declared"},
		{"missing colon", "net A R1.1", "netspec"},
		{"bad hole", "net A: (1 2)", "netspec"},
		{"keyword as part", "net A: net.1", "netspec"},
		{"unknown statement", "wire A", "netspec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nets.txt")
	require.NoError(t, os.WriteFile(path, []byte("net N1: H1.1 H2.1\n"), 0o644))

	spec, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, spec.Nets, 1)
	assert.Len(t, spec.Nets[0].Terminals, 2)
}

func TestApplyTo(t *testing.T) {
	spec, err := Parse("net N: A.1 B.1\nlabel N (0,0)")
	require.NoError(t, err)
	p := &board.Project{
		Netlist: []board.Net{{ID: "old"}},
		Labels: []board.NetLabel{
			{ID: spec.Labels[0].ID, Name: "stale"},
			{ID: "keep", Name: "K"},
		},
	}

	spec.ApplyTo(p)

	require.Len(t, p.Netlist, 1)
	assert.Equal(t, "N", p.Netlist[0].ID)
	require.Len(t, p.Labels, 2)
	assert.Equal(t, "N", p.Labels[0].Name)
	assert.Equal(t, "keep", p.Labels[1].ID)
}
