package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTracePerf/internal/telemetry"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/projectfile"
)

const straightProject = `(perfboard_project (version 1)
  (board (width 5) (height 3))
  (net (id "sig") (hole 0 1) (hole 4 1)))
`

const blockedProject = `(perfboard_project (version 1)
  (board (width 3) (height 1))
  (net (id "vcc") (name "VCC") (hole 0 0) (hole 2 0))
  (constraints (fixed_hole 1 0)))
`

const twoPartProject = `(perfboard_project (version 1)
  (board (width 8) (height 8))
  (part (id "R1") (ref "R1") (kind resistor) (value "1k") (at 0 0))
  (part (id "C1") (ref "C1") (kind ceramic) (value "100n") (at 0 3)))
`

const twoPartNets = `
net A: R1.1 R1.2
net B: C1.1, C1.2
`

type harness struct {
	t      *testing.T
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Setenv("HOME", t.TempDir())
	return &harness{t: t, dir: t.TempDir()}
}

func (h *harness) file(name, body string) string {
	path := filepath.Join(h.dir, name)
	require.NoError(h.t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (h *harness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()
	return run(context.Background(), args, &h.stdout, &h.stderr)
}

func (h *harness) load(path string) *board.Project {
	p, err := projectfile.ParseFile(path)
	require.NoError(h.t, err)
	return p
}

func TestRouteWritesTraces(t *testing.T) {
	h := newHarness(t)
	in := h.file("straight.perf", straightProject)
	out := filepath.Join(h.dir, "routed.perf")

	require.NoError(t, h.run("route", in, "-o", out))

	p := h.load(out)
	require.Len(t, p.Traces, 1)
	assert.Equal(t, []board.Hole{{X: 0, Y: 1}, {X: 4, Y: 1}}, p.Traces[0].Nodes)
	assert.Contains(t, h.stderr.String(), "Routed 1/1 nets")
}

func TestRouteToStdout(t *testing.T) {
	h := newHarness(t)
	in := h.file("straight.perf", straightProject)

	require.NoError(t, h.run("route", in))

	p, err := projectfile.Parse(&h.stdout)
	require.NoError(t, err)
	assert.Len(t, p.Traces, 1)
}

func TestRouteIncompleteWritesNothing(t *testing.T) {
	h := newHarness(t)
	in := h.file("blocked.perf", blockedProject)
	out := filepath.Join(h.dir, "routed.perf")

	err := h.run("route", in, "-o", out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errIncomplete))
	assert.Contains(t, h.stderr.String(), "VCC is unroutable")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPlaceIsDeterministic(t *testing.T) {
	h := newHarness(t)
	in := h.file("parts.perf", twoPartProject)
	nets := h.file("nets.txt", twoPartNets)
	outA := filepath.Join(h.dir, "a.perf")
	outB := filepath.Join(h.dir, "b.perf")

	require.NoError(t, h.run("place", in, "--nets", nets, "--seed", "5", "--restarts", "2", "-o", outA))
	assert.Contains(t, h.stderr.String(), "seed 5")
	require.NoError(t, h.run("place", in, "--nets", nets, "--seed", "5", "--restarts", "2", "-o", outB))

	a, b := h.load(outA), h.load(outB)
	assert.Equal(t, a, b)
	require.Len(t, a.Netlist, 2)

	seen := make(map[board.Hole]bool)
	for _, part := range a.Parts {
		for _, pin := range footprint.Pins(part) {
			assert.True(t, a.Board.Contains(pin.Hole))
			assert.False(t, seen[pin.Hole], "pin collision at %s", pin.Hole)
			seen[pin.Hole] = true
		}
	}
}

func TestAutolayout(t *testing.T) {
	h := newHarness(t)
	in := h.file("parts.perf", twoPartProject)
	nets := h.file("nets.txt", twoPartNets)
	out := filepath.Join(h.dir, "done.perf")

	require.NoError(t, h.run("autolayout", in, "--nets", nets, "--seed", "1", "-o", out))

	p := h.load(out)
	assert.NotEmpty(t, p.Traces)
	assert.Contains(t, h.stderr.String(), "Routed 2/2 nets")
}

func TestConvertKeepsIdentity(t *testing.T) {
	h := newHarness(t)
	in := h.file("parts.perf", twoPartProject)
	out := filepath.Join(h.dir, "converted.perf")

	require.NoError(t, h.run("convert", in, "R1", "ceramic", "-o", out))

	p := h.load(out)
	r1 := p.Parts[p.PartByID("R1")]
	assert.Equal(t, board.KindCeramic, r1.Kind)
	assert.Equal(t, "1k", r1.Value)
	assert.Equal(t, board.Hole{X: 0, Y: 0}, r1.Placement.Origin)
	assert.Equal(t, board.DefaultFootprint(board.KindCeramic), r1.Footprint)

	assert.Error(t, h.run("convert", in, "R9", "ceramic"))
	assert.Error(t, h.run("convert", in, "R1", "flux"))
}

func TestNetsListsGroups(t *testing.T) {
	h := newHarness(t)
	in := h.file("labeled.perf", `(perfboard_project (version 1)
  (board (width 6) (height 2))
  (trace (id "t1") (kind wire) (layer bottom) (nodes (xy 0 0) (xy 3 0)))
  (label (id "l1") (at 3 0) (name "GND"))
  (label (id "l2") (at 0 0) (name "AGND")))
`)

	require.NoError(t, h.run("nets", in))

	out := h.stdout.String()
	assert.Contains(t, out, "net:0,0")
	assert.Contains(t, out, "AGND,GND")
}

func TestUnknownTelemetryExporter(t *testing.T) {
	h := newHarness(t)
	in := h.file("straight.perf", straightProject)

	err := h.run("--telemetry", "carrier-pigeon", "route", in)
	assert.True(t, errors.Is(err, telemetry.ErrUnknownExporter))
}

func TestMissingProject(t *testing.T) {
	h := newHarness(t)
	err := h.run("route", filepath.Join(h.dir, "nope.perf"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
