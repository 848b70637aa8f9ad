package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/netspec"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/projectfile"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/router"
)

// errIncomplete marks a routing attempt that was rejected as a whole.
var errIncomplete = errors.New("routing incomplete")

// loadProject reads a project and, when netsPath is set, replaces its
// netlist with the one declared in that file.
func (a *app) loadProject(path, netsPath string) (*board.Project, error) {
	p, err := projectfile.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if netsPath != "" {
		spec, err := netspec.ParseFile(netsPath)
		if err != nil {
			return nil, err
		}
		spec.ApplyTo(p)
	}
	a.logger.Debug("project loaded",
		"path", path, "parts", len(p.Parts), "nets", len(p.Netlist), "traces", len(p.Traces))
	return p, nil
}

// writeProject writes p to out, or to the command's stdout when out is empty.
func writeProject(cmd *cobra.Command, p *board.Project, out string) error {
	if out == "" {
		return projectfile.Write(cmd.OutOrStdout(), p)
	}
	return projectfile.WriteFile(out, p)
}

func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}

// printRouteSummary reports counts and trace length statistics.
func printRouteSummary(w io.Writer, res *router.Result) {
	fmt.Fprintf(w, "Routed %d/%d nets in %d pass(es), total length %d, overflow %d\n",
		res.RoutedNetCount, res.TotalNetCount, res.Iterations, res.Length, res.Overflow)
	if len(res.Traces) == 0 {
		return
	}
	lengths := make([]float64, len(res.Traces))
	for i, t := range res.Traces {
		for k := 1; k < len(t.Nodes); k++ {
			lengths[i] += float64(t.Nodes[k-1].Manhattan(t.Nodes[k]))
		}
	}
	if len(lengths) < 2 {
		fmt.Fprintf(w, "  1 trace, length %.0f\n", lengths[0])
		return
	}
	mean, sd := stat.MeanStdDev(lengths, nil)
	fmt.Fprintf(w, "  %d traces, mean length %.2f, stddev %.2f\n", len(lengths), mean, sd)
}

func incompleteError(res *router.Result) error {
	return fmt.Errorf("%w: %d of %d nets routed, %d shared cells",
		errIncomplete, res.RoutedNetCount, res.TotalNetCount, res.Overflow)
}
