package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/connectivity"
)

func (a *app) netsCmd() *cobra.Command {
	var nets string
	c := &cobra.Command{
		Use:   "nets <project>",
		Short: "Show the connectivity derived from traces, pins and labels",
		Long: `Print every connected hole group of the project with its derived id,
label name, hole count and any conflicting label names.

Examples:
  perfroute nets routed.perf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args[0], nets)
			if err != nil {
				return err
			}
			idx := connectivity.ComputeIndexContext(cmd.Context(), *p)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tHOLES\tCONFLICTS")
			for _, id := range idx.NetIDs() {
				name := idx.NetIDToName[id]
				if name == "" {
					name = "-"
				}
				conflicts := "-"
				if names := idx.NetIDToConflicts[id]; len(names) > 0 {
					conflicts = strings.Join(names, ",")
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", id, name, len(idx.NetIDToHoles[id]), conflicts)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&nets, "nets", "", "netlist file replacing the project's nets")
	return c
}
