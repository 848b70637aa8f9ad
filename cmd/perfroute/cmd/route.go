package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/router"
)

func (a *app) routeCmd() *cobra.Command {
	var output, nets string
	c := &cobra.Command{
		Use:   "route <project>",
		Short: "Route wires for every net",
		Long: `Route every net of the project on the bottom layer.

Existing traces are replaced only when all nets route without sharing a
hole. Otherwise nothing is written and the command fails.

Examples:
  perfroute route placed.perf -o routed.perf
  perfroute route placed.perf --nets nets.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args[0], nets)
			if err != nil {
				return err
			}
			res := router.Route(cmd.Context(), *p, a.cfg.RouterOptions(a.logger))

			stderr := cmd.ErrOrStderr()
			printRouteSummary(stderr, res)
			printWarnings(stderr, res.Warnings)

			routed, ok := router.Apply(*p, res)
			if !ok {
				return incompleteError(res)
			}
			return writeProject(cmd, &routed, output)
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "", "output project file (default: stdout)")
	c.Flags().StringVar(&nets, "nets", "", "netlist file replacing the project's nets")
	return c
}
