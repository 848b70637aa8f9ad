package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/placement"
	"github.com/OpenTraceLab/OpenTracePerf/pkg/router"
)

func (a *app) autolayoutCmd() *cobra.Command {
	var f placeFlags
	c := &cobra.Command{
		Use:   "autolayout <project>",
		Short: "Place parts, then route; keep the result only if routing completes",
		Long: `Run placement followed by routing as one attempt.

The optimized placement and the new traces are written together when every
net routes cleanly. If routing is incomplete the attempt is discarded, the
warnings are printed and the command fails without writing anything.

Examples:
  perfroute autolayout board.perf -o done.perf
  perfroute autolayout board.perf --nets nets.txt --seed 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args[0], f.nets)
			if err != nil {
				return err
			}
			stderr := cmd.ErrOrStderr()

			placed := placement.Optimize(cmd.Context(), *p, a.placementOptions(cmd, &f))
			printWarnings(stderr, placed.Warnings)
			fmt.Fprintf(stderr, "Placement cost %.2f -> %.2f (seed %d)\n", placed.BaselineCost, placed.BestCost, placed.Seed)

			res := router.Route(cmd.Context(), placed.Project, a.cfg.RouterOptions(a.logger))
			printRouteSummary(stderr, res)
			printWarnings(stderr, res.Warnings)

			routed, ok := router.Apply(placed.Project, res)
			if !ok {
				a.logger.Info("autolayout attempt discarded", "routed", res.RoutedNetCount, "nets", res.TotalNetCount)
				return incompleteError(res)
			}
			return writeProject(cmd, &routed, f.output)
		},
	}
	addPlaceFlags(c, &f)
	return c
}
