package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/placement"
)

// placeFlags are shared by place and autolayout.
type placeFlags struct {
	output     string
	nets       string
	seed       uint32
	iterations int
	restarts   int
	noRotate   bool
}

func addPlaceFlags(c *cobra.Command, f *placeFlags) {
	c.Flags().StringVarP(&f.output, "output", "o", "", "output project file (default: stdout)")
	c.Flags().StringVar(&f.nets, "nets", "", "netlist file replacing the project's nets")
	c.Flags().Uint32Var(&f.seed, "seed", 0, "optimizer seed (default: derived from the project)")
	c.Flags().IntVar(&f.iterations, "iterations", placement.DefaultIterations, "annealing steps per restart")
	c.Flags().IntVar(&f.restarts, "restarts", placement.DefaultRestarts, "number of start configurations")
	c.Flags().BoolVar(&f.noRotate, "no-rotate", false, "keep each part at its current rotation")
}

// placementOptions layers explicitly set flags over the configuration.
func (a *app) placementOptions(cmd *cobra.Command, f *placeFlags) *placement.Options {
	o := a.cfg.PlacementOptions(a.logger)
	flags := cmd.Flags()
	if flags.Changed("seed") {
		seed := f.seed
		o.Seed = &seed
	}
	if flags.Changed("iterations") {
		o.Iterations = f.iterations
	}
	if flags.Changed("restarts") {
		o.Restarts = f.restarts
	}
	if f.noRotate {
		o.AllowRotate = false
	}
	o.Validate()
	return o
}

func (a *app) placeCmd() *cobra.Command {
	var f placeFlags
	c := &cobra.Command{
		Use:   "place <project>",
		Short: "Optimize part placement",
		Long: `Reposition every movable part to shorten nets and avoid collisions.

Fixed parts and fixed holes from the project's constraints are respected.
Runs are deterministic for a given project and seed.

Examples:
  perfroute place board.perf -o placed.perf
  perfroute place board.perf --seed 42 --restarts 8 --no-rotate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(args[0], f.nets)
			if err != nil {
				return err
			}
			res := placement.Optimize(cmd.Context(), *p, a.placementOptions(cmd, &f))

			stderr := cmd.ErrOrStderr()
			printWarnings(stderr, res.Warnings)
			fmt.Fprintf(stderr, "Placement cost %.2f -> %.2f (seed %d)\n", res.BaselineCost, res.BestCost, res.Seed)
			return writeProject(cmd, &res.Project, f.output)
		},
	}
	addPlaceFlags(c, &f)
	return c
}
