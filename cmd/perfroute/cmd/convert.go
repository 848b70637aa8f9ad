package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePerf/pkg/board"
)

func (a *app) convertCmd() *cobra.Command {
	var output string
	c := &cobra.Command{
		Use:   "convert <project> <part-id> <kind>",
		Short: "Change the kind of a part",
		Long: `Convert a part to another kind. The id, reference, value and placement
are kept; the footprint and pin names are reset to the new kind's defaults.

Examples:
  perfroute convert board.perf R3 ceramic -o board.perf`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := board.ParsePartKind(args[2])
			if err != nil {
				return err
			}
			p, err := a.loadProject(args[0], "")
			if err != nil {
				return err
			}
			i := p.PartByID(args[1])
			if i < 0 {
				return fmt.Errorf("no part with id %q", args[1])
			}
			before := p.Parts[i].Kind
			p.Parts[i] = board.ConvertPart(p.Parts[i], kind)
			a.logger.Debug("part converted", "id", args[1], "from", before, "to", kind)
			return writeProject(cmd, p, output)
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "", "output project file (default: stdout)")
	return c
}
