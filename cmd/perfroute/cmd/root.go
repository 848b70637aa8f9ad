package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePerf/internal/config"
	"github.com/OpenTraceLab/OpenTracePerf/internal/telemetry"
)

const version = "0.3.0"

// app carries global flags and the state set up before every command.
type app struct {
	configPath string
	verbose    bool
	telemetry  string

	cfg      config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "perfroute",
		Short: "perfroute - perfboard placement and wire routing",
		Long: `perfroute places parts on a perfboard and routes wires between them.

Projects are s-expression snapshots (see pkg/projectfile). Nets can be
declared inline in the project or in a separate netlist file.

Examples:
  perfroute place board.perf -o placed.perf --seed 7
  perfroute route placed.perf -o routed.perf
  perfroute autolayout board.perf --nets nets.txt -o done.perf
  perfroute nets routed.perf
  perfroute convert board.perf R3 ceramic -o board.perf`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (yaml, toml or json)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&a.telemetry, "telemetry", "", "telemetry exporter (none, stdout); overrides the config")

	root.AddCommand(
		a.placeCmd(),
		a.routeCmd(),
		a.autolayoutCmd(),
		a.netsCmd(),
		a.convertCmd(),
	)
	return root
}

// setup loads configuration and installs logging and telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.telemetry != "" {
		cfg.Telemetry.Exporter = a.telemetry
	}
	lvl, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		lvl = slog.LevelDebug
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	a.shutdown, err = telemetry.Init(cmd.Context(), cfg.Telemetry.Exporter, version, cmd.ErrOrStderr())
	return err
}

// run executes the command line in args and flushes telemetry.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.shutdown != nil {
		err = errors.Join(err, a.shutdown(context.Background()))
	}
	return err
}

// Execute runs the root command
func Execute() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
