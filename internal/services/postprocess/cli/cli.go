// Package cli is the hh4b-postprocess command: flags and run card in, one
// processed-events and one cutflow file per year out
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"hh4b/internal/core/version"
	"hh4b/internal/platform/config"
	perr "hh4b/internal/platform/errors"
	"hh4b/internal/platform/logger"
	"hh4b/internal/services/postprocess/domain"
	"hh4b/internal/services/postprocess/module"
	"hh4b/internal/services/postprocess/runcard"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// Name is the binary name shown in usage
const Name = "hh4b-postprocess"

// newProcessor lets tests replace the subprocess bridge; nil keeps the bridge
var newProcessor = func() domain.Processor { return nil }

type runFlags struct {
	card        string
	dryRun      bool
	metricsFile string
}

// Main runs the command and returns the process exit status
func Main(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	args = runcard.NormalizeArgs(args)

	cfg := domain.DefaultRunConfig()
	var cardErr error
	if p := runcard.CardPath(args); p != "" {
		cardErr = runcard.LoadCard(p, &cfg)
	}

	var rf runFlags
	cmd := newCommand(&cfg, &rf, stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cardErr
	if err == nil {
		err = cmd.ExecuteContext(ctx)
	}
	if err == nil {
		return perr.ExitOK
	}

	fmt.Fprintln(stderr, "Error:", err)
	if perr.IsCode(err, perr.ErrorCodeConfiguration) {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return perr.ExitCode(err)
}

func newCommand(cfg *domain.RunConfig, rf *runFlags, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   Name + " --output-dir DIR --templates-tag TAG [flags]",
		Short: "Process HH4b skims per year and save events and cutflows",
		Long: "Runs the HH4b postprocessing for each requested year, in order, and saves\n" +
			"processed_events_<year> and cutflow_<year> under --output-dir.\n" +
			"Settings come from built-in defaults, then --config, then flags.",
		Version:       version.Info().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 {
				return perr.Configf("unexpected arguments: %v", args)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *cfg, *rf, stdout, stderr)
		},
	}

	fs := cmd.Flags()
	fs.SortFlags = false
	runcard.Bind(fs, cfg)
	fs.StringVar(&rf.card, runcard.CardFlag, "", "YAML run card; explicit flags override its values")
	fs.BoolVar(&rf.dryRun, "dry-run", false, "validate, create the output directory and print the plan without processing")
	fs.StringVar(&rf.metricsFile, "metrics-file", "", "write job metrics in Prometheus textfile format to this path")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeConfiguration, "invalid arguments"), "configure")
	})
	return cmd
}

func run(ctx context.Context, cfg domain.RunConfig, rf runFlags, stdout, stderr io.Writer) error {
	if err := runcard.Validate(cfg); err != nil {
		return err
	}

	conf := config.New()
	log := logger.New(withWriter(logger.FromEnv(conf), stderr))
	conf = conf.WithLogger(log)

	deps := module.OpenDeps(ctx, conf, log)
	m, err := module.New(ctx, deps, cfg, module.Run{
		DryRun:          rf.dryRun,
		MetricsFile:     rf.metricsFile,
		Processor:       newProcessor(),
		ProcessorStderr: stderr,
	})
	if err != nil {
		deps.Close()
		return err
	}
	defer m.Close()

	sum, err := m.Run(ctx)
	if err != nil {
		return err
	}
	printSummary(stdout, sum)
	return nil
}

func withWriter(o logger.Options, w io.Writer) logger.Options {
	o.Writer = w
	o.StaticFields = map[string]string{"version": version.Info().Version}
	return o
}

// printSummary writes one row per artifact to stdout
func printSummary(w io.Writer, sum domain.RunSummary) {
	if sum.DryRun {
		fmt.Fprintf(w, "run %s: dry run, nothing processed\n", sum.RunID)
		return
	}
	fmt.Fprintf(w, "run %s: %d year(s) processed\n", sum.RunID, len(sum.Years))
	if len(sum.Years) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tKIND\tFILE\tSIZE\tEVENTS\tSELECTED")
	for _, y := range sum.Years {
		selected := "-"
		if y.Selected.Name != "" {
			selected = fmt.Sprintf("%s=%.1f", y.Selected.Name, y.Selected.Events)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t\n", y.Year, y.Events.Kind, filepath.Base(y.Events.Path), humanize.Bytes(uint64(y.Events.Bytes)), y.NEvents)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\t%s\n", y.Year, y.Cutflow.Kind, filepath.Base(y.Cutflow.Path), humanize.Bytes(uint64(y.Cutflow.Bytes)), selected)
	}
	_ = tw.Flush()
}
