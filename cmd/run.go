// cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/synthinput/internal/config"
	"github.com/xkilldash9x/synthinput/internal/observability"
	"github.com/xkilldash9x/synthinput/internal/scenario"
	"github.com/xkilldash9x/synthinput/internal/trace"
)

func newRunCmd() *cobra.Command {
	var traceDir string

	runCmd := &cobra.Command{
		Use:   "run <scenario...>",
		Short: "Run scenario files and write their results",
		Long: `Loads each scenario file (YAML or JSON), replays its steps in a fresh
session and writes one JSON result per scenario into the output directory.
The command fails when any scenario fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			return runScenarios(ctx, observability.GetLogger(), cfg, args, traceDir, cmd.OutOrStdout())
		},
	}

	runCmd.Flags().StringP("platform", "p", "", "browser engine to emulate (overrides engine.platform)")
	runCmd.Flags().IntP("concurrency", "j", 0, "scenarios run at once (overrides runner.concurrency)")
	runCmd.Flags().Bool("fail-fast", false, "stop scheduling scenarios after the first failure")
	runCmd.Flags().StringP("output", "o", "", "result directory (overrides runner.output_dir)")
	runCmd.Flags().Bool("trace", true, "record dispatched events (overrides trace.enabled)")
	runCmd.Flags().StringVar(&traceDir, "trace-dir", "", "also export each trace as a standalone document into this directory")

	return runCmd
}

// runScenarios contains the testable core of the run command.
func runScenarios(ctx context.Context, logger *zap.Logger, cfg config.Interface, paths []string, traceDir string, out io.Writer) error {
	scenarios, err := scenario.LoadAll(paths)
	if err != nil {
		return err
	}

	runner, err := scenario.NewRunner(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("Running scenarios", zap.Int("count", len(scenarios)), zap.String("platform", cfg.Engine().Platform))

	results, runErr := runner.Run(ctx, scenarios)
	if traceDir != "" {
		if err := exportTraces(traceDir, results); err != nil {
			return err
		}
	}
	if err := printSummary(out, results); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, res := range results {
		if !res.Passed {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(results))
	}
	return nil
}

func printSummary(out io.Writer, results []scenario.Result) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tPLATFORM\tSTATUS\tSTEPS\tDURATION\tERROR")
	for _, res := range results {
		status := "PASS"
		switch {
		case res.RunID == "":
			status = "SKIP"
		case !res.Passed:
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			res.Scenario, res.Platform, status, len(res.Steps), res.Duration.Round(time.Millisecond), res.Error)
	}
	return tw.Flush()
}

func exportTraces(dir string, results []scenario.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}
	for _, res := range results {
		if res.RunID == "" {
			continue
		}
		path := filepath.Join(dir, res.RunID+".trace.json")
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		err = trace.Export(f, trace.Document{Session: res.Session, Platform: res.Platform, URL: res.URL, Entries: res.Trace})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to export trace %s: %w", path, err)
		}
	}
	return nil
}
