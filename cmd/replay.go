// cmd/replay.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/synthinput/internal/observability"
	"github.com/xkilldash9x/synthinput/internal/trace"
)

// replayOptions control the browser a trace is replayed in.
type replayOptions struct {
	URL      string
	Headless bool
	Timeout  time.Duration
	Args     []string
}

// replayInBrowser is swapped out in tests.
var replayInBrowser = runInChrome

func newReplayCmd() *cobra.Command {
	opts := replayOptions{}

	replayCmd := &cobra.Command{
		Use:   "replay <trace.json>",
		Short: "Replay an exported trace as DevTools input commands in Chrome",
		Long: `Reads a trace document written by 'run --trace-dir', opens its URL in a
Chrome instance and dispatches the recorded mouse, key and touch input through
the DevTools protocol.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), observability.GetLogger(), args[0], opts)
		},
	}

	replayCmd.Flags().StringVar(&opts.URL, "url", "", "page to open before replaying (default is the trace URL)")
	replayCmd.Flags().BoolVar(&opts.Headless, "headless", true, "run Chrome without a window")
	replayCmd.Flags().DurationVar(&opts.Timeout, "timeout", time.Minute, "abort the replay after this long")
	replayCmd.Flags().StringArrayVar(&opts.Args, "chrome-arg", nil, "extra Chrome flag, key or key=value (repeatable)")

	return replayCmd
}

func runReplay(ctx context.Context, logger *zap.Logger, path string, opts replayOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	doc, err := trace.Import(f)
	f.Close()
	if err != nil {
		return err
	}

	if opts.URL == "" {
		opts.URL = doc.URL
	}
	if opts.URL == "" {
		return fmt.Errorf("trace %s has no URL; pass --url", path)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logger.Info("Replaying trace",
		zap.String("trace", path),
		zap.String("url", opts.URL),
		zap.Int("entries", len(doc.Entries)),
		zap.String("recorded_on", doc.Platform))
	return replayInBrowser(ctx, doc, opts)
}

func runInChrome(ctx context.Context, doc trace.Document, opts replayOptions) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOptions(opts)...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx, chromedp.Navigate(opts.URL)); err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.URL, err)
	}
	return trace.Replay(browserCtx, doc.Entries)
}

func execOptions(opts replayOptions) []chromedp.ExecAllocatorOption {
	out := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	if opts.Headless {
		out = append(out, chromedp.Headless)
	}
	for _, arg := range opts.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			out = append(out, chromedp.Flag(key, value))
		} else {
			out = append(out, chromedp.Flag(key, true))
		}
	}
	return out
}
