package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/ui"
	"github.com/aidanlsb/arbor/internal/watcher"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate whenever the tree changes",
	Long: `Run incremental generation when the canonical tree changes and on a
fixed interval, until interrupted.

The interval defaults to watch.interval in arbor.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *arch.Service) error {
			interval := watchInterval
			if interval <= 0 {
				var err error
				if interval, err = svc.Config().WatchInterval(); err != nil {
					return handleError(ErrConfigInvalid, err, "")
				}
			}
			debounce, err := svc.Config().WatchDebounce()
			if err != nil {
				return handleError(ErrConfigInvalid, err, "")
			}

			w, err := watcher.New(watcher.Config{
				Service:       svc,
				Interval:      interval,
				DebounceDelay: debounce,
				Debug:         debugOutput,
				OnPass:        printPass,
			})
			if err != nil {
				return handleError(ErrInternal, err, "")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !isJSONOutput() {
				fmt.Fprintf(os.Stderr, "Watching %s (every %s). Press Ctrl+C to stop.\n", svc.CanonicalPath(), interval)
			}
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return handleError(ErrInternal, err, "")
			}
			return nil
		})
	},
}

// printPass reports one pass: a JSON line per pass in --json mode.
func printPass(p watcher.Pass) {
	if isJSONOutput() {
		data := map[string]interface{}{
			"trigger": p.Trigger,
			"at":      p.At,
			"result":  p.Result,
		}
		if p.Err != nil {
			data["error"] = p.Err.Error()
		}
		outputSuccess(data, nil)
		return
	}
	stamp := ui.Muted.Render(p.At.Local().Format("15:04:05"))
	switch {
	case p.Err != nil:
		fmt.Printf("%s %s\n", stamp, ui.Errorf("%s pass failed: %v", p.Trigger, p.Err))
	case p.Result != nil && len(p.Result.CreatedPaths) > 0:
		fmt.Printf("%s %s\n", stamp, ui.Successf("%s: created %d directories", p.Trigger, len(p.Result.CreatedPaths)))
	default:
		fmt.Printf("%s %s\n", stamp, ui.Hint(string(p.Trigger)+": up to date"))
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Periodic pass interval (default from arbor.yaml)")
	rootCmd.AddCommand(watchCmd)
}
