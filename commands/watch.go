package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/penwyp/go-sleep-monitor/internal/data/watcher"
	"github.com/penwyp/go-sleep-monitor/internal/presentation/layout"
	"github.com/penwyp/go-sleep-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	watchDebounce time.Duration
	watchClear    bool

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Re-render analytics whenever the event log changes",
		Long: `Render the analytics report, then render it again every time a check-in is recorded,
backfilled or deleted. Stop with Ctrl+C.

Examples:
  go-sleep-monitor watch --range 30days -o summary`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond,
		"Quiet period before re-rendering after a change")
	watchCmd.Flags().BoolVar(&watchClear, "clear", true,
		"Clear the screen before each render")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	match := watcher.MatchExt(".db")
	if pather, ok := a.Store().(interface{ Path(string) string }); ok {
		match = watcher.MatchFile(pather.Path(userID))
	}

	fw, err := watcher.NewFileWatcher(expandPath(dataDir), match, watchDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}
	defer fw.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	render := func() {
		if watchClear {
			fmt.Fprint(out, util.MoveCursorHome+util.ClearScreen)
		}
		fmt.Fprintln(out, watchHeader(userID, util.GetTimeProvider().Now(), layout.Shared().TerminalWidth(int(os.Stdout.Fd()))))
		if err := a.Run(); err != nil {
			util.LogErrorf("Render failed: %v", err)
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}

	render()
	return watchLoop(ctx, fw.Events(), render)
}

func watchHeader(user string, now time.Time, width int) string {
	title := fmt.Sprintf(" %s  updated %s ", user, now.Format("2006-01-02 15:04:05"))
	fill := width - layout.Shared().DisplayWidth(title)
	if fill < 2 {
		return title
	}
	return strings.Repeat("─", fill/2) + title + strings.Repeat("─", fill-fill/2)
}

// watchLoop calls render for every event until ctx ends or events closes.
func watchLoop[T any](ctx context.Context, events <-chan T, render func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			util.LogDebug("Event log changed, re-rendering")
			render()
		}
	}
}
