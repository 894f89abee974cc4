package commands

import (
	"context"
	"fmt"

	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	backfillStart string
	backfillEnd   string

	backfillCmd = &cobra.Command{
		Use:   "backfill",
		Short: "Record a past sleep that was not checked in live",
		Long: `Record a completed sleep from --start to --end. Times are read in --timezone and accept
"YYYY-MM-DD HH:MM" or RFC3339. The end must be strictly after the start.

Examples:
  go-sleep-monitor backfill --start "2024-03-03 23:00" --end "2024-03-04 07:00"`,
		Args: cobra.NoArgs,
		RunE: runBackfill,
	}
)

func init() {
	backfillCmd.Flags().StringVar(&backfillStart, "start", "", "Time the sleep started")
	backfillCmd.Flags().StringVar(&backfillEnd, "end", "", "Time the sleep ended")
	_ = backfillCmd.MarkFlagRequired("start")
	_ = backfillCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	start, err := a.Clock().ParseLocal(backfillStart)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := a.Clock().ParseLocal(backfillEnd)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreFetchTimeout)
	defer cancel()

	events, err := a.Backfill(ctx, userID, start, end)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == model.OutputJSON {
		return formatter.NewJSONFormatter().FormatEvents(out, events)
	}
	for _, event := range events {
		if err := formatter.FormatEventText(out, event, a.Clock().Location()); err != nil {
			return err
		}
	}
	return nil
}
