package commands

import (
	"context"

	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	checkInCmd = &cobra.Command{
		Use:   "checkin",
		Short: "Record falling asleep or waking up, whichever comes next",
		Long: `Record a check-in at the current time. When no sleep is in progress this records
"fell asleep", otherwise "woke up".`,
		Args: cobra.NoArgs,
		RunE: runCheckIn,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show whether the user is currently asleep",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
)

func init() {
	rootCmd.AddCommand(checkInCmd)
	rootCmd.AddCommand(statusCmd)
}

func runCheckIn(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreFetchTimeout)
	defer cancel()

	event, status, err := a.CheckIn(ctx, userID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == model.OutputJSON {
		return formatter.NewJSONFormatter().FormatEvents(out, []model.SleepEvent{event})
	}
	loc := a.Clock().Location()
	if err := formatter.FormatEventText(out, event, loc); err != nil {
		return err
	}
	return formatter.FormatStatusText(out, status, a.Clock().Now(), loc)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreFetchTimeout)
	defer cancel()

	status, err := a.Status(ctx, userID)
	if err != nil {
		return err
	}

	if outputFormat == model.OutputJSON {
		return formatter.NewJSONFormatter().FormatStatus(cmd.OutOrStdout(), status)
	}
	return formatter.FormatStatusText(cmd.OutOrStdout(), status, a.Clock().Now(), a.Clock().Location())
}
