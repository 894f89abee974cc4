package commands

import (
	"context"

	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/penwyp/go-sleep-monitor/internal/core/model"
	"github.com/penwyp/go-sleep-monitor/internal/presentation/formatter"
	"github.com/spf13/cobra"
)

var (
	exportAll  bool
	exportKind string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the raw check-in events as a JSON array",
	Long: `Export the raw check-in events of one user, or of every user with --all,
as a JSON array. --kind keeps only "start" or "end" events.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "Export the events of every user")
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "Only export events of this kind (start, end)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var kind model.EventKind
	if exportKind != "" {
		k, err := model.ParseEventKind(exportKind)
		if err != nil {
			return err
		}
		kind = k
	}

	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreFetchTimeout)
	defer cancel()

	var events []model.SleepEvent
	if exportAll {
		events, err = a.AllEvents(ctx)
	} else {
		events, err = a.Events(ctx, userID)
	}
	if err != nil {
		return err
	}

	if kind != "" {
		filtered := make([]model.SleepEvent, 0, len(events))
		for _, e := range events {
			if e.Kind == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	return formatter.NewJSONFormatter().FormatEvents(cmd.OutOrStdout(), events)
}
