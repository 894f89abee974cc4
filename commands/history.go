package commands

import (
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show day by day sleep history, newest first",
	Long: `Show every calendar day that has sleep records, newest first.

Completed cycles are listed under the day they ended, cycles still in progress under the
day they started, and unmatched check-ins under their own day.

Examples:
  go-sleep-monitor history
  go-sleep-monitor history --from 2024-03-01 --to 2024-03-31 -o csv`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.RunHistory()
}
