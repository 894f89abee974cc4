package commands

import (
	"context"
	"fmt"

	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete one check-in event",
	Long: `Delete a single check-in event by id. Use "export" to find event ids.
Removing one half of a cycle leaves the other half unmatched.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreFetchTimeout)
	defer cancel()

	if err := a.Delete(ctx, userID, args[0]); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted event %s\n", args[0])
	return err
}
