package commands

import (
	"context"
	"fmt"

	"github.com/penwyp/go-sleep-monitor/internal/core/constants"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users with recorded check-ins",
	Args:  cobra.NoArgs,
	RunE:  runUsers,
}

func init() {
	rootCmd.AddCommand(usersCmd)
}

func runUsers(cmd *cobra.Command, args []string) error {
	a, err := newAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), constants.StoreFetchTimeout)
	defer cancel()

	users, err := a.Users(ctx)
	if err != nil {
		return err
	}
	for _, user := range users {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), user); err != nil {
			return err
		}
	}
	return nil
}
