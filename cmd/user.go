package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/ohq-bluejeans/internal/server"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Look up BlueJeans enterprise accounts",
	}
	cmd.AddCommand(newUserGetCmd())
	return cmd
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get EMAIL [EMAIL...]",
		Short: "Look up enterprise accounts by email address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithServerContext(cmd, func(ctx context.Context, sc *server.ServerContext) error {
				missing := 0
				for _, email := range args {
					user, err := sc.Client().GetUser(ctx, email)
					if err != nil {
						return fmt.Errorf("failed to look up %s: %w", email, err)
					}
					if user == nil {
						missing++
						fmt.Fprintf(cmd.ErrOrStderr(), "No BlueJeans account found for %s\n", email)
						continue
					}
					if err := printJSON(cmd, user); err != nil {
						return err
					}
				}
				if missing > 0 {
					return fmt.Errorf("%d of %d accounts not found", missing, len(args))
				}
				return nil
			})
		},
	}
}
