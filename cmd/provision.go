package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/server"
	"github.com/teemow/ohq-bluejeans/internal/store"
)

func newProvisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision RECORD_KEY EMAIL",
		Short: "Provision the meeting of a host record",
		Long: `Make sure the host record RECORD_KEY has a BlueJeans meeting owned by
EMAIL and print the stored metadata. A record that already has a meeting is
printed unchanged.

Records only outlive the command with STORE_TYPE=redis.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithServerContext(cmd, func(ctx context.Context, sc *server.ServerContext) error {
				md, err := sc.Provisioner().Provision(ctx, args[0], backend.User{Email: args[1]})
				if err != nil {
					var vErr *backend.ValidationError
					if errors.As(err, &vErr) {
						return errors.New(vErr.Message)
					}
					return err
				}
				return printJSON(cmd, md)
			})
		},
	}
}

func newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release RECORD_KEY [RECORD_KEY...]",
		Short: "Delete the meeting of host records and the records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithServerContext(cmd, func(ctx context.Context, sc *server.ServerContext) error {
				var errs []error
				for _, key := range args {
					md, err := sc.Provisioner().Release(ctx, key)
					switch {
					case store.IsNotFound(err):
						errs = append(errs, fmt.Errorf("record %s not found", key))
					case err != nil:
						errs = append(errs, fmt.Errorf("record %s: %w", key, err))
					default:
						fmt.Fprintf(cmd.OutOrStdout(), "Released %s (meeting %s)\n", key, md.MeetingID)
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}
