package cmd

import (
	"github.com/spf13/cobra"

	"github.com/teemow/ohq-bluejeans/internal/backend"
)

func newBackendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Inspect the BlueJeans meeting backend",
	}
	cmd.AddCommand(newBackendInfoCmd())
	return cmd
}

func newBackendInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the backend capability descriptor",
		Long: `Print the descriptor the queue shows to its users: backend name,
whether it is enabled, documentation and dial-in numbers. Needs no credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(false); err != nil {
				return err
			}
			// PublicData does not reach the provider.
			return printJSON(cmd, backend.New(cfg.Backend(), nil).PublicData())
		},
	}
}
