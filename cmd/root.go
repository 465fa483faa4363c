package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Persistent flags shared by all commands
var (
	envFile    string
	configFile string
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command for the ohq-bluejeans application
var rootCmd = &cobra.Command{
	Use:   "ohq-bluejeans",
	Short: "BlueJeans meeting backend for the Remote Office Hours Queue",
	Long: `ohq-bluejeans provisions BlueJeans meetings for office hours queue
assignees. It looks up the assignee's enterprise account by email and creates
a scheduled meeting the queue can hand out to attendees.

It can run as:
  - A CLI for account lookups and meeting management
  - An MCP (Model Context Protocol) server for AI assistants (serve)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ohq-bluejeans version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before reading configuration (missing file is ignored)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional config file (yaml, json or toml) with lower-case environment key names")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error. Overrides LOG_LEVEL.")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json. Overrides LOG_FORMAT.")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newBackendCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newMeetingCmd())
	rootCmd.AddCommand(newProvisionCmd())
	rootCmd.AddCommand(newReleaseCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
