package cmd

import (
	"fmt"
	"os"

	"ledger-recon/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configDir holds .env and the optional ledger-recon.yaml.
var configDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "ledger-recon",
	Short: "Two-way transaction reconciliation service",
	Long: `ledger-recon reconciles network transaction extracts against the ledger
database in both directions and reports every difference it finds.
It runs as an HTTP service with an optional schedule, or one-shot from the CLI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory holding .env and ledger-recon.yaml")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := RootCmd.Execute()
	if err == nil {
		return
	}

	// CLI errors always go to the console encoder, whatever the configured format.
	l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l.Error("Command failed", zap.Error(err))
	_ = l.Sync()
	os.Exit(1)
}
