package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "accessbridge",
		Short: "AccessBridge - desktop database automation bridge",
		Long: `AccessBridge exposes a desktop database file to MCP clients. It pairs a
tabular SQL connection with an automation host process for design-surface
work: forms, reports, macros, and object properties.

Features:
  - SQL querying over the tabular connection
  - Design-object inspection and editing via the automation host
  - Exclusive-access arbitration between the two access paths
  - Transient lock-error recovery with a hot-reloadable signature list`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newServeCommand(version))
	rootCmd.AddCommand(newCheckConfigCommand())

	return rootCmd
}
