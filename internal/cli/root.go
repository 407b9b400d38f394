// Package cli implements the sqlitelog command line tool: a small pump
// that reads log records from stdin and persists them through the sink,
// plus a configuration checker.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Config  string
}

// NewRootCommand creates the root command for the sqlitelog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlitelog",
		Short: "Durable batched SQLite log sink",
		Long:  "sqlitelog pumps structured log records from stdin into a bounded, batched SQLite database.",
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose diagnostic output")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to YAML configuration file (required)")

	// Add subcommands
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}
