package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command, which validates a
// configuration file without opening the database.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "check",
		Short:         "Validate a configuration file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Config == "" {
				return WrapExitError(ExitCommandError, "missing --config", nil)
			}
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if _, _, err := cfg.SinkOptions(); err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration valid")
			return nil
		},
	}
}
