package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the application version.
// It is set at build time: go build -ldflags "-X github.com/xkilldash9x/sitecheck/cmd.Version=1.0.0"
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the sitecheck version",
		Args:  cobra.NoArgs,
		// The version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		},
	}
}
