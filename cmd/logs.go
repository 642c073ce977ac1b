package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/sitecheck/internal/observability"
)

func newLogsCmd() *cobra.Command {
	var opts observability.FollowOptions

	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Print or follow the sitecheck log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cfg.Logger.LogFile == "" {
				return fmt.Errorf("no log file configured (logger.log_file)")
			}
			out := cmd.OutOrStdout()
			return observability.Follow(cmd.Context(), cfg.Logger.LogFile, opts, func(line string) error {
				_, err := fmt.Fprintln(out, line)
				return err
			})
		},
	}
	logsCmd.Flags().String("log-file", "", "Log file to read. (Overrides config/env)")
	logsCmd.Flags().BoolVarP(&opts.Follow, "follow", "f", false, "Keep printing lines as they are written.")
	logsCmd.Flags().BoolVar(&opts.FromStart, "from-start", false, "With --follow, print the existing lines first.")
	return logsCmd
}
