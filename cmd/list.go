package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var files []string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the available scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			registry, err := loadRegistry(cfg, files, nil)
			if err != nil {
				return fmt.Errorf("failed to load scenarios: %w", err)
			}
			selected, err := registry.Select(nil, cfg.Scenarios.Tags)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout(), "NAME", "TAGS", "STATUS", "SOURCE")
			for _, sc := range selected {
				status := "ready"
				if sc.Incomplete != "" {
					status = "incomplete: " + sc.Incomplete
				}
				source := sc.Source
				if source == "" {
					source = "builtin"
				}
				t.Row(sc.Name, strings.Join(sc.Tags, ","), status, source)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return err
		},
	}
	listCmd.Flags().StringSlice("tag", nil, "Only list scenarios carrying one of these tags.")
	listCmd.Flags().StringSliceVar(&files, "file", nil, "Extra scenario YAML file or directory. Repeatable.")
	return listCmd
}
