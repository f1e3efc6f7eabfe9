package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCmdMetrics(opts *globalOptions) *cobra.Command {
	var output string
	metricsCmd := &cobra.Command{
		Use:               "metrics",
		Short:             "Show total, acknowledged and unacknowledged counts",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			m, err := opts.client().Metrics(cmd.Context())
			if err != nil {
				return err
			}
			if output == outputJSON {
				return printJSON(cmd.OutOrStdout(), m)
			}
			renderMetrics(cmd.OutOrStdout(), m)
			return nil
		},
	}
	metricsCmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format [table, json]")
	return metricsCmd
}

func newCmdRefresh(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "refresh",
		Short:             "Refetch alerts from the incident source now",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := opts.client().Refresh(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d alerts from %s\n", st.AlertCount, st.Source)
			return nil
		},
	}
}
