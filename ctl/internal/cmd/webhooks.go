package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCmdWebhooks(opts *globalOptions) *cobra.Command {
	webhooksCmd := &cobra.Command{
		Use:               "webhooks",
		Short:             "Manage team webhook bindings",
		Long:              `Team "_default" addresses the fallback webhook used when no team binding matches.`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
	}

	var output string
	listCmd := &cobra.Command{
		Use:               "list",
		Short:             "List bindings (URLs redacted)",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			list, err := opts.client().Webhooks(cmd.Context())
			if err != nil {
				return err
			}
			if output == outputJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			renderWebhooks(cmd.OutOrStdout(), list)
			return nil
		},
	}
	listCmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format [table, json]")

	setCmd := &cobra.Command{
		Use:               "set <team> <url>",
		Short:             "Bind a team to a webhook URL",
		Args:              cobra.ExactArgs(2),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.client().SetWebhook(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], b.URL)
			return nil
		},
	}

	rmCmd := &cobra.Command{
		Use:               "rm <team>",
		Aliases:           []string{"remove"},
		Short:             "Remove a team binding",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().RemoveWebhook(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed\n", args[0])
			return nil
		},
	}

	webhooksCmd.AddCommand(listCmd, setCmd, rmCmd)
	return webhooksCmd
}
