package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newCmdAlerts(opts *globalOptions) *cobra.Command {
	alertsCmd := &cobra.Command{
		Use:               "alerts",
		Short:             "List and acknowledge alerts",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
	}
	alertsCmd.AddCommand(newCmdListAlerts(opts))
	alertsCmd.AddCommand(newCmdAckAlert(opts))
	return alertsCmd
}

// listOptions holds the alert filters. Empty values are not sent.
type listOptions struct {
	code         string
	team         string
	status       string
	severity     string
	summary      string
	acknowledged string
	from         string
	to           string
	output       string
}

func (o *listOptions) values() url.Values {
	v := url.Values{}
	for k, val := range map[string]string{
		"code":         o.code,
		"team":         o.team,
		"status":       o.status,
		"severity":     o.severity,
		"summary":      o.summary,
		"acknowledged": o.acknowledged,
		"from":         o.from,
		"to":           o.to,
	} {
		if val != "" {
			v.Set(k, val)
		}
	}
	return v
}

func newCmdListAlerts(opts *globalOptions) *cobra.Command {
	o := &listOptions{}
	listCmd := &cobra.Command{
		Use:               "list",
		Short:             "List alerts, optionally filtered",
		Example:           "  alertctl alerts list --severity critical --acknowledged false",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(o.output); err != nil {
				return err
			}
			resp, err := opts.client().ListAlerts(cmd.Context(), o.values())
			if err != nil {
				return err
			}
			if o.output == outputJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			renderAlerts(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	f := listCmd.Flags()
	f.StringVar(&o.code, "code", "", "alert code substring")
	f.StringVar(&o.team, "team", "", "team name (exact, case-insensitive)")
	f.StringVar(&o.status, "status", "", "status [open, closed, pending, all]")
	f.StringVar(&o.severity, "severity", "", "severity [critical, high, medium, low, all]")
	f.StringVar(&o.summary, "summary", "", "summary substring")
	f.StringVar(&o.acknowledged, "acknowledged", "", "acknowledged [true, false]")
	f.StringVar(&o.from, "from", "", "opened at or after (YYYY-MM-DD or RFC3339)")
	f.StringVar(&o.to, "to", "", "opened before; a bare date includes that whole day")
	f.StringVarP(&o.output, "output", "o", outputTable, "output format [table, json]")
	return listCmd
}

func newCmdAckAlert(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:               "ack <alert-id>",
		Short:             "Acknowledge an alert and notify its team",
		Args:              cobra.ExactArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := opts.client().Acknowledge(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s acknowledged (%s)\n", resp.Alert.Code, resp.Alert.Team)
			n := resp.Notification
			switch {
			case n.Endpoint != "":
				fmt.Fprintf(out, "notification %s: %s -> %s\n", n.EventID, n.State, n.Endpoint)
			default:
				fmt.Fprintf(out, "notification %s: %s\n", n.EventID, n.State)
			}
			return nil
		},
	}
}
