package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/ciops/alertdesk/pkg/types"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func validateOutput(o string) error {
	if o != outputTable && o != outputJSON {
		return fmt.Errorf("invalid output %q: want table|json", o)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

func colorSeverity(s types.Severity) string {
	label := strings.ToUpper(string(s))
	switch s {
	case types.SeverityCritical:
		return red(label)
	case types.SeverityHigh:
		return yellow(label)
	default:
		return label
	}
}

func yesNo(b bool) string {
	if b {
		return green("yes")
	}
	return "no"
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	return table
}

func renderAlerts(w io.Writer, resp types.AlertsResponse) {
	table := newTable(w, []string{"ID", "Code", "Team", "Status", "Severity", "Opened", "Ack", "Summary"})
	for _, a := range resp.Alerts {
		table.Append([]string{
			a.ID, a.Code, a.Team, string(a.Status), colorSeverity(a.Severity),
			a.FormatOpened(time.Local), yesNo(a.Acknowledged), a.Summary,
		})
	}
	table.Render()
	fmt.Fprintf(w, "%d shown; %s\n", resp.TotalFiltered, formatMetrics(resp.Metrics))
}

func renderMetrics(w io.Writer, m types.Metrics) {
	table := newTable(w, []string{"Total", "Acknowledged", "Unacknowledged"})
	table.Append([]string{strconv.Itoa(m.Total), strconv.Itoa(m.Acknowledged), strconv.Itoa(m.Unacknowledged)})
	table.Render()
}

func renderWebhooks(w io.Writer, list []types.WebhookBinding) {
	table := newTable(w, []string{"Team", "URL"})
	for _, b := range list {
		team := b.Team
		if b.Default {
			team = "(default)"
		}
		table.Append([]string{team, b.URL})
	}
	table.Render()
}

func formatMetrics(m types.Metrics) string {
	return fmt.Sprintf("total %d, acknowledged %d, unacknowledged %d", m.Total, m.Acknowledged, m.Unacknowledged)
}
