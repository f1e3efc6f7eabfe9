package metrics

import "github.com/ciops/alertdesk/pkg/types"

// Aggregate counts alerts by acknowledgment state. It is always computed over
// the full collection, never a filtered view, so the tiles stay stable while
// an operator narrows the table.
func Aggregate(alerts []types.Alert) types.Metrics {
	m := types.Metrics{Total: len(alerts)}
	for _, a := range alerts {
		if a.Acknowledged {
			m.Acknowledged++
		}
	}
	m.Unacknowledged = m.Total - m.Acknowledged
	return m
}

// BySeverity counts alerts per severity. Every known severity is present in
// the result, with zero when no alert carries it.
func BySeverity(alerts []types.Alert) map[types.Severity]int {
	out := map[types.Severity]int{
		types.SeverityCritical: 0,
		types.SeverityHigh:     0,
		types.SeverityMedium:   0,
		types.SeverityLow:      0,
	}
	for _, a := range alerts {
		out[a.Severity]++
	}
	return out
}
