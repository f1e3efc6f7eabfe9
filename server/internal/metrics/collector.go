package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ciops/alertdesk/pkg/types"
)

const namespace = "alertdesk"

// Lister is the read side of the alert store.
type Lister interface {
	List() []types.Alert
}

// Collector is a prometheus.Collector that recomputes the alert gauges from
// the store on every scrape, so the exported values can never drift from
// what the API reports.
type Collector struct {
	src Lister

	alerts     *prometheus.Desc
	bySeverity *prometheus.Desc
}

// NewCollector returns a Collector reading from src.
func NewCollector(src Lister) *Collector {
	return &Collector{
		src: src,
		alerts: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "alerts"),
			"Number of alerts in the current collection by acknowledgment state.",
			[]string{"state"}, nil,
		),
		bySeverity: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "alerts_by_severity"),
			"Number of alerts in the current collection by severity.",
			[]string{"severity"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.alerts
	ch <- c.bySeverity
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	alerts := c.src.List()
	m := Aggregate(alerts)

	ch <- prometheus.MustNewConstMetric(c.alerts, prometheus.GaugeValue, float64(m.Total), "total")
	ch <- prometheus.MustNewConstMetric(c.alerts, prometheus.GaugeValue, float64(m.Acknowledged), "acknowledged")
	ch <- prometheus.MustNewConstMetric(c.alerts, prometheus.GaugeValue, float64(m.Unacknowledged), "unacknowledged")

	for sev, n := range BySeverity(alerts) {
		ch <- prometheus.MustNewConstMetric(c.bySeverity, prometheus.GaugeValue, float64(n), string(sev))
	}
}

// Recorder holds the operational counters. A nil *Recorder is valid and
// records nothing, which keeps tests free of registry plumbing.
type Recorder struct {
	ingestRuns    *prometheus.CounterVec
	acks          *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// NewRecorder creates the counters and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ingestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by result (ok, error, stale).",
		}, []string{"result"}),
		acks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acknowledgments_total",
			Help:      "Acknowledgment requests by result (acknowledged, already_acknowledged, not_found).",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification outcomes by state (sent, failed, no_endpoint).",
		}, []string{"state"}),
	}
	reg.MustRegister(r.ingestRuns, r.acks, r.notifications)
	return r
}

// IngestRun counts one ingestion run.
func (r *Recorder) IngestRun(result string) {
	if r == nil {
		return
	}
	r.ingestRuns.WithLabelValues(result).Inc()
}

// Acknowledgment counts one acknowledgment request.
func (r *Recorder) Acknowledgment(result string) {
	if r == nil {
		return
	}
	r.acks.WithLabelValues(result).Inc()
}

// Notification counts one notification outcome.
func (r *Recorder) Notification(state string) {
	if r == nil {
		return
	}
	r.notifications.WithLabelValues(state).Inc()
}
