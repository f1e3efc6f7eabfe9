// Package metrics derives the dashboard tiles from the alert collection and
// exposes the same figures, plus operational counters, to Prometheus.
package metrics
