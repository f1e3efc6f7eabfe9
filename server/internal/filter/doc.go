// Package filter evaluates dashboard filter specifications against alerts.
// Matching is pure and total: no I/O, no errors, unknown fields ignored.
package filter
