// Package metrics exports the outcome of a diagnostics run in the Prometheus
// text format so node-exporter's textfile collector can pick it up.
package metrics
