// Package metrics implements the observability.Observer contract on top of
// Prometheus: operation counters, latency histograms and row counters for
// every backend adapter call.
package metrics
