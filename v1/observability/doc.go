// Package observability defines the operation-observer contract shared by
// all backend adapters. Adapters report every engine call (operation,
// collection, duration, error, size) to an optional Observer; the metrics
// package provides a Prometheus-backed implementation.
package observability
