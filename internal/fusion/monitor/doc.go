// Package monitor exposes run statistics of the fusion pipeline:
// Prometheus metrics for a live replay, and PNG/HTML charts of the TTC
// series once a run has finished.
package monitor
