// Package replay loads recorded frame sequences and sensor calibrations
// from JSON files for offline processing by the fusion pipeline.
package replay
