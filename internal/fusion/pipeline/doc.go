// Package pipeline provides orchestration for the TTC fusion core.
//
// It wires together the layer packages (L1-L5) and adapter sinks
// (persistence, metrics) into a processing flow over a frame sequence:
// per-frame LiDAR clustering, then per-pair box matching, keypoint
// association, track ID propagation and both TTC estimates. The pipeline
// does not own domain logic; it delegates to the layer packages.
package pipeline
