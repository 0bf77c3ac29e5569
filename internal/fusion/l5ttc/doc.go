// Package l5ttc owns Layer 5 (Time-to-collision) of the fusion data model.
//
// Responsibilities: estimating time-to-collision for one matched box pair
// from LiDAR range rate and from camera scale change.
// Key types: LidarTTCParams, CameraTTCParams.
//
// An undefined estimate is reported as NaN with a nil error; errors are
// reserved for invalid arguments.
//
// Dependency rule: L5 may depend on L1-L4, but never on the pipeline.
package l5ttc
