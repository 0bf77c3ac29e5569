// Package l3clusters owns Layer 3 (Clusters) of the fusion data model.
//
// Responsibilities: attaching LiDAR returns to the detection box that
// uniquely encloses their projection, and attaching keypoint matches to a
// box with flow-consistency outlier rejection.
// Key types: ClusterStats, KeypointParams, KeypointStats.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
package l3clusters
