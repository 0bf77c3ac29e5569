// Package l1sensors owns Layer 1 (Sensors) of the fusion data model.
//
// Responsibilities: raw sensor observations (LiDAR points, image
// keypoints, descriptor matches), the camera/LiDAR calibration chain,
// LiDAR-to-image projection and forward cropping of LiDAR scans.
// Key types: LidarPoint, Keypoint, Match, Calibration.
//
// Dependency rule: L1 depends on no other fusion layer.
package l1sensors
