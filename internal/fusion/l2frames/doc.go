// Package l2frames owns Layer 2 (Frames) of the fusion data model.
//
// Responsibilities: per-tick frame assembly, detection boxes with their
// membership sets, image-space rectangles and the box spatial index used
// for point-in-box queries.
// Key types: Frame, BoundingBox, Rect, BoxIndex.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2frames
