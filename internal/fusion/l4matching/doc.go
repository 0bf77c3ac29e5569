// Package l4matching owns Layer 4 (Matching) of the fusion data model.
//
// Responsibilities: voting box correspondences between consecutive frames
// from keypoint matches, and resolving the vote table either by per-row
// argmax or by an exclusive one-to-one assignment.
// Key types: VoteTable, MatchParams.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
package l4matching
