package l2frames

import (
	"errors"
	"fmt"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
)

// ErrDuplicateBoxID is returned when two boxes in one frame share a BoxID.
var ErrDuplicateBoxID = errors.New("duplicate box id")

// BoundingBox is a single detection in one frame. The membership slices
// are filled once by the fusion core and treated as immutable afterwards.
type BoundingBox struct {
	BoxID   int    // unique within its frame
	TrackID string // empty until assigned along a box match
	ROI     Rect

	ClassID    int     // detector class, unused by the core
	Confidence float64 // detector score, unused by the core

	LidarPoints []l1sensors.LidarPoint // points uniquely enclosed by the shrunk ROI
	Keypoints   []l1sensors.Keypoint   // current-frame keypoints of KptMatches
	KptMatches  []l1sensors.Match      // inlier matches ending in this box
}

// Frame is one tick of observations. KptMatches link the previous frame's
// keypoints (QueryIdx) to this frame's keypoints (TrainIdx); BBMatches is
// the box correspondence from the previous frame's BoxIDs to this frame's.
type Frame struct {
	Index     int
	Keypoints []l1sensors.Keypoint
	Boxes     []BoundingBox
	Lidar     []l1sensors.LidarPoint

	KptMatches []l1sensors.Match
	BBMatches  map[int]int
}

// BoxByID returns a pointer into f.Boxes for the given BoxID, or nil.
func (f *Frame) BoxByID(id int) *BoundingBox {
	for i := range f.Boxes {
		if f.Boxes[i].BoxID == id {
			return &f.Boxes[i]
		}
	}
	return nil
}

// ROIs returns the box rectangles in box order.
func (f *Frame) ROIs() []Rect {
	rois := make([]Rect, len(f.Boxes))
	for i, b := range f.Boxes {
		rois[i] = b.ROI
	}
	return rois
}

// ResetMembership clears every box's membership sets so the core can be
// rerun on the same frame.
func (f *Frame) ResetMembership() {
	for i := range f.Boxes {
		f.Boxes[i].LidarPoints = nil
		f.Boxes[i].Keypoints = nil
		f.Boxes[i].KptMatches = nil
	}
}

// Validate checks that BoxIDs are unique within the frame.
func (f *Frame) Validate() error {
	seen := make(map[int]struct{}, len(f.Boxes))
	for _, b := range f.Boxes {
		if _, dup := seen[b.BoxID]; dup {
			return fmt.Errorf("frame %d: box %d: %w", f.Index, b.BoxID, ErrDuplicateBoxID)
		}
		seen[b.BoxID] = struct{}{}
	}
	return nil
}
