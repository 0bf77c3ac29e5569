package l1sensors

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
)

// ErrMatchIndex is returned when a match refers outside its keypoint arrays.
var ErrMatchIndex = errors.New("match index out of range")

// LidarPoint is a single LiDAR return in the sensor frame.
// +x points forward, +y left, +z up (metres).
type LidarPoint struct {
	X, Y, Z float64
	R       float64 // reflectivity in [0, 1]
}

// Keypoint is a detected image feature. Only Pt is consumed by the
// fusion core; the remaining attributes are carried through from the
// detector unchanged.
type Keypoint struct {
	Pt       r2.Point // pixel position
	Size     float64
	Angle    float64
	Response float64
	Octave   int
}

// Match links a previous-frame keypoint (QueryIdx) to a current-frame
// keypoint (TrainIdx). Indices, never pointers, so match tables can be
// serialised.
type Match struct {
	QueryIdx int
	TrainIdx int
	Distance float64 // descriptor distance, unused by the core
}

// ValidateMatches checks every match against the keypoint array lengths
// of the previous (nPrev) and current (nCurr) frame.
func ValidateMatches(matches []Match, nPrev, nCurr int) error {
	for i, m := range matches {
		if m.QueryIdx < 0 || m.QueryIdx >= nPrev {
			return fmt.Errorf("match %d: query index %d not in [0,%d): %w", i, m.QueryIdx, nPrev, ErrMatchIndex)
		}
		if m.TrainIdx < 0 || m.TrainIdx >= nCurr {
			return fmt.Errorf("match %d: train index %d not in [0,%d): %w", i, m.TrainIdx, nCurr, ErrMatchIndex)
		}
	}
	return nil
}
