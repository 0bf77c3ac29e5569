package l3clusters

import (
	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l2frames"
)

// ClusterStats counts the outcome of every point offered to
// ClusterLidarWithROI.
type ClusterStats struct {
	Assigned      int // enclosed by exactly one shrunk ROI
	Ambiguous     int // enclosed by two or more shrunk ROIs, dropped
	Unenclosed    int // enclosed by no shrunk ROI, dropped
	Unprojectable int // zero homogeneous depth, dropped
}

// Total returns the number of points considered.
func (s ClusterStats) Total() int {
	return s.Assigned + s.Ambiguous + s.Unenclosed + s.Unprojectable
}

// ClusterLidarWithROI appends each LiDAR point to the one box whose ROI,
// shrunk by shrinkFactor, contains the point's projection. Points enclosed
// by several boxes or by none are dropped: a single misassigned near-range
// return corrupts the LiDAR TTC of the box that receives it.
//
// points must already be forward-filtered (x > 0).
func ClusterLidarWithROI(boxes []l2frames.BoundingBox, points []l1sensors.LidarPoint, shrinkFactor float64, calib *l1sensors.Calibration) ClusterStats {
	var stats ClusterStats
	if len(boxes) == 0 {
		stats.Unenclosed = len(points)
		return stats
	}

	shrunk := make([]l2frames.Rect, len(boxes))
	for i := range boxes {
		shrunk[i] = boxes[i].ROI.Shrink(shrinkFactor)
	}
	idx := l2frames.NewBoxIndex(shrunk)

	var enclosing []int
	for _, p := range points {
		pt, ok := calib.Project(p)
		if !ok {
			stats.Unprojectable++
			continue
		}

		enclosing = idx.Enclosing(pt, enclosing)
		switch len(enclosing) {
		case 0:
			stats.Unenclosed++
		case 1:
			box := &boxes[enclosing[0]]
			box.LidarPoints = append(box.LidarPoints, p)
			stats.Assigned++
		default:
			stats.Ambiguous++
		}
	}

	if stats.Unprojectable > 0 {
		opsf("dropped %d points with undefined projection; input is not forward-filtered", stats.Unprojectable)
	}
	tracef("lidar clustering: %d points, %d assigned, %d ambiguous, %d unenclosed",
		stats.Total(), stats.Assigned, stats.Ambiguous, stats.Unenclosed)
	return stats
}
