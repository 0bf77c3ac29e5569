package l3clusters

import (
	"github.com/banshee-data/ttc-fusion/internal/config"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l2frames"
	"gonum.org/v1/gonum/stat"
)

// KeypointParams controls keypoint-match association.
type KeypointParams struct {
	ShrinkFactor float64 // ROI inset before the containment test
	OutlierRatio float64 // keep matches with flow < OutlierRatio × mean flow
}

// KeypointParamsFromTuning builds KeypointParams from a loaded TuningConfig.
func KeypointParamsFromTuning(cfg *config.TuningConfig) KeypointParams {
	return KeypointParams{
		ShrinkFactor: cfg.GetKeypointShrinkFactor(),
		OutlierRatio: cfg.GetFlowOutlierRatio(),
	}
}

// DefaultKeypointParams returns KeypointParams from the canonical defaults file.
func DefaultKeypointParams() KeypointParams {
	return KeypointParamsFromTuning(config.MustLoadDefaultConfig())
}

// KeypointStats summarises one ClusterKptMatchesWithROI call.
type KeypointStats struct {
	Candidates int     // matches whose current keypoint lies in the shrunk ROI
	Kept       int     // candidates below the flow threshold
	MeanFlow   float64 // mean flow magnitude over candidates, pixels
}

// Rejected returns the number of candidates dropped as flow outliers.
func (s KeypointStats) Rejected() int {
	return s.Candidates - s.Kept
}

// ClusterKptMatchesWithROI appends to box every match whose current
// keypoint lies in the shrunk ROI and whose flow magnitude is below
// OutlierRatio times the mean flow of all such candidates. The current
// keypoint of each kept match is appended to box.Keypoints in the same
// order.
//
// Match indices must already be validated against prevKps and currKps.
func ClusterKptMatchesWithROI(box *l2frames.BoundingBox, prevKps, currKps []l1sensors.Keypoint, matches []l1sensors.Match, params KeypointParams) KeypointStats {
	roi := box.ROI.Shrink(params.ShrinkFactor)

	candidates := make([]l1sensors.Match, 0, len(matches))
	flows := make([]float64, 0, len(matches))
	for _, m := range matches {
		curr := currKps[m.TrainIdx].Pt
		if !roi.Contains(curr) {
			continue
		}
		candidates = append(candidates, m)
		flows = append(flows, curr.Sub(prevKps[m.QueryIdx].Pt).Norm())
	}

	stats := KeypointStats{Candidates: len(candidates)}
	if len(candidates) == 0 {
		tracef("box %d: no keypoint matches in shrunk roi", box.BoxID)
		return stats
	}

	stats.MeanFlow = stat.Mean(flows, nil)
	threshold := params.OutlierRatio * stats.MeanFlow
	for i, m := range candidates {
		if flows[i] < threshold {
			box.KptMatches = append(box.KptMatches, m)
			box.Keypoints = append(box.Keypoints, currKps[m.TrainIdx])
			stats.Kept++
		}
	}

	tracef("box %d: %d/%d keypoint matches kept (mean flow %.2fpx, threshold %.2fpx)",
		box.BoxID, stats.Kept, stats.Candidates, stats.MeanFlow, threshold)
	return stats
}
