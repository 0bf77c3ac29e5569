package l5ttc

import (
	"math"
	"sort"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
)

// minPrevDistance guards the distance ratio against coincident
// previous-frame keypoints.
const minPrevDistance = 2.220446049250313e-16 // float64 machine epsilon

// ComputeTTCCamera estimates time-to-collision from the scale change of a
// rigid target between two frames. For every unordered pair of matches the
// ratio of current to previous keypoint distance is recorded when the
// current baseline is at least MinPairDistancePx; with r̂ the median ratio,
//
//	TTC = −Δt / (1 − r̂)
//
// The estimate is NaN when no pair qualifies or r̂ is exactly 1. A
// receding target yields a negative TTC, returned unchanged.
//
// Match indices must already be validated against prevKps and currKps.
func ComputeTTCCamera(prevKps, currKps []l1sensors.Keypoint, matches []l1sensors.Match, frameRate float64, params CameraTTCParams) (float64, error) {
	dt, err := frameInterval(frameRate)
	if err != nil {
		return math.NaN(), err
	}

	var ratios []float64
	for a := 0; a < len(matches); a++ {
		outerCurr := currKps[matches[a].TrainIdx].Pt
		outerPrev := prevKps[matches[a].QueryIdx].Pt
		for b := a + 1; b < len(matches); b++ {
			dCurr := outerCurr.Sub(currKps[matches[b].TrainIdx].Pt).Norm()
			dPrev := outerPrev.Sub(prevKps[matches[b].QueryIdx].Pt).Norm()
			if dPrev > minPrevDistance && dCurr >= params.MinPairDistancePx {
				ratios = append(ratios, dCurr/dPrev)
			}
		}
	}

	if len(ratios) == 0 {
		tracef("camera ttc undefined: no keypoint pair with baseline >= %.0fpx among %d matches",
			params.MinPairDistancePx, len(matches))
		return math.NaN(), nil
	}

	r := median(ratios)
	tracef("camera ttc: %d ratios, median %.4f", len(ratios), r)
	if r == 1 {
		return math.NaN(), nil
	}
	return -dt / (1 - r), nil
}

// median sorts xs in place and returns its median; the two middle values
// are averaged for even lengths. xs must not be empty.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	mid := len(xs) / 2
	if len(xs)%2 == 0 {
		return (xs[mid-1] + xs[mid]) / 2
	}
	return xs[mid]
}
