package l5ttc

import (
	"math"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"gonum.org/v1/gonum/stat"
)

// ComputeTTCLidar estimates time-to-collision from the mean longitudinal
// distance of ego-lane LiDAR points in two consecutive frames:
//
//	TTC = x̄curr · Δt / (x̄prev − x̄curr)
//
// Points with |y| >= LaneWidth/2 are ignored. The estimate is NaN when
// either frame has no lane points or the target is not approaching.
func ComputeTTCLidar(prev, curr []l1sensors.LidarPoint, frameRate float64, params LidarTTCParams) (float64, error) {
	dt, err := frameInterval(frameRate)
	if err != nil {
		return math.NaN(), err
	}

	prevX := laneX(prev, params.LaneWidth)
	currX := laneX(curr, params.LaneWidth)
	if len(prevX) == 0 || len(currX) == 0 {
		tracef("lidar ttc undefined: %d/%d prev and %d/%d curr points in lane",
			len(prevX), len(prev), len(currX), len(curr))
		return math.NaN(), nil
	}

	meanPrev := stat.Mean(prevX, nil)
	meanCurr := stat.Mean(currX, nil)
	tracef("lidar ttc: mean x prev=%.3fm curr=%.3fm", meanPrev, meanCurr)

	closing := meanPrev - meanCurr
	if closing <= 0 {
		return math.NaN(), nil
	}
	return meanCurr * dt / closing, nil
}

func laneX(points []l1sensors.LidarPoint, laneWidth float64) []float64 {
	half := laneWidth / 2
	xs := make([]float64, 0, len(points))
	for _, p := range points {
		if math.Abs(p.Y) < half {
			xs = append(xs, p.X)
		}
	}
	return xs
}
