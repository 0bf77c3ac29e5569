package monitor

import (
	"sort"

	"github.com/banshee-data/ttc-fusion/internal/fusion/pipeline"
)

// TTCSample is one track's estimates at one frame.
type TTCSample struct {
	FrameIndex int
	TrackID    string
	TTCLidar   float64 // NaN when undefined
	TTCCamera  float64 // NaN when undefined
}

// SamplesFromTicks flattens pipeline results into samples ordered by
// frame and track.
func SamplesFromTicks(ticks []pipeline.TickResult) []TTCSample {
	var out []TTCSample
	for _, tick := range ticks {
		for _, tr := range tick.Tracks {
			out = append(out, TTCSample{
				FrameIndex: tick.FrameIndex,
				TrackID:    tr.TrackID,
				TTCLidar:   tr.TTCLidar,
				TTCCamera:  tr.TTCCamera,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FrameIndex != out[j].FrameIndex {
			return out[i].FrameIndex < out[j].FrameIndex
		}
		return out[i].TrackID < out[j].TrackID
	})
	return out
}

// groupByTrack splits samples per track, keeping track IDs in first-seen order.
func groupByTrack(samples []TTCSample) ([]string, map[string][]TTCSample) {
	var order []string
	groups := make(map[string][]TTCSample)
	for _, s := range samples {
		if _, ok := groups[s.TrackID]; !ok {
			order = append(order, s.TrackID)
		}
		groups[s.TrackID] = append(groups[s.TrackID], s)
	}
	return order, groups
}
