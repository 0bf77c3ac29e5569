package monitor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// maxPlotTTC drops estimates beyond ±60 s from charts; far targets produce
// huge values that flatten every other series.
const maxPlotTTC = 60.0

// PlotTTCSeries writes a PNG of TTC against frame index, solid for LiDAR
// and dashed for camera, one colour per track. Undefined or clipped
// estimates and skipped frames leave a gap in the line.
func PlotTTCSeries(samples []TTCSample, title, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "TTC (s)"
	p.Add(plotter.NewGrid())

	order, groups := groupByTrack(samples)
	for i, trackID := range order {
		color := plotutil.Color(i)
		track := groups[trackID]

		lidarRuns := seriesRuns(track, func(s TTCSample) float64 { return s.TTCLidar })
		for k, run := range lidarRuns {
			line, err := plotter.NewLine(run)
			if err != nil {
				return fmt.Errorf("lidar line for %s: %w", trackID, err)
			}
			line.Color = color
			line.Width = vg.Points(1.5)
			p.Add(line)
			if k == 0 {
				p.Legend.Add(shortTrackID(trackID)+" lidar", line)
			}
		}

		cameraRuns := seriesRuns(track, func(s TTCSample) float64 { return s.TTCCamera })
		for k, run := range cameraRuns {
			line, err := plotter.NewLine(run)
			if err != nil {
				return fmt.Errorf("camera line for %s: %w", trackID, err)
			}
			line.Color = color
			line.Width = vg.Points(1)
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(line)
			if k == 0 {
				p.Legend.Add(shortTrackID(trackID)+" camera", line)
			}
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save ttc plot: %w", err)
	}
	return nil
}

// seriesRuns splits one track's samples (in frame order) into runs of
// consecutive frames with a plottable value. An undefined or clipped
// estimate, or a frame the track skipped, ends the current run.
func seriesRuns(samples []TTCSample, value func(TTCSample) float64) []plotter.XYs {
	var runs []plotter.XYs
	var cur plotter.XYs
	lastFrame := 0
	for _, s := range samples {
		v := value(s)
		if !plottable(v) {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		if len(cur) > 0 && s.FrameIndex != lastFrame+1 {
			runs = append(runs, cur)
			cur = nil
		}
		cur = append(cur, plotter.XY{X: float64(s.FrameIndex), Y: v})
		lastFrame = s.FrameIndex
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

func plottable(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= maxPlotTTC
}

// shortTrackID trims "trk_<uuid>" to its first eight hex digits for legends.
func shortTrackID(id string) string {
	const keep = len("trk_") + 8
	if len(id) > keep {
		return id[:keep]
	}
	return id
}
