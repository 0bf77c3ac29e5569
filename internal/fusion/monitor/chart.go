package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderTTCChart writes a standalone HTML page with the LiDAR and camera
// TTC estimates of every track as a scatter chart. Each point carries
// [frame, ttc, track] so the tooltip identifies the track.
func RenderTTCChart(w io.Writer, samples []TTCSample, title string) error {
	lidar := make([]opts.ScatterData, 0, len(samples))
	camera := make([]opts.ScatterData, 0, len(samples))
	for _, s := range samples {
		if plottable(s.TTCLidar) {
			lidar = append(lidar, opts.ScatterData{Value: []interface{}{s.FrameIndex, s.TTCLidar, shortTrackID(s.TrackID)}})
		}
		if plottable(s.TTCCamera) {
			camera = append(camera, opts.ScatterData{Value: []interface{}{s.FrameIndex, s.TTCCamera, shortTrackID(s.TrackID)}})
		}
	}

	order, _ := groupByTrack(samples)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("tracks=%d lidar=%d camera=%d", len(order), len(lidar), len(camera))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "TTC (s)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("lidar", lidar, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("camera", camera, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render ttc chart: %w", err)
	}
	return nil
}
