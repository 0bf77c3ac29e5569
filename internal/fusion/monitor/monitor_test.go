package monitor

import (
	"bytes"
	"io"
	"math"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l3clusters"
	"github.com/banshee-data/ttc-fusion/internal/fusion/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time check: Metrics satisfies the pipeline observer.
var _ pipeline.Observer = (*Metrics)(nil)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	m.ObserveLidarClustering(l3clusters.ClusterStats{Assigned: 7, Ambiguous: 2, Unenclosed: 5})
	m.ObserveLidarClustering(l3clusters.ClusterStats{Assigned: 3, Unprojectable: 1})
	m.ObserveKeypointClustering(l3clusters.KeypointStats{Candidates: 10, Kept: 8})
	m.ObserveTTC(pipeline.SensorLidar, 2.5)
	m.ObserveTTC(pipeline.SensorCamera, math.NaN())
	m.ObserveStep(3 * time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		"ttc_frames_clustered_total 2",
		`ttc_lidar_points_total{outcome="assigned"} 10`,
		`ttc_lidar_points_total{outcome="ambiguous"} 2`,
		`ttc_lidar_points_total{outcome="unprojectable"} 1`,
		`ttc_keypoint_matches_total{outcome="kept"} 8`,
		`ttc_keypoint_matches_total{outcome="rejected"} 2`,
		`ttc_undefined_total{sensor="camera"} 1`,
		`ttc_seconds_count{sensor="lidar"} 1`,
		"ttc_frame_pairs_processed_total 1",
		"ttc_step_duration_seconds_count 1",
	} {
		assert.Contains(t, body, want)
	}
}

func TestMetrics_PrivateRegistry(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := NewMetrics(), NewMetrics()
	a.ObserveStep(time.Millisecond)
	assert.Contains(t, scrape(t, a), "ttc_frame_pairs_processed_total 1")
	assert.Contains(t, scrape(t, b), "ttc_frame_pairs_processed_total 0")
}

func sampleTicks() []pipeline.TickResult {
	return []pipeline.TickResult{
		{FrameIndex: 2, Tracks: []pipeline.TrackResult{
			{TrackID: "trk_bbbbbbbb-0000", TTCLidar: 9, TTCCamera: math.NaN()},
			{TrackID: "trk_aaaaaaaa-0000", TTCLidar: 12, TTCCamera: 11},
		}},
		{FrameIndex: 1, Tracks: []pipeline.TrackResult{
			{TrackID: "trk_aaaaaaaa-0000", TTCLidar: 13, TTCCamera: 500},
		}},
	}
}

func TestSamplesFromTicks(t *testing.T) {
	samples := SamplesFromTicks(sampleTicks())
	require.Len(t, samples, 3)
	assert.Equal(t, 1, samples[0].FrameIndex)
	assert.Equal(t, "trk_aaaaaaaa-0000", samples[1].TrackID)
	assert.Equal(t, "trk_bbbbbbbb-0000", samples[2].TrackID)
	assert.True(t, math.IsNaN(samples[2].TTCCamera))
}

func TestPlotTTCSeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "ttc.png")
	require.NoError(t, PlotTTCSeries(SamplesFromTicks(sampleTicks()), "TTC", path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPlotTTCSeries_AllUndefined(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	samples := []TTCSample{{FrameIndex: 1, TrackID: "trk_x", TTCLidar: math.NaN(), TTCCamera: math.NaN()}}
	require.NoError(t, PlotTTCSeries(samples, "empty", path))
}

func TestSeriesRuns_BreaksOnGaps(t *testing.T) {
	nan := math.NaN()
	track := []TTCSample{
		{FrameIndex: 1, TTCLidar: 4.0},
		{FrameIndex: 2, TTCLidar: 3.8},
		{FrameIndex: 3, TTCLidar: nan},   // undefined
		{FrameIndex: 4, TTCLidar: 3.4},
		{FrameIndex: 5, TTCLidar: 3.2},
		{FrameIndex: 7, TTCLidar: 2.9},   // frame 6 skipped
		{FrameIndex: 8, TTCLidar: 250.0}, // clipped
	}

	runs := seriesRuns(track, func(s TTCSample) float64 { return s.TTCLidar })
	require.Len(t, runs, 3)
	assert.Len(t, runs[0], 2)
	assert.Equal(t, 2.0, runs[0][1].X)
	assert.Len(t, runs[1], 2)
	assert.Equal(t, 4.0, runs[1][0].X)
	assert.Len(t, runs[2], 1)
	assert.Equal(t, 7.0, runs[2][0].X)
}

func TestSeriesRuns_AllUndefined(t *testing.T) {
	track := []TTCSample{{FrameIndex: 1, TTCCamera: math.NaN()}, {FrameIndex: 2, TTCCamera: math.NaN()}}
	assert.Empty(t, seriesRuns(track, func(s TTCSample) float64 { return s.TTCCamera }))
}

func TestRenderTTCChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTTCChart(&buf, SamplesFromTicks(sampleTicks()), "Sequence 0000"))

	html := buf.String()
	assert.True(t, strings.Contains(html, "Sequence 0000"))
	assert.Contains(t, html, "trk_aaaa")
}

func TestShortTrackID(t *testing.T) {
	assert.Equal(t, "trk_0123abcd", shortTrackID("trk_0123abcd-ffff-4fff-8fff-000000000000"))
	assert.Equal(t, "trk_1", shortTrackID("trk_1"))
}
