package l5ttc

import (
	"errors"
	"math"
	"testing"

	"github.com/banshee-data/ttc-fusion/internal/config"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var laneParams = LidarTTCParams{LaneWidth: 4}

func pts(xy ...[2]float64) []l1sensors.LidarPoint {
	out := make([]l1sensors.LidarPoint, len(xy))
	for i, p := range xy {
		out[i] = l1sensors.LidarPoint{X: p[0], Y: p[1]}
	}
	return out
}

func TestComputeTTCLidar_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		prev      []l1sensors.LidarPoint
		curr      []l1sensors.LidarPoint
		want      float64
		undefined bool
	}{
		{
			name: "approaching target",
			prev: pts([2]float64{8.0, 0}),
			curr: pts([2]float64{7.5, 0}),
			want: 1.5,
		},
		{
			name:      "receding target",
			prev:      pts([2]float64{7.0, 0}),
			curr:      pts([2]float64{7.2, 0}),
			undefined: true,
		},
		{
			name:      "stationary target",
			prev:      pts([2]float64{7.0, 0}),
			curr:      pts([2]float64{7.0, 0}),
			undefined: true,
		},
		{
			name: "lane filter drops out-of-lane returns",
			prev: pts([2]float64{8.0, 0}, [2]float64{8.0, 3.0}),
			curr: pts([2]float64{7.5, 0}, [2]float64{7.5, 3.0}),
			want: 1.5,
		},
		{
			name:      "lane boundary is exclusive",
			prev:      pts([2]float64{8.0, 2.0}),
			curr:      pts([2]float64{7.5, -2.0}),
			undefined: true,
		},
		{
			name:      "no previous points",
			prev:      nil,
			curr:      pts([2]float64{7.5, 0}),
			undefined: true,
		},
		{
			name: "mean over every lane point",
			prev: pts([2]float64{8.0, 0}, [2]float64{9.0, 1}, [2]float64{10.0, -1}),
			curr: pts([2]float64{7.0, 0}, [2]float64{8.0, 0.5}, [2]float64{9.0, -0.5}),
			want: 8.0 * 0.1 / 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttc, err := ComputeTTCLidar(tt.prev, tt.curr, 10, laneParams)
			require.NoError(t, err)
			if tt.undefined {
				assert.True(t, math.IsNaN(ttc), "expected NaN, got %v", ttc)
				return
			}
			assert.InDelta(t, tt.want, ttc, 1e-9)
		})
	}
}

func TestComputeTTCLidar_InvalidFrameRate(t *testing.T) {
	for _, fr := range []float64{0, -10, math.NaN(), math.Inf(1)} {
		ttc, err := ComputeTTCLidar(pts([2]float64{8, 0}), pts([2]float64{7.5, 0}), fr, laneParams)
		assert.True(t, errors.Is(err, ErrFrameRate), "frame rate %v: err = %v", fr, err)
		assert.True(t, math.IsNaN(ttc))
	}
}

func TestComputeTTCLidar_Deterministic(t *testing.T) {
	prev := pts([2]float64{12.31, 0.2}, [2]float64{12.29, -0.7}, [2]float64{12.35, 1.1})
	curr := pts([2]float64{12.01, 0.1}, [2]float64{11.97, -0.6}, [2]float64{12.04, 1.2})

	first, err := ComputeTTCLidar(prev, curr, 10, laneParams)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := ComputeTTCLidar(prev, curr, 10, laneParams)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(first), math.Float64bits(again))
	}
}

func TestComputeTTCLidar_ScaleCovariant(t *testing.T) {
	prev := pts([2]float64{8.0, 0}, [2]float64{8.4, 0.5})
	curr := pts([2]float64{7.5, 0}, [2]float64{7.9, 0.5})
	base, err := ComputeTTCLidar(prev, curr, 10, laneParams)
	require.NoError(t, err)

	for _, k := range []float64{0.5, 2, 3.7} {
		sp := make([]l1sensors.LidarPoint, len(prev))
		sc := make([]l1sensors.LidarPoint, len(curr))
		for i := range prev {
			sp[i] = prev[i]
			sp[i].X *= k
		}
		for i := range curr {
			sc[i] = curr[i]
			sc[i].X *= k
		}
		scaled, err := ComputeTTCLidar(sp, sc, 10, laneParams)
		require.NoError(t, err)
		assert.InDelta(t, base, scaled, 1e-9, "scale %v", k)
	}

	// Changing the frame rate changes the estimate.
	faster, err := ComputeTTCLidar(prev, curr, 20, laneParams)
	require.NoError(t, err)
	assert.InDelta(t, base/2, faster, 1e-9)
}

func TestLidarTTCParamsFromTuning(t *testing.T) {
	assert.Equal(t, 4.0, LidarTTCParamsFromTuning(config.EmptyTuningConfig()).LaneWidth)
	assert.Equal(t, LidarTTCParams{LaneWidth: 4}, DefaultLidarTTCParams())
}
