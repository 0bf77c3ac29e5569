package l1sensors

import (
	"testing"

	"github.com/banshee-data/ttc-fusion/internal/config"
)

func TestCropLidarPoints(t *testing.T) {
	bounds := CropBoundsFromTuning(config.EmptyTuningConfig())

	points := []LidarPoint{
		{X: 8, Y: 0, Z: -1.0, R: 0.5},   // kept
		{X: 1, Y: 0, Z: -1.0, R: 0.5},   // too close
		{X: 25, Y: 0, Z: -1.0, R: 0.5},  // too far
		{X: 8, Y: 2.5, Z: -1.0, R: 0.5}, // outside lateral corridor
		{X: 8, Y: 0, Z: -2.0, R: 0.5},   // below band
		{X: 8, Y: 0, Z: 0.0, R: 0.5},    // above band
		{X: 8, Y: 0, Z: -1.0, R: 0.05},  // too dark
		{X: 12, Y: -1.9, Z: -1.2, R: 0.1},
		{X: -8, Y: 0, Z: -1.0, R: 0.5}, // behind
	}

	got := CropLidarPoints(points, bounds)
	if len(got) != 2 {
		t.Fatalf("expected 2 points after crop, got %d: %+v", len(got), got)
	}
	if got[0] != points[0] || got[1] != points[7] {
		t.Errorf("unexpected crop result or order: %+v", got)
	}
}

func TestCropLidarPoints_Empty(t *testing.T) {
	got := CropLidarPoints(nil, CropBounds{MaxX: 10, MaxY: 1, MinZ: -1, MaxZ: 1})
	if len(got) != 0 {
		t.Errorf("expected no points, got %d", len(got))
	}
}

func TestCropBounds_NeverKeepsPointsBehindSensor(t *testing.T) {
	// Bounds that would admit the rear half-space if taken at face value.
	bounds := CropBounds{MinX: -20, MaxX: 20, MaxY: 2, MinZ: -1.5, MaxZ: 0, MinR: 0}

	tests := []struct {
		name string
		p    LidarPoint
		want bool
	}{
		{"ahead", LidarPoint{X: 8, Z: -1}, true},
		{"behind", LidarPoint{X: -8, Z: -1}, false},
		{"sensor plane", LidarPoint{X: 0, Z: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bounds.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	got := CropLidarPoints([]LidarPoint{{X: -8, Z: -1}, {X: 8, Z: -1}}, bounds)
	if len(got) != 1 || got[0].X != 8 {
		t.Errorf("expected only the forward point, got %+v", got)
	}
}
