package l1sensors

import (
	"math"

	"github.com/banshee-data/ttc-fusion/internal/config"
)

// CropBounds describes the region of the LiDAR scan kept for fusion.
// The defaults keep a forward corridor just above the road surface.
type CropBounds struct {
	MinX, MaxX float64 // longitudinal range (metres)
	MaxY       float64 // lateral half-width (metres)
	MinZ, MaxZ float64 // vertical band (metres)
	MinR       float64 // minimum reflectivity
}

// CropBoundsFromTuning builds CropBounds from a loaded TuningConfig.
func CropBoundsFromTuning(cfg *config.TuningConfig) CropBounds {
	return CropBounds{
		MinX: cfg.GetCropMinX(),
		MaxX: cfg.GetCropMaxX(),
		MaxY: cfg.GetCropMaxY(),
		MinZ: cfg.GetCropMinZ(),
		MaxZ: cfg.GetCropMaxZ(),
		MinR: cfg.GetCropMinReflectivity(),
	}
}

// Contains reports whether p lies inside the crop volume. Points at or
// behind the sensor (x <= 0) are never inside, whatever MinX says.
func (b CropBounds) Contains(p LidarPoint) bool {
	return p.X > 0 &&
		p.X >= b.MinX && p.X <= b.MaxX &&
		math.Abs(p.Y) <= b.MaxY &&
		p.Z >= b.MinZ && p.Z <= b.MaxZ &&
		p.R >= b.MinR
}

// CropLidarPoints returns the points inside b, preserving order. The
// result always satisfies the forward-only convention required by
// Calibration.Project.
func CropLidarPoints(points []LidarPoint, b CropBounds) []LidarPoint {
	out := make([]LidarPoint, 0, len(points))
	for _, p := range points {
		if b.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}
