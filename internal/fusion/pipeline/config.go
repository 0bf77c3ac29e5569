package pipeline

import (
	"fmt"

	"github.com/banshee-data/ttc-fusion/internal/config"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l3clusters"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l4matching"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l5ttc"
)

// Config collects the per-layer parameters used by a Processor.
type Config struct {
	Crop              l1sensors.CropBounds
	LidarShrinkFactor float64
	Keypoints         l3clusters.KeypointParams
	Matching          l4matching.MatchParams
	LidarTTC          l5ttc.LidarTTCParams
	CameraTTC         l5ttc.CameraTTCParams
	FrameRate         float64 // Hz
	Workers           int     // concurrent frames during LiDAR clustering
}

// ConfigFromTuning builds a Config from a loaded TuningConfig.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		Crop:              l1sensors.CropBoundsFromTuning(cfg),
		LidarShrinkFactor: cfg.GetLidarShrinkFactor(),
		Keypoints:         l3clusters.KeypointParamsFromTuning(cfg),
		Matching:          l4matching.MatchParamsFromTuning(cfg),
		LidarTTC:          l5ttc.LidarTTCParamsFromTuning(cfg),
		CameraTTC:         l5ttc.CameraTTCParamsFromTuning(cfg),
		FrameRate:         cfg.GetFrameRate(),
		Workers:           cfg.GetPairWorkers(),
	}
}

// DefaultConfig returns a Config from the canonical defaults file.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

func (c Config) validate() error {
	if !(c.FrameRate > 0) {
		return fmt.Errorf("frame rate %v: %w", c.FrameRate, l5ttc.ErrFrameRate)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.LidarShrinkFactor < 0 || c.LidarShrinkFactor >= 1 {
		return fmt.Errorf("lidar shrink factor must be in [0, 1), got %f", c.LidarShrinkFactor)
	}
	return nil
}
