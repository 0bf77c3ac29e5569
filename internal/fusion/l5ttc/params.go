package l5ttc

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/ttc-fusion/internal/config"
)

// ErrFrameRate is returned when the frame rate is not a positive finite number.
var ErrFrameRate = errors.New("frame rate must be positive")

// LidarTTCParams controls ComputeTTCLidar.
type LidarTTCParams struct {
	LaneWidth float64 // ego-lane width in metres, centred on y = 0
}

// CameraTTCParams controls ComputeTTCCamera.
type CameraTTCParams struct {
	MinPairDistancePx float64 // minimum current-frame keypoint baseline
}

// LidarTTCParamsFromTuning builds LidarTTCParams from a loaded TuningConfig.
func LidarTTCParamsFromTuning(cfg *config.TuningConfig) LidarTTCParams {
	return LidarTTCParams{LaneWidth: cfg.GetEgoLaneWidth()}
}

// CameraTTCParamsFromTuning builds CameraTTCParams from a loaded TuningConfig.
func CameraTTCParamsFromTuning(cfg *config.TuningConfig) CameraTTCParams {
	return CameraTTCParams{MinPairDistancePx: cfg.GetMinPairDistancePx()}
}

// DefaultLidarTTCParams returns LidarTTCParams from the canonical defaults file.
func DefaultLidarTTCParams() LidarTTCParams {
	return LidarTTCParamsFromTuning(config.MustLoadDefaultConfig())
}

// DefaultCameraTTCParams returns CameraTTCParams from the canonical defaults file.
func DefaultCameraTTCParams() CameraTTCParams {
	return CameraTTCParamsFromTuning(config.MustLoadDefaultConfig())
}

func frameInterval(frameRate float64) (float64, error) {
	if !(frameRate > 0) || math.IsInf(frameRate, 1) {
		return 0, fmt.Errorf("got %v: %w", frameRate, ErrFrameRate)
	}
	return 1 / frameRate, nil
}
