package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the fusion core and
// the replay driver. Every field is optional; the Get* accessors fall back
// to the built-in defaults when a key is omitted.
type TuningConfig struct {
	// Association params
	LidarShrinkFactor    *float64 `json:"lidar_shrink_factor,omitempty"`
	KeypointShrinkFactor *float64 `json:"keypoint_shrink_factor,omitempty"`
	FlowOutlierRatio     *float64 `json:"flow_outlier_ratio,omitempty"`
	ExclusiveBoxMatching *bool    `json:"exclusive_box_matching,omitempty"`

	// TTC params
	EgoLaneWidth      *float64 `json:"ego_lane_width,omitempty"`       // metres
	MinPairDistancePx *float64 `json:"min_pair_distance_px,omitempty"` // pixels
	FrameRate         *float64 `json:"frame_rate,omitempty"`           // Hz

	// LiDAR crop params (sensor frame, metres)
	CropMinX            *float64 `json:"crop_min_x,omitempty"`
	CropMaxX            *float64 `json:"crop_max_x,omitempty"`
	CropMaxY            *float64 `json:"crop_max_y,omitempty"`
	CropMinZ            *float64 `json:"crop_min_z,omitempty"`
	CropMaxZ            *float64 `json:"crop_max_z,omitempty"`
	CropMinReflectivity *float64 `json:"crop_min_reflectivity,omitempty"`

	// Driver params
	PairWorkers *int `json:"pair_workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults. It does not touch the filesystem.
func DefaultTuningConfig() *TuningConfig {
	empty := EmptyTuningConfig()
	return &TuningConfig{
		LidarShrinkFactor:    ptrFloat64(empty.GetLidarShrinkFactor()),
		KeypointShrinkFactor: ptrFloat64(empty.GetKeypointShrinkFactor()),
		FlowOutlierRatio:     ptrFloat64(empty.GetFlowOutlierRatio()),
		ExclusiveBoxMatching: ptrBool(empty.GetExclusiveBoxMatching()),
		EgoLaneWidth:         ptrFloat64(empty.GetEgoLaneWidth()),
		MinPairDistancePx:    ptrFloat64(empty.GetMinPairDistancePx()),
		FrameRate:            ptrFloat64(empty.GetFrameRate()),
		CropMinX:             ptrFloat64(empty.GetCropMinX()),
		CropMaxX:             ptrFloat64(empty.GetCropMaxX()),
		CropMaxY:             ptrFloat64(empty.GetCropMaxY()),
		CropMinZ:             ptrFloat64(empty.GetCropMinZ()),
		CropMaxZ:             ptrFloat64(empty.GetCropMaxZ()),
		CropMinReflectivity:  ptrFloat64(empty.GetCropMinReflectivity()),
		PairWorkers:          ptrInt(empty.GetPairWorkers()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/fusion/pipeline/
		"../../../../" + DefaultConfigPath,    // from internal/fusion/storage/sqlite/
		"../../../../../" + DefaultConfigPath, // even deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	for name, v := range map[string]*float64{
		"lidar_shrink_factor":    c.LidarShrinkFactor,
		"keypoint_shrink_factor": c.KeypointShrinkFactor,
	} {
		if v != nil && (*v < 0 || *v >= 1) {
			return fmt.Errorf("%s must be in [0, 1), got %f", name, *v)
		}
	}

	if c.FlowOutlierRatio != nil && *c.FlowOutlierRatio <= 0 {
		return fmt.Errorf("flow_outlier_ratio must be positive, got %f", *c.FlowOutlierRatio)
	}
	if c.EgoLaneWidth != nil && *c.EgoLaneWidth <= 0 {
		return fmt.Errorf("ego_lane_width must be positive, got %f", *c.EgoLaneWidth)
	}
	if c.MinPairDistancePx != nil && *c.MinPairDistancePx < 0 {
		return fmt.Errorf("min_pair_distance_px must be non-negative, got %f", *c.MinPairDistancePx)
	}
	if c.FrameRate != nil && *c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %f", *c.FrameRate)
	}

	if c.CropMinX != nil && *c.CropMinX <= 0 {
		return fmt.Errorf("crop_min_x must be positive, got %f", *c.CropMinX)
	}
	if c.GetCropMinX() > c.GetCropMaxX() {
		return fmt.Errorf("crop_min_x (%f) exceeds crop_max_x (%f)", c.GetCropMinX(), c.GetCropMaxX())
	}
	if c.GetCropMinZ() > c.GetCropMaxZ() {
		return fmt.Errorf("crop_min_z (%f) exceeds crop_max_z (%f)", c.GetCropMinZ(), c.GetCropMaxZ())
	}
	if c.CropMaxY != nil && *c.CropMaxY < 0 {
		return fmt.Errorf("crop_max_y must be non-negative, got %f", *c.CropMaxY)
	}

	if c.PairWorkers != nil && *c.PairWorkers < 1 {
		return fmt.Errorf("pair_workers must be at least 1, got %d", *c.PairWorkers)
	}

	return nil
}

// GetLidarShrinkFactor returns the lidar_shrink_factor value or the default.
func (c *TuningConfig) GetLidarShrinkFactor() float64 {
	if c.LidarShrinkFactor == nil {
		return 0.10
	}
	return *c.LidarShrinkFactor
}

// GetKeypointShrinkFactor returns the keypoint_shrink_factor value or the default.
func (c *TuningConfig) GetKeypointShrinkFactor() float64 {
	if c.KeypointShrinkFactor == nil {
		return 0.15
	}
	return *c.KeypointShrinkFactor
}

// GetFlowOutlierRatio returns the flow_outlier_ratio value or the default.
func (c *TuningConfig) GetFlowOutlierRatio() float64 {
	if c.FlowOutlierRatio == nil {
		return 1.3
	}
	return *c.FlowOutlierRatio
}

// GetExclusiveBoxMatching returns the exclusive_box_matching value or the default.
func (c *TuningConfig) GetExclusiveBoxMatching() bool {
	if c.ExclusiveBoxMatching == nil {
		return false // default: argmax voting
	}
	return *c.ExclusiveBoxMatching
}

// GetEgoLaneWidth returns the ego_lane_width value or the default.
func (c *TuningConfig) GetEgoLaneWidth() float64 {
	if c.EgoLaneWidth == nil {
		return 4.0
	}
	return *c.EgoLaneWidth
}

// GetMinPairDistancePx returns the min_pair_distance_px value or the default.
func (c *TuningConfig) GetMinPairDistancePx() float64 {
	if c.MinPairDistancePx == nil {
		return 100.0
	}
	return *c.MinPairDistancePx
}

// GetFrameRate returns the frame_rate value or the default.
func (c *TuningConfig) GetFrameRate() float64 {
	if c.FrameRate == nil {
		return 10.0
	}
	return *c.FrameRate
}

// GetCropMinX returns the crop_min_x value or the default.
func (c *TuningConfig) GetCropMinX() float64 {
	if c.CropMinX == nil {
		return 2.0
	}
	return *c.CropMinX
}

// GetCropMaxX returns the crop_max_x value or the default.
func (c *TuningConfig) GetCropMaxX() float64 {
	if c.CropMaxX == nil {
		return 20.0
	}
	return *c.CropMaxX
}

// GetCropMaxY returns the crop_max_y value or the default.
func (c *TuningConfig) GetCropMaxY() float64 {
	if c.CropMaxY == nil {
		return 2.0
	}
	return *c.CropMaxY
}

// GetCropMinZ returns the crop_min_z value or the default.
func (c *TuningConfig) GetCropMinZ() float64 {
	if c.CropMinZ == nil {
		return -1.5
	}
	return *c.CropMinZ
}

// GetCropMaxZ returns the crop_max_z value or the default.
func (c *TuningConfig) GetCropMaxZ() float64 {
	if c.CropMaxZ == nil {
		return -0.9
	}
	return *c.CropMaxZ
}

// GetCropMinReflectivity returns the crop_min_reflectivity value or the default.
func (c *TuningConfig) GetCropMinReflectivity() float64 {
	if c.CropMinReflectivity == nil {
		return 0.1
	}
	return *c.CropMinReflectivity
}

// GetPairWorkers returns the pair_workers value or the default.
func (c *TuningConfig) GetPairWorkers() int {
	if c.PairWorkers == nil {
		return 4
	}
	return *c.PairWorkers
}
