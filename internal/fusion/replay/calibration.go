package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
)

type calibrationJSON struct {
	PRect     [][]float64 `json:"p_rect"`        // 3x4
	RRect     [][]float64 `json:"r_rect"`        // 4x4
	VeloToCam [][]float64 `json:"t_velo_to_cam"` // 4x4
}

// LoadCalibration reads a calibration file.
func LoadCalibration(path string) (*l1sensors.Calibration, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration: %w", err)
	}
	defer f.Close()

	calib, err := DecodeCalibration(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return calib, nil
}

// DecodeCalibration decodes the three calibration matrices and builds a
// validated Calibration.
func DecodeCalibration(r io.Reader) (*l1sensors.Calibration, error) {
	var raw calibrationJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse calibration JSON: %w", err)
	}
	return l1sensors.NewCalibration(raw.PRect, raw.RRect, raw.VeloToCam)
}
