package l1sensors

// NewPinholeCalibration returns an ideal calibration: identity
// rectification, a LiDAR-to-camera axis swap with no offset and a
// distortion-free pinhole with the given focal length and principal point.
// A point (x, y, z) projects to (cx - f·y/x, cy - f·z/x).
//
// NOTE: This function is intended for building fixtures in tests of the
// higher layers. Production code loads a measured calibration.
func NewPinholeCalibration(focal, cx, cy float64) *Calibration {
	calib, err := NewCalibration(
		[][]float64{
			{focal, 0, cx, 0},
			{0, focal, cy, 0},
			{0, 0, 1, 0},
		},
		[][]float64{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, 1},
		},
		[][]float64{
			{0, -1, 0, 0},
			{0, 0, -1, 0},
			{1, 0, 0, 0},
			{0, 0, 0, 1},
		},
	)
	if err != nil {
		panic(err)
	}
	return calib
}
