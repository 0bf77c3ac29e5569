package l1sensors

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrCalibrationShape is returned when a calibration matrix does not
	// have its fixed shape.
	ErrCalibrationShape = errors.New("calibration matrix has wrong shape")
	// ErrCalibrationTransform is returned when a homogeneous transform is
	// not a proper rigid transform.
	ErrCalibrationTransform = errors.New("calibration matrix is not a valid transform")
)

// MatrixValidationTolerance is the tolerance for checking rotation matrix validity
const MatrixValidationTolerance = 0.01

// Calibration holds the camera/LiDAR transform chain:
//
//	P_rect (3x4) · R_rect (4x4) · T_velo_to_cam (4x4)
//
// It is immutable after construction and safe for concurrent use.
type Calibration struct {
	PRect      *mat.Dense
	RRect      *mat.Dense
	VeloToCam  *mat.Dense
	projection *mat.Dense // PRect·RRect·VeloToCam, 3x4
}

// NewCalibration builds a Calibration from three dense row-major arrays
// with shapes (3,4), (4,4) and (4,4). VeloToCam must be a rigid transform
// and RRect must have a homogeneous last row.
func NewCalibration(pRect, rRect, veloToCam [][]float64) (*Calibration, error) {
	p, err := denseFromRows("P_rect", pRect, 3, 4)
	if err != nil {
		return nil, err
	}
	r, err := denseFromRows("R_rect", rRect, 4, 4)
	if err != nil {
		return nil, err
	}
	t, err := denseFromRows("T_velo_to_cam", veloToCam, 4, 4)
	if err != nil {
		return nil, err
	}

	if !hasHomogeneousLastRow(r) {
		return nil, fmt.Errorf("R_rect last row must be [0 0 0 1]: %w", ErrCalibrationTransform)
	}
	if !IsValidTransformMatrix(t) {
		return nil, fmt.Errorf("T_velo_to_cam is not a proper rigid transform: %w", ErrCalibrationTransform)
	}

	var rt, prt mat.Dense
	rt.Mul(r, t)
	prt.Mul(p, &rt)

	return &Calibration{
		PRect:      p,
		RRect:      r,
		VeloToCam:  t,
		projection: &prt,
	}, nil
}

// ProjectionMatrix returns the composite 3x4 LiDAR-to-pixel matrix.
func (c *Calibration) ProjectionMatrix() mat.Matrix {
	return c.projection
}

// Project maps a LiDAR point into pixel coordinates. The second return is
// false when the homogeneous depth component is zero and the projection is
// undefined; callers drop such points. Points behind the sensor (x <= 0)
// must be filtered by the caller beforehand.
func (c *Calibration) Project(p LidarPoint) (r2.Point, bool) {
	x := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1})
	var y mat.VecDense
	y.MulVec(c.projection, x)

	w := y.AtVec(2)
	if w == 0 {
		return r2.Point{}, false
	}
	return r2.Point{X: y.AtVec(0) / w, Y: y.AtVec(1) / w}, true
}

// IsValidTransformMatrix checks if a 4x4 matrix is a valid rigid transform.
// A valid rigid transform has:
// 1. Orthonormal rotation submatrix (det ≈ 1)
// 2. Last row is [0 0 0 1]
func IsValidTransformMatrix(t mat.Matrix) bool {
	if r, c := t.Dims(); r != 4 || c != 4 {
		return false
	}

	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, t.At(i, j))
		}
	}
	if math.Abs(mat.Det(rot)-1.0) > MatrixValidationTolerance {
		return false
	}

	return hasHomogeneousLastRow(t)
}

func hasHomogeneousLastRow(t mat.Matrix) bool {
	return t.At(3, 0) == 0 && t.At(3, 1) == 0 && t.At(3, 2) == 0 && math.Abs(t.At(3, 3)-1.0) <= 0.001
}

func denseFromRows(name string, rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("%s: got %d rows, want %d: %w", name, len(rows), r, ErrCalibrationShape)
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%s: row %d has %d columns, want %d: %w", name, i, len(row), c, ErrCalibrationShape)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}
