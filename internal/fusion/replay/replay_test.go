package replay

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l2frames"
	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
)

const twoFrames = `{
  "frame_rate": 10,
  "frames": [
    {
      "index": 0,
      "keypoints": [{"x": 610.5, "y": 180, "size": 7, "response": 0.02}, {"x": 700, "y": 200}],
      "boxes": [{"box_id": 3, "roi": [500, 120, 300, 200], "class_id": 2, "confidence": 0.91}],
      "lidar": [[7.9, 0.1, -1.2, 0.4], [7.95, -0.3, -1.1, 0.3]]
    },
    {
      "index": 1,
      "keypoints": [{"x": 609, "y": 181}, {"x": 703, "y": 201}],
      "boxes": [{"box_id": 5, "roi": [495, 118, 310, 206]}],
      "lidar": [[7.85, 0.1, -1.2, 0.4]],
      "kpt_matches": [{"query_idx": 0, "train_idx": 0, "distance": 12}, {"query_idx": 1, "train_idx": 1}]
    }
  ]
}`

func TestDecodeSequence(t *testing.T) {
	seq, err := DecodeSequence(strings.NewReader(twoFrames))
	if err != nil {
		t.Fatalf("DecodeSequence: %v", err)
	}
	if seq.FrameRate != 10 {
		t.Errorf("FrameRate = %f, want 10", seq.FrameRate)
	}
	if len(seq.Frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(seq.Frames))
	}

	want := &l2frames.Frame{
		Index: 1,
		Keypoints: []l1sensors.Keypoint{
			{Pt: r2.Point{X: 609, Y: 181}},
			{Pt: r2.Point{X: 703, Y: 201}},
		},
		Boxes: []l2frames.BoundingBox{
			{BoxID: 5, ROI: l2frames.Rect{X: 495, Y: 118, Width: 310, Height: 206}},
		},
		Lidar: []l1sensors.LidarPoint{{X: 7.85, Y: 0.1, Z: -1.2, R: 0.4}},
		KptMatches: []l1sensors.Match{
			{QueryIdx: 0, TrainIdx: 0, Distance: 12},
			{QueryIdx: 1, TrainIdx: 1},
		},
	}
	if diff := cmp.Diff(want, seq.Frames[1]); diff != "" {
		t.Errorf("frame 1 mismatch (-want +got):\n%s", diff)
	}

	first := seq.Frames[0]
	if first.Boxes[0].ClassID != 2 || first.Boxes[0].Confidence != 0.91 {
		t.Errorf("box attributes not decoded: %+v", first.Boxes[0])
	}
	if first.Keypoints[0].Size != 7 || first.Keypoints[0].Response != 0.02 {
		t.Errorf("keypoint attributes not decoded: %+v", first.Keypoints[0])
	}
	if len(first.KptMatches) != 0 {
		t.Errorf("first frame has %d matches, want 0", len(first.KptMatches))
	}
}

func TestDecodeSequence_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: `{"frames": []}`, wantErr: ErrEmptySequence},
		{name: "out of order", input: `{"frames": [{"index": 2}, {"index": 1}]}`, wantErr: ErrFrameOrder},
		{name: "repeated index", input: `{"frames": [{"index": 2}, {"index": 2}]}`, wantErr: ErrFrameOrder},
		{
			name:    "duplicate box id",
			input:   `{"frames": [{"index": 0, "boxes": [{"box_id": 1, "roi": [0,0,1,1]}, {"box_id": 1, "roi": [0,0,1,1]}]}]}`,
			wantErr: l2frames.ErrDuplicateBoxID,
		},
		{name: "unknown field", input: `{"frames": [{"index": 0, "bogus": 1}]}`},
		{name: "malformed", input: `{"frames": [`},
		{name: "negative frame rate", input: `{"frame_rate": -1, "frames": [{"index": 0}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSequence(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.json")
	if err := os.WriteFile(path, []byte(twoFrames), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	seq, err := LoadSequence(path)
	if err != nil {
		t.Fatalf("LoadSequence: %v", err)
	}
	if len(seq.Frames) != 2 {
		t.Errorf("got %d frames, want 2", len(seq.Frames))
	}

	if _, err := LoadSequence(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

const kittiCalibration = `{
  "p_rect": [
    [7.215377e+02, 0.000000e+00, 6.095593e+02, 4.485728e+01],
    [0.000000e+00, 7.215377e+02, 1.728540e+02, 2.163791e-01],
    [0.000000e+00, 0.000000e+00, 1.000000e+00, 2.745884e-03]
  ],
  "r_rect": [
    [9.999239e-01, 9.837760e-03, -7.445048e-03, 0],
    [-9.869795e-03, 9.999421e-01, -4.278459e-03, 0],
    [7.402527e-03, 4.351614e-03, 9.999631e-01, 0],
    [0, 0, 0, 1]
  ],
  "t_velo_to_cam": [
    [7.533745e-03, -9.999714e-01, -6.166020e-04, -4.069766e-03],
    [1.480249e-02, 7.280733e-04, -9.998902e-01, -7.631618e-02],
    [9.998621e-01, 7.523790e-03, 1.480755e-02, -2.717806e-01],
    [0, 0, 0, 1]
  ]
}`

func TestDecodeCalibration(t *testing.T) {
	calib, err := DecodeCalibration(strings.NewReader(kittiCalibration))
	if err != nil {
		t.Fatalf("DecodeCalibration: %v", err)
	}
	pt, ok := calib.Project(l1sensors.LidarPoint{X: 10, Y: 0, Z: 0})
	if !ok {
		t.Fatal("forward point should project")
	}
	// A point straight ahead lands near the principal point.
	if pt.X < 560 || pt.X > 660 || pt.Y < 140 || pt.Y > 220 {
		t.Errorf("projection %v far from principal point", pt)
	}
}

func TestDecodeCalibration_BadShape(t *testing.T) {
	_, err := DecodeCalibration(strings.NewReader(`{"p_rect": [[1,2,3]], "r_rect": [], "t_velo_to_cam": []}`))
	if !errors.Is(err, l1sensors.ErrCalibrationShape) {
		t.Errorf("err = %v, want ErrCalibrationShape", err)
	}
}

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calib.json")
	if err := os.WriteFile(path, []byte(kittiCalibration), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadCalibration(path); err != nil {
		t.Errorf("LoadCalibration: %v", err)
	}
}
