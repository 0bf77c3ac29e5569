package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l2frames"
	"github.com/golang/geo/r2"
)

var (
	// ErrEmptySequence is returned for a sequence without frames.
	ErrEmptySequence = errors.New("sequence has no frames")
	// ErrFrameOrder is returned when frame indices are not strictly increasing.
	ErrFrameOrder = errors.New("frame indices must be strictly increasing")
)

// Sequence is a decoded recording. FrameRate is zero when the file does
// not specify one; callers fall back to the tuning config.
type Sequence struct {
	FrameRate float64
	Frames    []*l2frames.Frame
}

type sequenceJSON struct {
	FrameRate float64     `json:"frame_rate,omitempty"`
	Frames    []frameJSON `json:"frames"`
}

type frameJSON struct {
	Index      int            `json:"index"`
	Keypoints  []keypointJSON `json:"keypoints"`
	Boxes      []boxJSON      `json:"boxes"`
	Lidar      [][4]float64   `json:"lidar"`       // x, y, z, reflectivity
	KptMatches []matchJSON    `json:"kpt_matches"` // previous frame -> this frame
}

type keypointJSON struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Size     float64 `json:"size,omitempty"`
	Angle    float64 `json:"angle,omitempty"`
	Response float64 `json:"response,omitempty"`
	Octave   int     `json:"octave,omitempty"`
}

type boxJSON struct {
	BoxID      int        `json:"box_id"`
	ROI        [4]float64 `json:"roi"` // x, y, width, height
	ClassID    int        `json:"class_id,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
}

type matchJSON struct {
	QueryIdx int     `json:"query_idx"`
	TrainIdx int     `json:"train_idx"`
	Distance float64 `json:"distance,omitempty"`
}

// LoadSequence reads a sequence file.
func LoadSequence(path string) (*Sequence, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sequence: %w", err)
	}
	defer f.Close()

	seq, err := DecodeSequence(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

// DecodeSequence decodes a sequence and checks frame ordering and box IDs.
// Keypoint match indices are checked later, per frame pair, by the
// pipeline.
func DecodeSequence(r io.Reader) (*Sequence, error) {
	var raw sequenceJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse sequence JSON: %w", err)
	}
	if len(raw.Frames) == 0 {
		return nil, ErrEmptySequence
	}
	if raw.FrameRate < 0 {
		return nil, fmt.Errorf("frame_rate must be positive, got %f", raw.FrameRate)
	}

	seq := &Sequence{FrameRate: raw.FrameRate, Frames: make([]*l2frames.Frame, len(raw.Frames))}
	for i, fj := range raw.Frames {
		if i > 0 && fj.Index <= raw.Frames[i-1].Index {
			return nil, fmt.Errorf("frame %d after %d: %w", fj.Index, raw.Frames[i-1].Index, ErrFrameOrder)
		}
		f := fj.toFrame()
		if err := f.Validate(); err != nil {
			return nil, err
		}
		seq.Frames[i] = f
	}
	return seq, nil
}

func (fj frameJSON) toFrame() *l2frames.Frame {
	f := &l2frames.Frame{
		Index:      fj.Index,
		Keypoints:  make([]l1sensors.Keypoint, len(fj.Keypoints)),
		Boxes:      make([]l2frames.BoundingBox, len(fj.Boxes)),
		Lidar:      make([]l1sensors.LidarPoint, len(fj.Lidar)),
		KptMatches: make([]l1sensors.Match, len(fj.KptMatches)),
	}
	for i, k := range fj.Keypoints {
		f.Keypoints[i] = l1sensors.Keypoint{
			Pt:       r2.Point{X: k.X, Y: k.Y},
			Size:     k.Size,
			Angle:    k.Angle,
			Response: k.Response,
			Octave:   k.Octave,
		}
	}
	for i, b := range fj.Boxes {
		f.Boxes[i] = l2frames.BoundingBox{
			BoxID:      b.BoxID,
			ROI:        l2frames.Rect{X: b.ROI[0], Y: b.ROI[1], Width: b.ROI[2], Height: b.ROI[3]},
			ClassID:    b.ClassID,
			Confidence: b.Confidence,
		}
	}
	for i, p := range fj.Lidar {
		f.Lidar[i] = l1sensors.LidarPoint{X: p[0], Y: p[1], Z: p[2], R: p[3]}
	}
	for i, m := range fj.KptMatches {
		f.KptMatches[i] = l1sensors.Match{QueryIdx: m.QueryIdx, TrainIdx: m.TrainIdx, Distance: m.Distance}
	}
	return f
}
