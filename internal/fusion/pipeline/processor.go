package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l1sensors"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l2frames"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l3clusters"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l4matching"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l5ttc"
	"github.com/banshee-data/ttc-fusion/internal/fusion/storage/sqlite"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrNilCalibration is returned by NewProcessor without a calibration.
var ErrNilCalibration = errors.New("calibration is required")

// TrackResult is the outcome for one matched box pair.
type TrackResult struct {
	PrevBoxID int
	CurrBoxID int
	TrackID   string

	TTCLidar  float64 // seconds, NaN when undefined
	TTCCamera float64 // seconds, NaN when undefined

	LidarPointsPrev int
	LidarPointsCurr int
	KptMatches      int // inlier matches in the current box
}

// TickResult is the outcome of one Step.
type TickResult struct {
	PrevFrameIndex int
	FrameIndex     int
	BestMatches    map[int]int   // prevBoxID -> currBoxID
	Tracks         []TrackResult // ascending PrevBoxID
}

// Option configures a Processor.
type Option func(*Processor)

// WithObserver routes processing statistics to o.
func WithObserver(o Observer) Option {
	return func(p *Processor) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithPersistence writes every TickResult to sink under runID.
func WithPersistence(runID string, sink PersistenceSink) Option {
	return func(p *Processor) {
		p.runID = runID
		p.sink = sink
	}
}

// Processor runs the fusion core over consecutive frames. Calibration and
// configuration are read-only; per-frame boxes are mutated in place.
type Processor struct {
	cfg      Config
	calib    *l1sensors.Calibration
	observer Observer
	sink     PersistenceSink
	runID    string
}

// NewProcessor validates cfg and returns a Processor.
func NewProcessor(cfg Config, calib *l1sensors.Calibration, opts ...Option) (*Processor, error) {
	if calib == nil {
		return nil, ErrNilCalibration
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	p := &Processor{cfg: cfg, calib: calib, observer: nopObserver{}}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ClusterFrame clears the frame's box membership, crops its LiDAR scan and
// attaches the surviving points to the box that uniquely encloses their
// projection. Frames are independent, so ClusterFrame may run concurrently
// on different frames.
func (p *Processor) ClusterFrame(f *l2frames.Frame) (l3clusters.ClusterStats, error) {
	if err := f.Validate(); err != nil {
		return l3clusters.ClusterStats{}, err
	}
	f.ResetMembership()

	cropped := l1sensors.CropLidarPoints(f.Lidar, p.cfg.Crop)
	stats := l3clusters.ClusterLidarWithROI(f.Boxes, cropped, p.cfg.LidarShrinkFactor, p.calib)
	p.observer.ObserveLidarClustering(stats)

	tracef("frame %d: %d/%d lidar points after crop, %d assigned to %d boxes",
		f.Index, len(cropped), len(f.Lidar), stats.Assigned, len(f.Boxes))
	return stats, nil
}

// Step processes the pair (prev, curr): both frames must already have been
// through ClusterFrame, and curr.KptMatches must link prev.Keypoints to
// curr.Keypoints. It sets curr.BBMatches, propagates track IDs from prev
// to curr boxes, fills keypoint membership of every matched current box
// and estimates both TTCs per matched pair.
func (p *Processor) Step(ctx context.Context, prev, curr *l2frames.Frame) (*TickResult, error) {
	start := time.Now()

	if err := prev.Validate(); err != nil {
		return nil, err
	}
	if err := curr.Validate(); err != nil {
		return nil, err
	}
	if err := l1sensors.ValidateMatches(curr.KptMatches, len(prev.Keypoints), len(curr.Keypoints)); err != nil {
		return nil, fmt.Errorf("frame %d: %w", curr.Index, err)
	}

	best := l4matching.BuildVoteTable(curr.KptMatches, prev, curr).Resolve(p.cfg.Matching)
	curr.BBMatches = best

	prevIDs := make([]int, 0, len(best))
	for id := range best {
		prevIDs = append(prevIDs, id)
	}
	sort.Ints(prevIDs)

	res := &TickResult{
		PrevFrameIndex: prev.Index,
		FrameIndex:     curr.Index,
		BestMatches:    best,
		Tracks:         make([]TrackResult, 0, len(prevIDs)),
	}

	clustered := make(map[int]bool, len(best))
	for _, prevID := range prevIDs {
		currID := best[prevID]
		prevBox := prev.BoxByID(prevID)
		currBox := curr.BoxByID(currID)

		if prevBox.TrackID == "" {
			prevBox.TrackID = newTrackID()
		}
		if currBox.TrackID == "" {
			currBox.TrackID = prevBox.TrackID
		} else if currBox.TrackID != prevBox.TrackID {
			tracef("frame %d: box %d already carries %s, box %d (%s) not propagated",
				curr.Index, currID, currBox.TrackID, prevID, prevBox.TrackID)
		}

		if !clustered[currID] {
			currBox.Keypoints, currBox.KptMatches = nil, nil
			kstats := l3clusters.ClusterKptMatchesWithROI(currBox, prev.Keypoints, curr.Keypoints, curr.KptMatches, p.cfg.Keypoints)
			p.observer.ObserveKeypointClustering(kstats)
			clustered[currID] = true
		}

		ttcLidar, err := l5ttc.ComputeTTCLidar(prevBox.LidarPoints, currBox.LidarPoints, p.cfg.FrameRate, p.cfg.LidarTTC)
		if err != nil {
			return nil, fmt.Errorf("frame %d box %d: lidar ttc: %w", curr.Index, currID, err)
		}
		ttcCamera, err := l5ttc.ComputeTTCCamera(prev.Keypoints, curr.Keypoints, currBox.KptMatches, p.cfg.FrameRate, p.cfg.CameraTTC)
		if err != nil {
			return nil, fmt.Errorf("frame %d box %d: camera ttc: %w", curr.Index, currID, err)
		}
		p.observer.ObserveTTC(SensorLidar, ttcLidar)
		p.observer.ObserveTTC(SensorCamera, ttcCamera)

		res.Tracks = append(res.Tracks, TrackResult{
			PrevBoxID:       prevID,
			CurrBoxID:       currID,
			TrackID:         prevBox.TrackID,
			TTCLidar:        ttcLidar,
			TTCCamera:       ttcCamera,
			LidarPointsPrev: len(prevBox.LidarPoints),
			LidarPointsCurr: len(currBox.LidarPoints),
			KptMatches:      len(currBox.KptMatches),
		})
		tracef("frame %d: %s box %d->%d ttc lidar=%.2fs camera=%.2fs",
			curr.Index, prevBox.TrackID, prevID, currID, ttcLidar, ttcCamera)
	}

	if p.sink != nil && len(res.Tracks) > 0 {
		if err := p.sink.InsertEstimates(ctx, res.Estimates(p.runID)); err != nil {
			return nil, fmt.Errorf("persist frame %d: %w", curr.Index, err)
		}
	}

	p.observer.ObserveStep(time.Since(start))
	return res, nil
}

// Run clusters every frame (concurrently, up to cfg.Workers at once) and
// then steps each consecutive pair in order. It stops at the first error.
func (p *Processor) Run(ctx context.Context, frames []*l2frames.Frame) ([]TickResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for _, f := range frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := p.ClusterFrame(f)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("lidar clustering: %w", err)
	}

	var results []TickResult
	for i := 1; i < len(frames); i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.Step(ctx, frames[i-1], frames[i])
		if err != nil {
			opsf("aborting run at frame %d: %v", frames[i].Index, err)
			return results, err
		}
		results = append(results, *res)
	}

	diagf("processed %d frames, %d pairs", len(frames), len(results))
	return results, nil
}

// Estimates converts the tick into storage rows for runID.
func (r *TickResult) Estimates(runID string) []sqlite.Estimate {
	out := make([]sqlite.Estimate, len(r.Tracks))
	for i, t := range r.Tracks {
		out[i] = sqlite.Estimate{
			RunID:           runID,
			FrameIndex:      r.FrameIndex,
			PrevBoxID:       t.PrevBoxID,
			CurrBoxID:       t.CurrBoxID,
			TrackID:         t.TrackID,
			TTCLidar:        t.TTCLidar,
			TTCCamera:       t.TTCCamera,
			LidarPointsPrev: t.LidarPointsPrev,
			LidarPointsCurr: t.LidarPointsCurr,
			KptMatches:      t.KptMatches,
		}
	}
	return out
}

// DefinedCount returns how many tracks have a defined TTC per sensor.
func (r *TickResult) DefinedCount() (lidar, camera int) {
	for _, t := range r.Tracks {
		if !math.IsNaN(t.TTCLidar) {
			lidar++
		}
		if !math.IsNaN(t.TTCCamera) {
			camera++
		}
	}
	return lidar, camera
}

func newTrackID() string {
	return "trk_" + uuid.NewString()
}
