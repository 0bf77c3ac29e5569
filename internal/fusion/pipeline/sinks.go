package pipeline

import (
	"context"
	"time"

	"github.com/banshee-data/ttc-fusion/internal/fusion/l3clusters"
	"github.com/banshee-data/ttc-fusion/internal/fusion/storage/sqlite"
)

// Sensor labels passed to Observer.ObserveTTC.
const (
	SensorLidar  = "lidar"
	SensorCamera = "camera"
)

// Observer receives processing statistics. Implementations must be safe
// for concurrent use: ObserveLidarClustering is called from several
// workers at once.
type Observer interface {
	ObserveLidarClustering(stats l3clusters.ClusterStats)
	ObserveKeypointClustering(stats l3clusters.KeypointStats)
	// ObserveTTC is called once per sensor per matched pair; ttc may be NaN.
	ObserveTTC(sensor string, ttc float64)
	ObserveStep(elapsed time.Duration)
}

// PersistenceSink writes estimates to storage. It is an adapter, not a
// layer, so implementations live outside L1-L5 (e.g.
// internal/fusion/storage/sqlite).
type PersistenceSink interface {
	InsertEstimates(ctx context.Context, estimates []sqlite.Estimate) error
}

type nopObserver struct{}

func (nopObserver) ObserveLidarClustering(l3clusters.ClusterStats)     {}
func (nopObserver) ObserveKeypointClustering(l3clusters.KeypointStats) {}
func (nopObserver) ObserveTTC(string, float64)                         {}
func (nopObserver) ObserveStep(time.Duration)                          {}
