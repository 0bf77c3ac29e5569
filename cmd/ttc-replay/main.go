// Package main replays a recorded camera/LiDAR sequence through the TTC
// fusion pipeline and reports per-track time-to-collision estimates.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/banshee-data/ttc-fusion/internal/config"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l3clusters"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l4matching"
	"github.com/banshee-data/ttc-fusion/internal/fusion/l5ttc"
	"github.com/banshee-data/ttc-fusion/internal/fusion/monitor"
	"github.com/banshee-data/ttc-fusion/internal/fusion/pipeline"
	"github.com/banshee-data/ttc-fusion/internal/fusion/replay"
	"github.com/banshee-data/ttc-fusion/internal/fusion/storage/sqlite"
	"github.com/banshee-data/ttc-fusion/internal/monitoring"
	"github.com/banshee-data/ttc-fusion/internal/version"
)

// Config holds command-line options for a replay.
type Config struct {
	SequencePath  string
	CalibPath     string
	ConfigPath    string
	DBPath        string
	PlotPath      string
	HTMLPath      string
	SummaryPath   string
	MetricsListen string
	Workers       int // 0 keeps pair_workers from the tuning file
	Verbose       bool
	ShowVersion   bool
}

// TrackSummary aggregates one track over the whole replay.
type TrackSummary struct {
	TrackID       string  `json:"track_id"`
	Frames        int     `json:"frames"`
	FirstFrame    int     `json:"first_frame"`
	LastFrame     int     `json:"last_frame"`
	LidarDefined  int     `json:"lidar_defined"`
	CameraDefined int     `json:"camera_defined"`
	MinTTCLidar   float64 `json:"-"` // smallest positive TTC, NaN when never approaching
	MinTTCCamera  float64 `json:"-"` // smallest positive TTC, NaN when never approaching
}

// MarshalJSON writes undefined minimums as null.
func (s TrackSummary) MarshalJSON() ([]byte, error) {
	type alias TrackSummary
	return json.Marshal(struct {
		alias
		MinTTCLidar  *float64 `json:"min_ttc_lidar"`
		MinTTCCamera *float64 `json:"min_ttc_camera"`
	}{alias(s), finiteOrNil(s.MinTTCLidar), finiteOrNil(s.MinTTCCamera)})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// RunResult is what a replay produced.
type RunResult struct {
	RunID  string
	Ticks  []pipeline.TickResult
	Tracks []TrackSummary
}

var logf = monitoring.Tagged("ttc-replay")

func main() {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Println("ttc-replay", version.String())
		return
	}

	if cfg.SequencePath == "" || cfg.CalibPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -sequence and -calib are required")
		flag.Usage()
		os.Exit(1)
	}

	configureLogging(cfg.Verbose)
	logf("ttc-replay %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := run(ctx, cfg)
	if err != nil {
		log.Fatalf("Replay failed: %v", err)
	}

	for _, tr := range result.Tracks {
		logf("%s: frames %d-%d, lidar ttc defined %d/%d (min %.2fs), camera ttc defined %d/%d (min %.2fs)",
			tr.TrackID, tr.FirstFrame, tr.LastFrame,
			tr.LidarDefined, tr.Frames, tr.MinTTCLidar,
			tr.CameraDefined, tr.Frames, tr.MinTTCCamera)
	}
	if result.RunID != "" {
		logf("results stored as run %s in %s", result.RunID, cfg.DBPath)
	}
}

func parseFlags() Config {
	var cfg Config

	flag.StringVar(&cfg.SequencePath, "sequence", "", "Path to the frame sequence JSON (required)")
	flag.StringVar(&cfg.CalibPath, "calib", "", "Path to the calibration JSON (required)")
	flag.StringVar(&cfg.ConfigPath, "config", config.DefaultConfigPath, "Tuning config JSON")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database path (optional, for persistence)")
	flag.StringVar(&cfg.PlotPath, "plot", "", "Write a PNG TTC plot to this path")
	flag.StringVar(&cfg.HTMLPath, "html", "", "Write an interactive HTML TTC chart to this path")
	flag.StringVar(&cfg.SummaryPath, "summary", "", "Write per-track summary JSON to this path")
	flag.StringVar(&cfg.MetricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address during the replay (e.g. :9102)")
	flag.IntVar(&cfg.Workers, "workers", 0, "Concurrent frames during LiDAR clustering (0 = from config)")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose output (per-frame trace logs)")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -sequence <file> -calib <file> [options]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Replays a recorded sequence through the TTC fusion pipeline.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Options:")
		flag.PrintDefaults()
	}

	flag.Parse()
	return cfg
}

// configureLogging sends ops output of every layer to stderr and, in
// verbose mode, the diag and trace streams too.
func configureLogging(verbose bool) {
	var diag, trace io.Writer
	if verbose {
		diag, trace = os.Stderr, os.Stderr
	}
	l3clusters.SetLogWriters(os.Stderr, diag, trace)
	l4matching.SetLogWriters(os.Stderr, diag, trace)
	l5ttc.SetLogWriters(os.Stderr, diag, trace)
	pipeline.SetLogWriters(os.Stderr, os.Stderr, trace)
}

func run(ctx context.Context, cfg Config) (*RunResult, error) {
	tuning, err := config.LoadTuningConfig(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	calib, err := replay.LoadCalibration(cfg.CalibPath)
	if err != nil {
		return nil, err
	}
	seq, err := replay.LoadSequence(cfg.SequencePath)
	if err != nil {
		return nil, err
	}

	pcfg := pipeline.ConfigFromTuning(tuning)
	if seq.FrameRate > 0 {
		pcfg.FrameRate = seq.FrameRate
	}
	if cfg.Workers > 0 {
		pcfg.Workers = cfg.Workers
	}

	metrics := monitor.NewMetrics()
	opts := []pipeline.Option{pipeline.WithObserver(metrics)}

	if cfg.MetricsListen != "" {
		srv := &http.Server{Addr: cfg.MetricsListen, Handler: metricsMux(metrics), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logf("metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		logf("serving metrics on %s/metrics", cfg.MetricsListen)
	}

	result := &RunResult{}
	if cfg.DBPath != "" {
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		params, err := json.Marshal(tuning)
		if err != nil {
			return nil, fmt.Errorf("encode tuning params: %w", err)
		}
		store := sqlite.NewTTCStore(db)
		runRow := &sqlite.Run{SourcePath: cfg.SequencePath, FrameRate: pcfg.FrameRate, ParamsJSON: string(params)}
		if err := store.InsertRun(ctx, runRow); err != nil {
			return nil, err
		}
		result.RunID = runRow.RunID
		opts = append(opts, pipeline.WithPersistence(runRow.RunID, store))
	}

	proc, err := pipeline.NewProcessor(pcfg, calib, opts...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ticks, err := proc.Run(ctx, seq.Frames)
	if err != nil {
		return nil, err
	}
	result.Ticks = ticks
	result.Tracks = summarizeTracks(ticks)
	logf("replayed %d frames (%d pairs, %d tracks) in %v",
		len(seq.Frames), len(ticks), len(result.Tracks), time.Since(start).Round(time.Millisecond))

	samples := monitor.SamplesFromTicks(ticks)
	if cfg.PlotPath != "" {
		if err := monitor.PlotTTCSeries(samples, "Time to collision", cfg.PlotPath); err != nil {
			return nil, err
		}
	}
	if cfg.HTMLPath != "" {
		if err := writeHTML(cfg.HTMLPath, samples); err != nil {
			return nil, err
		}
	}
	if cfg.SummaryPath != "" {
		data, err := json.MarshalIndent(result.Tracks, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode summary: %w", err)
		}
		if err := os.WriteFile(cfg.SummaryPath, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return result, nil
}

func metricsMux(m *monitor.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func writeHTML(path string, samples []monitor.TTCSample) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := monitor.RenderTTCChart(f, samples, "Time to collision"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// summarizeTracks aggregates tick results per track, ordered by first
// appearance then track ID.
func summarizeTracks(ticks []pipeline.TickResult) []TrackSummary {
	byID := make(map[string]*TrackSummary)
	for _, tick := range ticks {
		for _, tr := range tick.Tracks {
			s, ok := byID[tr.TrackID]
			if !ok {
				s = &TrackSummary{
					TrackID:      tr.TrackID,
					FirstFrame:   tick.FrameIndex,
					MinTTCLidar:  math.NaN(),
					MinTTCCamera: math.NaN(),
				}
				byID[tr.TrackID] = s
			}
			s.Frames++
			s.LastFrame = tick.FrameIndex
			if !math.IsNaN(tr.TTCLidar) {
				s.LidarDefined++
				s.MinTTCLidar = minApproaching(s.MinTTCLidar, tr.TTCLidar)
			}
			if !math.IsNaN(tr.TTCCamera) {
				s.CameraDefined++
				s.MinTTCCamera = minApproaching(s.MinTTCCamera, tr.TTCCamera)
			}
		}
	}

	out := make([]TrackSummary, 0, len(byID))
	for _, s := range byID {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstFrame != out[j].FirstFrame {
			return out[i].FirstFrame < out[j].FirstFrame
		}
		return out[i].TrackID < out[j].TrackID
	})
	return out
}

// minApproaching folds v into the running minimum cur. Non-positive
// values mean the target is receding and are ignored.
func minApproaching(cur, v float64) float64 {
	if !(v > 0) {
		return cur
	}
	if math.IsNaN(cur) || v < cur {
		return v
	}
	return cur
}
