package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run_id has no ttc_runs row.
var ErrRunNotFound = errors.New("ttc run not found")

// Run describes one replay of a frame sequence.
type Run struct {
	RunID      string  `json:"run_id"`
	CreatedAt  int64   `json:"created_at"` // unix nanoseconds
	SourcePath string  `json:"source_path,omitempty"`
	FrameRate  float64 `json:"frame_rate"`
	ParamsJSON string  `json:"params_json,omitempty"`
}

// Estimate is the result for one matched box pair in one frame. Undefined
// TTC values are NaN in memory and NULL in the database.
type Estimate struct {
	RunID           string  `json:"run_id"`
	FrameIndex      int     `json:"frame_index"`
	PrevBoxID       int     `json:"prev_box_id"`
	CurrBoxID       int     `json:"curr_box_id"`
	TrackID         string  `json:"track_id"`
	TTCLidar        float64 `json:"ttc_lidar"`
	TTCCamera       float64 `json:"ttc_camera"`
	LidarPointsPrev int     `json:"lidar_points_prev"`
	LidarPointsCurr int     `json:"lidar_points_curr"`
	KptMatches      int     `json:"kpt_matches"`
}

// TTCStore provides persistence for runs and their estimates.
type TTCStore struct {
	db *sql.DB
}

// NewTTCStore creates a new TTCStore.
func NewTTCStore(db *sql.DB) *TTCStore {
	return &TTCStore{db: db}
}

// InsertRun creates a run row. If run.RunID is empty, a new UUID is
// generated; a zero CreatedAt is set to now.
func (s *TTCStore) InsertRun(ctx context.Context, run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = time.Now().UnixNano()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ttc_runs (run_id, created_at, source_path, frame_rate, params_json)
		VALUES (?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.CreatedAt,
		nullString(run.SourcePath),
		run.FrameRate,
		nullString(run.ParamsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert ttc run: %w", err)
	}
	return nil
}

// GetRun returns the run with the given ID or ErrRunNotFound.
func (s *TTCStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run        Run
		sourcePath sql.NullString
		paramsJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, created_at, source_path, frame_rate, params_json
		FROM ttc_runs WHERE run_id = ?
	`, runID).Scan(&run.RunID, &run.CreatedAt, &sourcePath, &run.FrameRate, &paramsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ttc run: %w", err)
	}
	run.SourcePath = sourcePath.String
	run.ParamsJSON = paramsJSON.String
	return &run, nil
}

// InsertEstimates writes estimates in a single transaction. Rows with an
// existing (run_id, frame_index, prev_box_id) key are replaced.
func (s *TTCStore) InsertEstimates(ctx context.Context, estimates []Estimate) error {
	if len(estimates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO ttc_estimates (
			run_id, frame_index, prev_box_id, curr_box_id, track_id,
			ttc_lidar, ttc_camera,
			lidar_points_prev, lidar_points_curr, kpt_matches
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert estimate: %w", err)
	}
	defer stmt.Close()

	for _, e := range estimates {
		if _, err := stmt.ExecContext(ctx,
			e.RunID,
			e.FrameIndex,
			e.PrevBoxID,
			e.CurrBoxID,
			e.TrackID,
			nullFloat64(e.TTCLidar),
			nullFloat64(e.TTCCamera),
			e.LidarPointsPrev,
			e.LidarPointsCurr,
			e.KptMatches,
		); err != nil {
			return fmt.Errorf("insert estimate frame=%d prev_box=%d: %w", e.FrameIndex, e.PrevBoxID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit estimates: %w", err)
	}
	return nil
}

// ListEstimates returns every estimate of a run ordered by frame and
// previous box.
func (s *TTCStore) ListEstimates(ctx context.Context, runID string) ([]Estimate, error) {
	return s.queryEstimates(ctx, `
		SELECT run_id, frame_index, prev_box_id, curr_box_id, track_id,
			ttc_lidar, ttc_camera, lidar_points_prev, lidar_points_curr, kpt_matches
		FROM ttc_estimates
		WHERE run_id = ?
		ORDER BY frame_index, prev_box_id
	`, runID)
}

// ListByTrack returns the estimates of one track ordered by frame.
func (s *TTCStore) ListByTrack(ctx context.Context, runID, trackID string) ([]Estimate, error) {
	return s.queryEstimates(ctx, `
		SELECT run_id, frame_index, prev_box_id, curr_box_id, track_id,
			ttc_lidar, ttc_camera, lidar_points_prev, lidar_points_curr, kpt_matches
		FROM ttc_estimates
		WHERE run_id = ? AND track_id = ?
		ORDER BY frame_index
	`, runID, trackID)
}

// DeleteRun removes a run and, through the foreign key, its estimates.
func (s *TTCStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ttc_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete ttc run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (s *TTCStore) queryEstimates(ctx context.Context, query string, args ...interface{}) ([]Estimate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	var out []Estimate
	for rows.Next() {
		var (
			e                   Estimate
			ttcLidar, ttcCamera sql.NullFloat64
		)
		if err := rows.Scan(
			&e.RunID, &e.FrameIndex, &e.PrevBoxID, &e.CurrBoxID, &e.TrackID,
			&ttcLidar, &ttcCamera,
			&e.LidarPointsPrev, &e.LidarPointsCurr, &e.KptMatches,
		); err != nil {
			return nil, fmt.Errorf("scan estimate: %w", err)
		}
		e.TTCLidar = floatOrNaN(ttcLidar)
		e.TTCCamera = floatOrNaN(ttcCamera)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}
	return out, nil
}

// Helper functions for nullable values

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat64(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}
