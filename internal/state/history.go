package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// Run is one recorded invocation of the story loop.
type Run struct {
	ID          string
	StartedAt   time.Time
	EndedAt     *time.Time
	StoriesDone int
	Status      string
}

// StepRecord is one recorded step outcome within a run.
type StepRecord struct {
	ID         string
	RunID      string
	StoryKey   string
	Step       models.StepKind
	Round      int
	DurationMS int
	NumTurns   int
	CostUSD    *float64
	Success    bool
	LogFile    string
	CreatedAt  time.Time
}

// StartRun opens a new run record and returns its id.
func (db *DB) StartRun(startedAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(`
		INSERT INTO runs (id, started_at, status) VALUES (?, ?, 'active')
	`, id, formatTime(startedAt))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// RecordStep appends one step outcome to the run.
func (db *DB) RecordStep(runID string, res models.StepResult, round int, logFile string) error {
	if runID == "" {
		return fmt.Errorf("no run id")
	}

	var cost any
	if res.CostUSD != nil {
		cost = *res.CostUSD
	}

	_, err := db.Exec(`
		INSERT INTO step_results (id, run_id, story_key, step, round, duration_ms, num_turns, cost_usd, success, log_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), runID, res.StoryKey, string(res.Kind), round,
		res.DurationMS, res.NumTurns, cost, boolToInt(res.Success), logFile,
		formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("insert step result: %w", err)
	}
	return nil
}

// EndRun closes the run record.
func (db *DB) EndRun(runID string, endedAt time.Time, storiesDone int, status string) error {
	if runID == "" {
		return fmt.Errorf("no run id")
	}
	_, err := db.Exec(`
		UPDATE runs SET ended_at = ?, stories_done = ?, status = ? WHERE id = ?
	`, formatTime(endedAt), storiesDone, status, runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, started_at, ended_at, stories_done, status
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var ended sql.NullString
		if err := rows.Scan(&r.ID, &started, &ended, &r.StoriesDone, &r.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, fmt.Errorf("parse run start: %w", err)
		}
		r.EndedAt = parseNullableTime(ended)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunSteps returns the step results of one run in execution order.
func (db *DB) RunSteps(runID string) ([]StepRecord, error) {
	rows, err := db.Query(`
		SELECT id, run_id, story_key, step, round, duration_ms, num_turns, cost_usd, success, log_file, created_at
		FROM step_results WHERE run_id = ? ORDER BY created_at ASC, rowid ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query step results: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var s StepRecord
		var step, created string
		var cost sql.NullFloat64
		var success int
		var logFile sql.NullString
		if err := rows.Scan(&s.ID, &s.RunID, &s.StoryKey, &step, &s.Round,
			&s.DurationMS, &s.NumTurns, &cost, &success, &logFile, &created); err != nil {
			return nil, fmt.Errorf("scan step result: %w", err)
		}
		s.Step = models.StepKind(step)
		if cost.Valid {
			v := cost.Float64
			s.CostUSD = &v
		}
		s.Success = success != 0
		s.LogFile = logFile.String
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parse step time: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
