package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var version int
	row := db.QueryRow("SELECT MAX(version) FROM schema_version")
	if err := row.Scan(&version); err != nil {
		t.Fatalf("scan version: %v", err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)

	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	runID, err := db.StartRun(started)
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if runID == "" {
		t.Fatal("StartRun returned empty id")
	}

	cost := 0.42
	steps := []models.StepResult{
		{Kind: models.StepCreateStory, StoryKey: "1-1-login", Success: true, NumTurns: 12},
		{Kind: models.StepDevStory, StoryKey: "1-1-login", Success: true, CostUSD: &cost, DurationMS: 90000},
		{Kind: models.StepCommit, StoryKey: "1-1-login", Success: true},
	}
	for i, res := range steps {
		if err := db.RecordStep(runID, res, 1, "session.log"); err != nil {
			t.Fatalf("RecordStep %d: %v", i, err)
		}
	}

	if err := db.EndRun(runID, started.Add(time.Hour), 1, "completed"); err != nil {
		t.Fatalf("EndRun: %v", err)
	}

	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != runID || run.StoriesDone != 1 || run.Status != "completed" {
		t.Errorf("run = %+v", run)
	}
	if run.EndedAt == nil || !run.EndedAt.Equal(started.Add(time.Hour)) {
		t.Errorf("run.EndedAt = %v", run.EndedAt)
	}

	got, err := db.RunSteps(runID)
	if err != nil {
		t.Fatalf("RunSteps: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(steps) = %d, want 3", len(got))
	}
	if got[0].Step != models.StepCreateStory || got[2].Step != models.StepCommit {
		t.Errorf("step order = %s, %s, %s", got[0].Step, got[1].Step, got[2].Step)
	}
	if got[0].CostUSD != nil {
		t.Errorf("step without cost got %v", *got[0].CostUSD)
	}
	if got[1].CostUSD == nil || *got[1].CostUSD != cost {
		t.Errorf("step cost = %v, want %v", got[1].CostUSD, cost)
	}
	if !got[1].Success {
		t.Error("dev step not recorded as success")
	}
}

func TestRecentRunsOrder(t *testing.T) {
	db := openTestDB(t)

	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := db.StartRun(base.Add(time.Duration(i) * time.Hour))
		if err != nil {
			t.Fatalf("StartRun %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	runs, err := db.RecentRuns(2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("runs not newest-first: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestRecordStepRequiresRun(t *testing.T) {
	db := openTestDB(t)
	err := db.RecordStep("", models.StepResult{Kind: models.StepDevStory}, 1, "")
	if err == nil {
		t.Fatal("RecordStep with empty run id did not fail")
	}
}

func TestPurgeOldRuns(t *testing.T) {
	db := openTestDB(t)

	old, err := db.StartRun(time.Now().Add(-48 * time.Hour))
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := db.RecordStep(old, models.StepResult{Kind: models.StepDevStory, StoryKey: "1-1-x"}, 1, ""); err != nil {
		t.Fatalf("RecordStep: %v", err)
	}
	if _, err := db.StartRun(time.Now()); err != nil {
		t.Fatalf("StartRun recent: %v", err)
	}

	purged, err := db.PurgeOldRuns(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldRuns: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	runs, err := db.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("len(runs) = %d after purge, want 1", len(runs))
	}
}
