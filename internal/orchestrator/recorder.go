package orchestrator

import (
	"time"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// Recorder persists run history. Errors from a Recorder are logged and
// never stop the run.
type Recorder interface {
	// StartRun opens a new run record and returns its id.
	StartRun(startedAt time.Time) (string, error)
	// RecordStep appends one step outcome to the run.
	RecordStep(runID string, res models.StepResult, round int, logFile string) error
	// EndRun closes the run record.
	EndRun(runID string, endedAt time.Time, storiesDone int, status string) error
}

// NopRecorder discards run history.
type NopRecorder struct{}

func (NopRecorder) StartRun(time.Time) (string, error) { return "", nil }

func (NopRecorder) RecordStep(string, models.StepResult, int, string) error { return nil }

func (NopRecorder) EndRun(string, time.Time, int, string) error { return nil }
