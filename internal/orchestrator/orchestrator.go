package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mazzeb/bmad-ralph-loop/internal/git"
	"github.com/mazzeb/bmad-ralph-loop/internal/session"
	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// artifactsDir is where the story files and the sprint status live,
// relative to the project root.
const artifactsDir = "_bmad-output/implementation-artifacts"

// SessionRunner executes agent sessions and the commit step.
// Satisfied by *session.Runner; faked in tests.
type SessionRunner interface {
	Run(ctx context.Context, req session.Request) (models.StepResult, error)
	RunCommit(ctx context.Context, storyID, storyKey, storyFile string) models.StepResult
}

// Orchestrator drives the sequential story loop. Exactly one story and
// one step are in flight at any time.
type Orchestrator struct {
	cfg      models.SessionConfig
	sessions SessionRunner
	git      git.Runner
	ui       UI
	rec      Recorder
	logger   *DebugLogger

	logDir     string
	sessionSeq int

	// dirtyPause is the warning pause before resuming dev on a dirty
	// tree; shortened in tests.
	dirtyPause time.Duration
}

// Options configures an Orchestrator. Sessions is required; the rest
// default to no-ops.
type Options struct {
	Config   models.SessionConfig
	Sessions SessionRunner
	Git      git.Runner
	UI       UI
	Recorder Recorder
	Logger   *DebugLogger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	ui := opts.UI
	if ui == nil {
		ui = NopUI{}
	}
	rec := opts.Recorder
	if rec == nil {
		rec = NopRecorder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = NopLogger()
	}
	return &Orchestrator{
		cfg:        opts.Config,
		sessions:   opts.Sessions,
		git:        opts.Git,
		ui:         ui,
		rec:        rec,
		logger:     logger,
		logDir:     filepath.Join(opts.Config.ProjectDir, ".ralph-loop", "logs"),
		dirtyPause: 10 * time.Second,
	}
}

// statusPath returns the sprint status file path for this project.
func (o *Orchestrator) statusPath() string {
	return filepath.Join(o.cfg.ProjectDir, sprint.StatusFile)
}

// storyFilePath returns the story markdown path for a story key.
func (o *Orchestrator) storyFilePath(key string) string {
	return filepath.Join(o.cfg.ProjectDir, artifactsDir, key+".md")
}

// Run executes the story loop until no actionable story remains, the
// story budget is spent, a step fails, or the context is canceled.
// Returns the number of stories fully committed.
func (o *Orchestrator) Run(ctx context.Context) (int, error) {
	if err := o.preflight(); err != nil {
		return 0, err
	}

	startedAt := time.Now().UTC()
	runID, err := o.rec.StartRun(startedAt)
	if err != nil {
		o.logger.Log("recorder: start run: %v", err)
	}

	o.repairCommitGap(ctx, runID)

	storiesDone := 0
	runStatus := "completed"

loop:
	for i := 0; i < o.cfg.MaxStories; i++ {
		if ctx.Err() != nil {
			runStatus = "canceled"
			break
		}

		status, err := sprint.Load(o.statusPath())
		if err != nil {
			o.rec.EndRun(runID, time.Now().UTC(), storiesDone, "failed")
			return storiesDone, fmt.Errorf("load sprint status: %w", err)
		}
		o.ui.UpdateSprintStats(status.Stats())

		key, phase, ok := status.NextActionable()
		if !ok {
			o.notice("No more actionable stories. Sprint complete.")
			break
		}

		o.logger.Log("next story %s (status %s)", key, phase)
		outcome := o.runStory(ctx, runID, key, phase, storiesDone)

		switch outcome {
		case storyCommitted:
			storiesDone++
			if i+1 < o.cfg.MaxStories {
				o.countdown(ctx, "Next story in", o.cfg.PauseBetweenStories)
			}
		case storyContinue:
			// Done but uncommitted; the next startup repairs the gap.
		case storyStop:
			runStatus = "stopped"
			break loop
		}

		if ctx.Err() != nil {
			runStatus = "canceled"
			break
		}
	}

	if err := o.rec.EndRun(runID, time.Now().UTC(), storiesDone, runStatus); err != nil {
		o.logger.Log("recorder: end run: %v", err)
	}

	o.ui.Done(fmt.Sprintf("Run finished: %d story(ies) committed.", storiesDone))

	if ctx.Err() != nil {
		return storiesDone, ctx.Err()
	}
	return storiesDone, nil
}

// preflight verifies the project is runnable before any session spawns.
func (o *Orchestrator) preflight() error {
	if o.sessions == nil {
		return fmt.Errorf("no session runner configured")
	}
	if _, err := os.Stat(o.statusPath()); err != nil {
		return fmt.Errorf("sprint status not found at %s: %w", o.statusPath(), err)
	}
	if err := os.MkdirAll(o.logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	return nil
}

// sessionLogFile builds the per-invocation log path. The sequence number
// keeps repeated steps for the same story apart.
func (o *Orchestrator) sessionLogFile(key string, step models.StepKind, round int) string {
	o.sessionSeq++
	name := fmt.Sprintf("%s_%s_%d-%s", time.Now().Format("20060102-150405"), key, o.sessionSeq, step.Label())
	if step == models.StepDevStory || step == models.StepCodeReview {
		name += fmt.Sprintf("-r%d", round)
	}
	return filepath.Join(o.logDir, name+".log")
}

// notice surfaces an operator-facing line through the event stream.
func (o *Orchestrator) notice(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	o.logger.Log("%s", msg)
	o.ui.HandleEvent(models.TextEvent{Text: msg})
}

// warn surfaces a warning line.
func (o *Orchestrator) warn(format string, args ...interface{}) {
	o.notice("WARNING: "+format, args...)
}

// countdown pauses for d, pushing a ticking countdown line to the UI.
// Returns early on context cancellation.
func (o *Orchestrator) countdown(ctx context.Context, label string, d time.Duration) {
	defer o.ui.Countdown("")
	for remaining := d; remaining > 0; remaining -= time.Second {
		o.ui.Countdown(fmt.Sprintf("%s %ds...", label, int(remaining.Seconds()+0.5)))
		tick := time.Second
		if remaining < tick {
			tick = remaining
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(tick):
		}
	}
}

// record persists one step outcome, best-effort.
func (o *Orchestrator) record(runID string, res models.StepResult, round int, logFile string) {
	if err := o.rec.RecordStep(runID, res, round, logFile); err != nil {
		o.logger.Log("recorder: record step %s/%s: %v", res.StoryKey, res.Kind, err)
	}
}

// refreshStats reloads the sprint status and pushes fresh counters to
// the UI. Returns the reloaded status for immediate queries.
func (o *Orchestrator) refreshStats() (*sprint.Status, error) {
	status, err := sprint.Load(o.statusPath())
	if err != nil {
		return nil, err
	}
	o.ui.UpdateSprintStats(status.Stats())
	return status, nil
}
