package orchestrator

import (
	"context"
	"fmt"
	"os"

	"github.com/mazzeb/bmad-ralph-loop/internal/session"
	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// storyOutcome tells the main loop what to do after one story.
type storyOutcome int

const (
	// storyCommitted means the story finished and its commit landed.
	storyCommitted storyOutcome = iota
	// storyContinue means the loop may go on without counting a commit.
	storyContinue
	// storyStop means the run must stop (failure, HALT, or budget).
	storyStop
)

// resumeStep maps a sprint status to the step to enter a story at. This
// is the crash-recovery rule: the status file is the only durable record
// of how far a story got.
func resumeStep(phase string) models.StepKind {
	switch phase {
	case sprint.StatusBacklog:
		return models.StepCreateStory
	case sprint.StatusReadyForDev, sprint.StatusInProgress:
		return models.StepDevStory
	case sprint.StatusReview:
		return models.StepCodeReview
	default:
		return models.StepCreateStory
	}
}

// runStory takes one story through create, dev/review rounds, and commit.
func (o *Orchestrator) runStory(ctx context.Context, runID, key, phase string, committedSoFar int) storyOutcome {
	storyID := sprint.StoryIDFromKey(key)
	state := models.NewStoryState(key, storyID)
	storyFile := o.storyFilePath(key)

	entry := resumeStep(phase)
	switch phase {
	case sprint.StatusBacklog, sprint.StatusReadyForDev, sprint.StatusInProgress, sprint.StatusReview:
	default:
		o.warn("Story %s has unrecognized status %q; starting from create-story.", key, phase)
	}

	// Resuming mid-story needs the story file the earlier run wrote. Its
	// absence means the crash landed between status write and file write,
	// so fall back to drafting the story again.
	if entry != models.StepCreateStory {
		if _, err := os.Stat(storyFile); err != nil {
			o.warn("Story %s is %s but %s is missing; falling back to create-story.", key, phase, storyFile)
			entry = models.StepCreateStory
		}
	}

	if entry != models.StepCreateStory {
		o.notice("Resuming story %s at %s (status %s).", key, entry.Label(), phase)
	}

	if o.cfg.DryRun {
		o.notice("DRY RUN: would run story %s starting at %s.", key, entry.Label())
		return storyStop
	}

	if entry == models.StepCreateStory {
		res, logFile, err := o.runStep(ctx, runID, state, models.StepCreateStory, "", committedSoFar)
		if err != nil {
			return storyStop
		}
		if res.HasMarker(models.MarkerNoBacklogStories) {
			o.notice("Agent reports no backlog stories remain.")
			return storyStop
		}
		if !res.Success {
			o.failStep(res, logFile)
			return storyStop
		}

		status, err := o.refreshStats()
		if err != nil {
			o.warn("Reload sprint status after create-story: %v", err)
			return storyStop
		}
		if got := status.StoryStatus(key); got != sprint.StatusReadyForDev {
			o.warn("Story %s is %q after create-story, expected %q. Stopping.", key, got, sprint.StatusReadyForDev)
			return storyStop
		}
	}

	// A dirty tree on dev resume usually means a previous session died
	// mid-edit. Give the operator a moment to abort before the agent
	// builds on top of it.
	if entry == models.StepDevStory && o.git != nil {
		if stat, err := o.git.DiffStat(); err == nil && stat != "" {
			o.warn("Working tree has uncommitted changes from an interrupted session:\n%s", stat)
			o.countdown(ctx, "Resuming dev in", o.dirtyPause)
			if ctx.Err() != nil {
				return storyStop
			}
		}
	}

	storyPathHint := fmt.Sprintf("STORY_PATH: %s", storyFile)
	done := false

	for round := 1; round <= o.cfg.MaxReviewRounds; round++ {
		state.CurrentRound = round

		// Resuming at code-review means dev already ran before the crash.
		skipDev := entry == models.StepCodeReview && round == 1

		if !skipDev {
			extra := ""
			if round > 1 || entry != models.StepCreateStory {
				extra = storyPathHint
			}
			res, logFile, err := o.runStep(ctx, runID, state, models.StepDevStory, extra, committedSoFar)
			if err != nil {
				return storyStop
			}
			if res.HasMarker(models.MarkerNoReadyStories) {
				o.notice("Agent reports no ready stories remain.")
				return storyStop
			}
			if !res.Success {
				o.failStep(res, logFile)
				return storyStop
			}

			status, err := o.refreshStats()
			if err != nil {
				o.warn("Reload sprint status after dev-story: %v", err)
				return storyStop
			}
			if got := status.StoryStatus(key); got != sprint.StatusReview {
				o.warn("Story %s is %q after dev-story, expected %q. Continuing to review anyway.", key, got, sprint.StatusReview)
			}
		}

		res, logFile, err := o.runStep(ctx, runID, state, models.StepCodeReview, storyPathHint, committedSoFar)
		if err != nil {
			return storyStop
		}
		if !res.Success {
			o.failStep(res, logFile)
			return storyStop
		}

		status, err := o.refreshStats()
		if err != nil {
			o.warn("Reload sprint status after code-review: %v", err)
			return storyStop
		}
		if status.StoryStatus(key) == sprint.StatusDone {
			done = true
			break
		}

		if round < o.cfg.MaxReviewRounds {
			o.notice("Review round %d found issues; returning story %s to dev.", round, key)
		}
	}

	if !done {
		o.warn("Story %s not done after %d review round(s). Stopping; the story stays resumable.", key, o.cfg.MaxReviewRounds)
		return storyStop
	}

	state.CurrentStep = models.StepCommit
	o.pushProgress(state, committedSoFar)
	res := o.sessions.RunCommit(ctx, storyID, key, storyFile)
	state.StepResults = append(state.StepResults, res)
	o.record(runID, res, state.CurrentRound, "")
	if !res.Success {
		o.warn("Commit for story %s failed; it stays done-but-uncommitted until the next startup.", key)
		return storyContinue
	}

	o.notice("Story %s committed.", key)
	return storyCommitted
}

// runStep runs one agent session for a step. A non-nil error means the
// session could not run or the operator canceled; session-level failure
// is reported through the result.
func (o *Orchestrator) runStep(ctx context.Context, runID string, state *models.StoryState, step models.StepKind, extra string, committedSoFar int) (models.StepResult, string, error) {
	prompt, err := session.PromptFor(step)
	if err != nil {
		o.warn("Load prompt for %s: %v", step, err)
		return models.StepResult{Kind: step, StoryKey: state.StoryKey}, "", err
	}

	maxTurns, model := o.stepLimits(step)
	state.CurrentStep = step
	o.pushProgress(state, committedSoFar)

	logFile := o.sessionLogFile(state.StoryKey, step, state.CurrentRound)
	o.logger.Log("running %s for %s (round %d, log %s)", step, state.StoryKey, state.CurrentRound, logFile)

	res, err := o.sessions.Run(ctx, session.Request{
		Step:        step,
		StoryKey:    state.StoryKey,
		Prompt:      prompt,
		ExtraPrompt: extra,
		LogFile:     logFile,
		MaxTurns:    maxTurns,
		Model:       model,
	})
	state.StepResults = append(state.StepResults, res)
	o.record(runID, res, state.CurrentRound, logFile)
	o.pushProgress(state, committedSoFar)

	if err != nil {
		if ctx.Err() == nil {
			o.warn("Session %s for %s failed to run: %v", step, state.StoryKey, err)
		}
		return res, logFile, err
	}
	return res, logFile, nil
}

// stepLimits returns the turn budget and model for a step.
func (o *Orchestrator) stepLimits(step models.StepKind) (int, string) {
	switch step {
	case models.StepCreateStory:
		return o.cfg.MaxTurnsCS, o.cfg.DevModel
	case models.StepDevStory:
		return o.cfg.MaxTurnsDS, o.cfg.DevModel
	case models.StepCodeReview:
		return o.cfg.MaxTurnsCR, o.cfg.ReviewModel
	default:
		return 0, ""
	}
}

// failStep reports a failed step with enough context to debug it.
func (o *Orchestrator) failStep(res models.StepResult, logFile string) {
	if res.HasMarker(models.MarkerHalt) {
		reason := ""
		for _, m := range res.Markers {
			if m.Type == models.MarkerHalt {
				reason = m.Payload
				break
			}
		}
		o.warn("Agent requested HALT during %s for %s: %s", res.Kind.Label(), res.StoryKey, reason)
		return
	}
	o.warn("%s failed for %s. See %s", res.Kind.Label(), res.StoryKey, logFile)
}

// pushProgress publishes the current story position to the UI.
func (o *Orchestrator) pushProgress(state *models.StoryState, committedSoFar int) {
	o.ui.UpdateProgress(Progress{
		StoryKey:    state.StoryKey,
		StoryID:     state.StoryID,
		Step:        state.CurrentStep,
		Round:       state.CurrentRound,
		MaxRounds:   o.cfg.MaxReviewRounds,
		StoriesDone: committedSoFar,
		StartedAt:   state.StartedAt,
		CostUSD:     state.TotalCostUSD(),
	})
}
