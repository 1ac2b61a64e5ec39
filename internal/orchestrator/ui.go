package orchestrator

import (
	"time"

	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// Progress describes where the run currently is. Pushed to the UI before
// every step session.
type Progress struct {
	StoryKey    string
	StoryID     string
	Step        models.StepKind
	Round       int
	MaxRounds   int
	StoriesDone int
	StartedAt   time.Time
	CostUSD     *float64
}

// UI receives everything the orchestrator wants a human to see. The
// bubbletea dashboard and the headless printer both implement it.
type UI interface {
	// HandleEvent receives every parsed stream event in arrival order.
	HandleEvent(ev models.StreamEvent)
	// SessionActive reports whether a subprocess is currently running.
	SessionActive(active bool)
	// UpdateProgress reports the current story, step, and round.
	UpdateProgress(p Progress)
	// UpdateSprintStats reports recomputed sprint counters.
	UpdateSprintStats(stats sprint.Stats)
	// Countdown shows a transient countdown line; empty clears it.
	Countdown(msg string)
	// Done reports the final run summary.
	Done(summary string)
}

// NopUI discards all updates.
type NopUI struct{}

func (NopUI) HandleEvent(models.StreamEvent) {}
func (NopUI) SessionActive(bool) {}
func (NopUI) UpdateProgress(Progress) {}
func (NopUI) UpdateSprintStats(sprint.Stats) {}
func (NopUI) Countdown(string) {}
func (NopUI) Done(string) {}
