package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mazzeb/bmad-ralph-loop/internal/orchestrator"
	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// NewProgram creates the dashboard program. Messages arrive via Send,
// so the orchestrator can run in a separate goroutine.
func NewProgram(showThinking bool) (*tea.Program, *Dashboard) {
	d := NewDashboard(showThinking)
	p := tea.NewProgram(d, tea.WithAltScreen())
	return p, d
}

// Adapter bridges the orchestrator UI boundary to a running bubbletea
// program. All methods are safe to call from any goroutine.
type Adapter struct {
	program *tea.Program
}

// NewAdapter creates an Adapter for a program.
func NewAdapter(program *tea.Program) *Adapter {
	return &Adapter{program: program}
}

func (a *Adapter) HandleEvent(ev models.StreamEvent) {
	a.program.Send(EventMsg{Event: ev})
}

func (a *Adapter) SessionActive(active bool) {
	a.program.Send(SessionActiveMsg{Active: active})
}

func (a *Adapter) UpdateProgress(p orchestrator.Progress) {
	a.program.Send(ProgressMsg{Progress: p})
}

func (a *Adapter) UpdateSprintStats(stats sprint.Stats) {
	a.program.Send(SprintStatsMsg{Stats: stats})
}

func (a *Adapter) Countdown(msg string) {
	a.program.Send(CountdownMsg{Text: msg})
}

func (a *Adapter) Done(summary string) {
	a.program.Send(DoneMsg{Summary: summary})
}

// Verify Adapter implements the UI boundary at compile time.
var _ orchestrator.UI = (*Adapter)(nil)
