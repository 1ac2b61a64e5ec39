// Package tui provides the terminal dashboard for ralph-loop.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mazzeb/bmad-ralph-loop/internal/orchestrator"
	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// maxActivityLines caps the retained activity log.
const maxActivityLines = 500

// EventMsg carries one parsed stream event.
type EventMsg struct {
	Event models.StreamEvent
}

// ProgressMsg carries the current story position.
type ProgressMsg struct {
	Progress orchestrator.Progress
}

// SprintStatsMsg carries recomputed sprint counters.
type SprintStatsMsg struct {
	Stats sprint.Stats
}

// CountdownMsg carries a transient countdown line; empty clears it.
type CountdownMsg struct {
	Text string
}

// SessionActiveMsg reports whether a subprocess is running.
type SessionActiveMsg struct {
	Active bool
}

// DoneMsg signals that the run has completed.
type DoneMsg struct {
	Summary string
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true)
	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFC857")).
			Bold(true)
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96E6A1")).
			Bold(true)
	countdownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF8E53"))
)

// Dashboard is the bubbletea model for the live run view.
type Dashboard struct {
	showThinking bool

	width  int
	height int

	spin          spinner.Model
	sessionActive bool

	stats    sprint.Stats
	progress orchestrator.Progress

	lines     []string
	countdown string

	done     bool
	summary  string
	quitting bool
}

// NewDashboard creates a Dashboard.
func NewDashboard(showThinking bool) *Dashboard {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4"))
	return &Dashboard{
		showThinking: showThinking,
		spin:         sp,
	}
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.spin.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.quitting = true
			return d, tea.Quit
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height

	case tickMsg:
		return d, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spin, cmd = d.spin.Update(msg)
		return d, cmd

	case EventMsg:
		if line := renderEvent(msg.Event, d.showThinking); line != "" {
			d.lines = append(d.lines, line)
			if len(d.lines) > maxActivityLines {
				d.lines = d.lines[len(d.lines)-maxActivityLines:]
			}
		}

	case ProgressMsg:
		d.progress = msg.Progress

	case SprintStatsMsg:
		d.stats = msg.Stats

	case CountdownMsg:
		d.countdown = msg.Text

	case SessionActiveMsg:
		d.sessionActive = msg.Active

	case DoneMsg:
		d.done = true
		d.summary = msg.Summary
	}

	return d, nil
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	if d.quitting {
		return ""
	}
	return d.viewHeader() + "\n" + d.viewActivity() + "\n" + d.viewFooter()
}

func (d *Dashboard) viewHeader() string {
	title := titleStyle.Render("ralph-loop")
	stats := statsStyle.Render(fmt.Sprintf("epics %d/%d  stories %d/%d",
		d.stats.DoneEpics, d.stats.TotalEpics,
		d.stats.DoneStories, d.stats.TotalStories))
	return title + "  " + stats
}

func (d *Dashboard) viewActivity() string {
	visible := d.activityHeight()
	start := 0
	if len(d.lines) > visible {
		start = len(d.lines) - visible
	}

	var view string
	for _, line := range d.lines[start:] {
		view += "  " + line + "\n"
	}
	return view
}

// activityHeight is the number of activity lines that fit between the
// header and footer.
func (d *Dashboard) activityHeight() int {
	h := d.height - 5
	if h < 5 {
		h = 20
	}
	return h
}

func (d *Dashboard) viewFooter() string {
	if d.done {
		return doneStyle.Render("✓ "+d.summary) + dimStyle.Render("  press q to exit")
	}

	var footer string
	if d.progress.StoryKey != "" {
		footer = fmt.Sprintf("%s  %s",
			stepStyle.Render(fmt.Sprintf("[%s]", d.progress.Step.Label())),
			d.progress.StoryKey)
		if d.progress.Step == models.StepDevStory || d.progress.Step == models.StepCodeReview {
			footer += dimStyle.Render(fmt.Sprintf("  round %d/%d", d.progress.Round, d.progress.MaxRounds))
		}
		if !d.progress.StartedAt.IsZero() {
			footer += dimStyle.Render("  " + time.Since(d.progress.StartedAt).Round(time.Second).String())
		}
		if d.progress.CostUSD != nil {
			footer += dimStyle.Render(fmt.Sprintf("  $%.4f", *d.progress.CostUSD))
		}
		footer += dimStyle.Render(fmt.Sprintf("  done %d", d.progress.StoriesDone))
	} else {
		footer = dimStyle.Render("waiting for first story...")
	}

	if d.sessionActive {
		footer = d.spin.View() + " " + footer
	} else {
		footer = "  " + footer
	}

	if d.countdown != "" {
		footer += "\n" + countdownStyle.Render(d.countdown)
	}
	return footer
}
