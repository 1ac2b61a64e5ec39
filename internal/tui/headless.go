package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/mazzeb/bmad-ralph-loop/internal/orchestrator"
	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// Printer is the headless UI: plain line output for CI and log capture.
type Printer struct {
	mu           sync.Mutex
	out          io.Writer
	showThinking bool

	lastCountdown string
}

// NewPrinter creates a headless printer writing to out.
func NewPrinter(out io.Writer, showThinking bool) *Printer {
	return &Printer{out: out, showThinking: showThinking}
}

var (
	headlessStep    = color.New(color.FgYellow, color.Bold)
	headlessStats   = color.New(color.FgCyan)
	headlessDone    = color.New(color.FgGreen, color.Bold)
	headlessPartial = color.New(color.FgHiBlack)
)

func (p *Printer) HandleEvent(ev models.StreamEvent) {
	line := renderEvent(ev, p.showThinking)
	if line == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

func (p *Printer) SessionActive(bool) {}

func (p *Printer) UpdateProgress(prog orchestrator.Progress) {
	if prog.StoryKey == "" || prog.Step == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	headlessStep.Fprintf(p.out, "=== %s %s", prog.Step.Label(), prog.StoryKey)
	if prog.Step == models.StepDevStory || prog.Step == models.StepCodeReview {
		fmt.Fprintf(p.out, " (round %d/%d)", prog.Round, prog.MaxRounds)
	}
	fmt.Fprintln(p.out, " ===")
}

func (p *Printer) UpdateSprintStats(stats sprint.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	headlessStats.Fprintf(p.out, "sprint: epics %d/%d, stories %d/%d\n",
		stats.DoneEpics, stats.TotalEpics, stats.DoneStories, stats.TotalStories)
}

func (p *Printer) Countdown(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// The countdown ticks once a second; one line per tick is too noisy
	// for log capture, so print only the first tick of each pause.
	if msg != "" && p.lastCountdown == "" {
		headlessPartial.Fprintln(p.out, msg)
	}
	p.lastCountdown = msg
}

func (p *Printer) Done(summary string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	headlessDone.Fprintln(p.out, summary)
}

// Verify Printer implements the UI boundary at compile time.
var _ orchestrator.UI = (*Printer)(nil)
