package session

import "github.com/mazzeb/bmad-ralph-loop/pkg/models"

// EventSink receives decoded stream events in arrival order. The TUI and
// the headless printer implement it; the runner never blocks on anything
// but the sink call itself, so implementations must be fast or buffer.
type EventSink interface {
	// HandleEvent delivers one decoded event.
	HandleEvent(ev models.StreamEvent)
	// SessionActive flags the start and end of a live subprocess.
	SessionActive(active bool)
}

// NopSink discards all events. Useful in tests and dry runs.
type NopSink struct{}

// HandleEvent implements EventSink.
func (NopSink) HandleEvent(models.StreamEvent) {}

// SessionActive implements EventSink.
func (NopSink) SessionActive(bool) {}
