package tui

import (
	"fmt"
	"strings"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// maxLineLen bounds a rendered activity line before width styling.
const maxLineLen = 160

// renderEvent turns a stream event into one activity-log line.
// Returns "" for events that should not be displayed.
func renderEvent(ev models.StreamEvent, showThinking bool) string {
	switch e := ev.(type) {
	case models.InitEvent:
		return fmt.Sprintf("● session started (model %s, %d tools)", e.Model, len(e.Tools))
	case models.ToolUseEvent:
		if e.InputSummary == "" {
			return "→ " + e.ToolName
		}
		return firstLine(fmt.Sprintf("→ %s %s", e.ToolName, e.InputSummary))
	case models.ToolResultEvent:
		if e.ContentSummary == "" {
			return ""
		}
		return firstLine("← " + e.ContentSummary)
	case models.TextEvent:
		if e.IsThinking {
			if !showThinking {
				return ""
			}
			return firstLine("~ " + e.Text)
		}
		return firstLine(e.Text)
	case models.MarkerEvent:
		if e.Payload == "" {
			return fmt.Sprintf("◆ %s", e.Type)
		}
		return firstLine(fmt.Sprintf("◆ %s %s", e.Type, e.Payload))
	case models.ResultEvent:
		if e.IsError {
			return fmt.Sprintf("✗ session failed (%s)", e.Subtype)
		}
		line := fmt.Sprintf("✓ session done in %s, %d turns", formatDurationMS(e.DurationMS), e.NumTurns)
		if e.CostUSD != nil {
			line += fmt.Sprintf(", $%.4f", *e.CostUSD)
		}
		return line
	case models.RateLimitEvent:
		if e.ResetsAt != nil {
			return fmt.Sprintf("⚠ rate limit %s, resets %s", e.Status, e.ResetsAt.Format("15:04:05"))
		}
		return fmt.Sprintf("⚠ rate limit %s", e.Status)
	default:
		// System and unknown events stay in the raw session log only.
		return ""
	}
}

// firstLine truncates to the first line and a sane width.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > maxLineLen {
		s = s[:maxLineLen-3] + "..."
	}
	return s
}

// formatDurationMS renders a millisecond duration as 1m23s style.
func formatDurationMS(ms int) string {
	secs := ms / 1000
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
}
