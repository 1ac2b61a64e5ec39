// Package models defines the event vocabulary and orchestration state
// shared across the stream parser, session runner, orchestrator and UI.
package models

import "time"

// StreamEvent is a single decoded event from a Claude CLI stream-json line.
// It is a closed union: every implementation lives in this package, and the
// parser produces exactly these variants.
type StreamEvent interface {
	streamEvent()
}

// InitEvent is emitted once at session start (system/init).
type InitEvent struct {
	// Model is the model identifier the session is running with.
	Model string
	// Tools lists the tool names available to the session.
	Tools []string
	// PermissionMode reports the CLI permission mode.
	PermissionMode string
	// SessionID is the CLI-assigned session identifier.
	SessionID string
}

// ToolUseEvent is emitted when the agent invokes a tool.
type ToolUseEvent struct {
	// ToolName is the tool being invoked (e.g. "Read", "Bash").
	ToolName string
	// InputSummary is a short human-readable summary of the tool input.
	InputSummary string
}

// ToolResultEvent is emitted when a tool invocation returns.
type ToolResultEvent struct {
	// ToolUseID references the originating tool invocation.
	ToolUseID string
	// ContentSummary is a truncated summary of the result content.
	ContentSummary string
}

// TextEvent carries assistant or user text. Thinking blocks are flagged
// so the UI can hide them unless requested.
type TextEvent struct {
	Text       string
	IsThinking bool
}

// ResultEvent is the terminal summary of a session.
type ResultEvent struct {
	DurationMS int
	NumTurns   int
	IsError    bool
	Subtype    string
	// CostUSD is nil when the CLI did not report a cost. Absence is not zero.
	CostUSD *float64
}

// RateLimitEvent reports rate limit state changes from the CLI.
type RateLimitEvent struct {
	Status string
	// ResetsAt is the absolute reset instant, nil if not reported.
	ResetsAt      *time.Time
	RateLimitType string
}

// SystemEvent covers non-init system messages (hooks, subagent spawns).
type SystemEvent struct {
	Subtype string
}

// MarkerEvent is an orchestration marker extracted from assistant text.
type MarkerEvent struct {
	Type    MarkerType
	Payload string
}

// UnknownEvent wraps any line the parser could not classify. Decoding is
// total: malformed input becomes an UnknownEvent, never an error.
type UnknownEvent struct {
	Raw string
}

func (InitEvent) streamEvent() {}
func (ToolUseEvent) streamEvent() {}
func (ToolResultEvent) streamEvent() {}
func (TextEvent) streamEvent() {}
func (ResultEvent) streamEvent() {}
func (RateLimitEvent) streamEvent() {}
func (SystemEvent) streamEvent() {}
func (MarkerEvent) streamEvent() {}
func (UnknownEvent) streamEvent() {}

