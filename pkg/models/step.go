package models

import "time"

// StepKind identifies one step of the story cycle.
type StepKind string

const (
	// StepCreateStory drafts the next story from the backlog.
	StepCreateStory StepKind = "create-story"
	// StepDevStory implements the story.
	StepDevStory StepKind = "dev-story"
	// StepCodeReview validates the implementation; may loop back to dev.
	StepCodeReview StepKind = "code-review"
	// StepCommit commits the finished story.
	StepCommit StepKind = "commit"
)

// Label returns the short display label used in logs and the dashboard.
func (k StepKind) Label() string {
	switch k {
	case StepCreateStory:
		return "CS"
	case StepDevStory:
		return "DS"
	case StepCodeReview:
		return "CR"
	case StepCommit:
		return "Commit"
	default:
		return string(k)
	}
}

// StepResult is the structured outcome of one step session.
type StepResult struct {
	// Kind is the step that ran.
	Kind StepKind
	// StoryKey is the story this step ran for.
	StoryKey string
	// DurationMS is the session duration reported by the CLI.
	DurationMS int
	// NumTurns is the number of agent turns consumed.
	NumTurns int
	// CostUSD is the session cost, nil when not reported.
	CostUSD *float64
	// Markers lists every orchestration marker observed during the session.
	Markers []MarkerEvent
	// Success is true iff the process exited zero and no HALT was observed.
	Success bool
}

// HasMarker returns true if a marker of the given type was observed.
func (r StepResult) HasMarker(t MarkerType) bool {
	for _, m := range r.Markers {
		if m.Type == t {
			return true
		}
	}
	return false
}

// StoryState tracks one story's progress through the cycle. It is owned by
// the orchestrator, never persisted: after a crash it is reconstructed from
// the sprint status record.
type StoryState struct {
	StoryKey     string
	StoryID      string
	CurrentStep  StepKind
	CurrentRound int
	StepResults  []StepResult
	StartedAt    time.Time
}

// NewStoryState creates the state for a freshly picked-up story.
func NewStoryState(storyKey, storyID string) *StoryState {
	return &StoryState{
		StoryKey:     storyKey,
		StoryID:      storyID,
		CurrentRound: 1,
		StartedAt:    time.Now().UTC(),
	}
}

// TotalCostUSD sums the reported costs of all recorded steps.
// Returns nil when no step reported a cost.
func (s *StoryState) TotalCostUSD() *float64 {
	var total float64
	seen := false
	for _, r := range s.StepResults {
		if r.CostUSD != nil {
			total += *r.CostUSD
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return &total
}
