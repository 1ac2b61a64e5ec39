package models

import "time"

// SessionConfig holds the parameters for one run of the story loop.
type SessionConfig struct {
	// ProjectDir is the project root the agent sessions run in.
	ProjectDir string
	// MaxStories bounds the number of stories processed in one run.
	MaxStories int
	// MaxTurnsCS bounds agent turns for create-story sessions.
	MaxTurnsCS int
	// MaxTurnsDS bounds agent turns for dev-story sessions.
	MaxTurnsDS int
	// MaxTurnsCR bounds agent turns for code-review sessions.
	MaxTurnsCR int
	// MaxReviewRounds bounds dev→review rounds per story.
	MaxReviewRounds int
	// DevModel selects the model for create-story and dev-story ("" = default).
	DevModel string
	// ReviewModel selects the model for code review ("" = default).
	ReviewModel string
	// DryRun reports resume decisions without spawning sessions.
	DryRun bool
	// ShowThinking displays thinking blocks in the activity log.
	ShowThinking bool
	// SessionTimeout bounds a single agent session.
	SessionTimeout time.Duration
	// PauseBetweenStories is the countdown between committed stories.
	PauseBetweenStories time.Duration
}

// DefaultSessionConfig returns the built-in defaults for projectDir.
func DefaultSessionConfig(projectDir string) SessionConfig {
	return SessionConfig{
		ProjectDir:          projectDir,
		MaxStories:          999,
		MaxTurnsCS:          100,
		MaxTurnsDS:          200,
		MaxTurnsCR:          150,
		MaxReviewRounds:     3,
		SessionTimeout:      30 * time.Minute,
		PauseBetweenStories: 5 * time.Second,
	}
}
