// Package git provides an interface for git operations.
package git

// DiffOperations defines the interface for git diff and status operations.
type DiffOperations interface {
	// Status returns the output of git status --porcelain.
	Status() (string, error)
	// HasChanges returns true if there are uncommitted changes.
	HasChanges() (bool, error)
	// DiffStat returns the output of git diff --stat for the working tree.
	DiffStat() (string, error)
	// DiffCachedStat returns the output of git diff --cached --stat.
	DiffCachedStat() (string, error)
}

// CommitOperations defines the interface for git commit operations.
type CommitOperations interface {
	// AddAll stages every working-tree change (git add -A).
	AddAll() error
	// Commit creates a new commit with the given message.
	Commit(message string) error
}

// LogOperations defines the interface for git history queries.
type LogOperations interface {
	// LogContains returns true if any commit message across all refs
	// matches the grep term.
	LogContains(term string) (bool, error)
}

// Runner defines the complete interface for git operations.
// Consumers should prefer the focused interfaces when possible.
type Runner interface {
	DiffOperations
	CommitOperations
	LogOperations
}
