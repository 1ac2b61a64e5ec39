// Package exec provides an interface for running external commands.
package exec

import (
	"context"
)

// CommandRunner defines the interface for running external commands.
// This abstraction allows mocking subprocess calls in tests.
type CommandRunner interface {
	// Run executes a command and returns combined stdout/stderr output.
	// The working directory is set to workDir if non-empty.
	Run(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)

	// Output executes a command and returns stdout only, discarding stderr.
	// Used where stderr noise must not corrupt the captured output, such
	// as commit-message generation.
	Output(ctx context.Context, workDir string, name string, args ...string) (output []byte, err error)
}
