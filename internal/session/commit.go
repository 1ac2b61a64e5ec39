package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// CommitMessageGenerator produces a commit message for a finished story.
// Implementations may call the Anthropic API directly; errors degrade to
// the CLI path and finally the templated fallback.
type CommitMessageGenerator interface {
	GenerateCommitMessage(ctx context.Context, storyID, storyKey, storyFile string) (string, error)
}

// commitMsgTurns bounds the one-shot message generation session.
const commitMsgTurns = 5

// RunCommit stages all working-tree changes and commits the finished
// story. The message comes from the configured generator, then a one-shot
// claude call, then a fixed template; generation failures never block
// the commit itself. Commit failure is reported through Success; the
// retry policy lives in the orchestrator.
func (r *Runner) RunCommit(ctx context.Context, storyID, storyKey, storyFile string) models.StepResult {
	result := models.StepResult{Kind: models.StepCommit, StoryKey: storyKey}

	if err := r.git.AddAll(); err != nil {
		r.sink.HandleEvent(models.TextEvent{Text: fmt.Sprintf("WARNING: git add failed: %v", err)})
	}

	msg := r.commitMessage(ctx, storyID, storyKey, storyFile)

	err := r.git.Commit(msg)
	result.Success = err == nil
	if result.Success {
		r.sink.HandleEvent(models.TextEvent{Text: fmt.Sprintf("Committed: story-%s", storyID)})
	} else {
		r.sink.HandleEvent(models.TextEvent{Text: fmt.Sprintf("Commit failed: story-%s: %v", storyID, err)})
	}
	return result
}

// commitMessage runs the generator chain and always returns a usable message.
func (r *Runner) commitMessage(ctx context.Context, storyID, storyKey, storyFile string) string {
	if r.msgGen != nil {
		if msg, err := r.msgGen.GenerateCommitMessage(ctx, storyID, storyKey, storyFile); err == nil {
			if msg = strings.TrimSpace(msg); msg != "" {
				return msg
			}
		}
	}

	if r.cmd != nil {
		prompt := commitMessagePrompt(storyID, storyKey, storyFile)
		r.sink.SessionActive(true)
		out, err := r.cmd.Output(ctx, r.cfg.ProjectDir, r.claudeBin,
			"-p", prompt,
			"--max-turns", fmt.Sprintf("%d", commitMsgTurns),
			"--dangerously-skip-permissions",
		)
		r.sink.SessionActive(false)
		if err == nil {
			if msg := strings.TrimSpace(string(out)); msg != "" {
				return msg
			}
		}
	}

	return fallbackCommitMessage(storyID, storyKey)
}

// commitMessagePrompt builds the one-shot message-generation prompt.
func commitMessagePrompt(storyID, storyKey, storyFile string) string {
	return fmt.Sprintf(`Generate a git commit message for this story implementation.

Story ID: %s
Story key: %s
Story file: %s

Rules:
- First line: feat(story-%s): <concise description of what was built>
- Empty line, then 3-6 bullet points summarizing the key changes
- Keep it factual, describe what was implemented, not the process
- Max 20 words for the first line

Read the story file at %s and run 'git diff --cached --stat' to understand what changed.
Output ONLY the commit message, nothing else.`, storyID, storyKey, storyFile, storyID, storyFile)
}

// fallbackCommitMessage is the fixed template used when generation fails.
// It references only the story id and key, so commit-gap detection can
// still find it in history.
func fallbackCommitMessage(storyID, storyKey string) string {
	return fmt.Sprintf("feat(story-%s): implement %s", storyID, storyKey)
}
