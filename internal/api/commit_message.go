package api

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mazzeb/bmad-ralph-loop/internal/git"
)

// maxStoryExcerpt bounds how much of the story file goes into the prompt.
const maxStoryExcerpt = 4000

const commitSystemPrompt = "You write git commit messages. " +
	"Output only the commit message, nothing else."

// CommitWriter generates commit messages for finished stories via the
// Anthropic API. Unlike the CLI path it cannot run tools, so the staged
// diff stat and a story excerpt are inlined into the prompt.
type CommitWriter struct {
	client *Client
	git    git.DiffOperations
}

// NewCommitWriter creates a CommitWriter.
func NewCommitWriter(client *Client, gitRunner git.DiffOperations) *CommitWriter {
	return &CommitWriter{client: client, git: gitRunner}
}

// GenerateCommitMessage implements session.CommitMessageGenerator.
func (w *CommitWriter) GenerateCommitMessage(ctx context.Context, storyID, storyKey, storyFile string) (string, error) {
	diffStat := ""
	if w.git != nil {
		if stat, err := w.git.DiffCachedStat(); err == nil {
			diffStat = stat
		}
	}

	excerpt := ""
	if data, err := os.ReadFile(storyFile); err == nil {
		excerpt = string(data)
		if len(excerpt) > maxStoryExcerpt {
			excerpt = excerpt[:maxStoryExcerpt]
		}
	}

	prompt := fmt.Sprintf(`Generate a git commit message for this story implementation.

Story ID: %s
Story key: %s

Staged changes:
%s

Story file:
%s

Rules:
- First line: feat(story-%s): <concise description of what was built>
- Empty line, then 3-6 bullet points summarizing the key changes
- Keep it factual, describe what was implemented, not the process
- Max 20 words for the first line`, storyID, storyKey, diffStat, excerpt, storyID)

	msg, err := w.client.complete(ctx, commitSystemPrompt, prompt, 1024)
	if err != nil {
		return "", err
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "", fmt.Errorf("empty commit message from API")
	}
	return msg, nil
}
