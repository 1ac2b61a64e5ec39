package session

import (
	"embed"
	"fmt"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

//go:embed prompts/*.md
var promptFS embed.FS

var promptFiles = map[models.StepKind]string{
	models.StepCreateStory: "prompts/create-story.md",
	models.StepDevStory:    "prompts/dev-story.md",
	models.StepCodeReview:  "prompts/code-review.md",
}

// PromptFor returns the embedded instruction payload for a step.
// The content is opaque to the engine; only the marker contract matters.
func PromptFor(step models.StepKind) (string, error) {
	name, ok := promptFiles[step]
	if !ok {
		return "", fmt.Errorf("no prompt for step %q", step)
	}
	data, err := promptFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read prompt for %s: %w", step, err)
	}
	return string(data), nil
}
