package orchestrator

import (
	"context"

	"github.com/mazzeb/bmad-ralph-loop/internal/sprint"
)

// repairCommitGap closes the window where a story reached done but the
// process died before its commit. It runs once per startup and commits
// at most one story: the most recent done story with no matching commit,
// and only when the working tree is actually dirty.
func (o *Orchestrator) repairCommitGap(ctx context.Context, runID string) {
	if o.git == nil {
		return
	}

	status, err := sprint.Load(o.statusPath())
	if err != nil {
		o.logger.Log("commit-gap check: load status: %v", err)
		return
	}

	done := status.DoneStories()
	if len(done) == 0 {
		return
	}

	dirty, err := o.git.HasChanges()
	if err != nil {
		o.logger.Log("commit-gap check: git status: %v", err)
		return
	}
	if !dirty {
		return
	}

	for _, key := range done {
		id := sprint.StoryIDFromKey(key)
		committed, err := o.git.LogContains("story-" + id)
		if err != nil {
			o.logger.Log("commit-gap check: git log: %v", err)
			return
		}
		if committed {
			continue
		}

		o.warn("Uncommitted changes belong to finished story %s. Committing before continuing.", key)
		if o.cfg.DryRun {
			o.notice("DRY RUN: would commit story %s", key)
			return
		}

		res := o.sessions.RunCommit(ctx, id, key, o.storyFilePath(key))
		o.record(runID, res, 0, "")
		if !res.Success {
			o.warn("Recovery commit for %s failed; will retry on next startup.", key)
		}
		return
	}
}
