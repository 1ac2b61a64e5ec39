// Package watch notifies the UI when the sprint status file changes on
// disk between sessions.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of events an editor or agent emits
// when it rewrites the status file.
const debounceWindow = 200 * time.Millisecond

// StatusWatcher invokes a callback when the watched file is created or
// written. Agents replace the file rather than editing it in place, so
// the watch is on the parent directory with a name filter.
type StatusWatcher struct {
	path     string
	onChange func()

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStatusWatcher starts watching path and calls onChange on each
// debounced create or write. Stop with Close or by canceling ctx.
func NewStatusWatcher(ctx context.Context, path string, onChange func()) (*StatusWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	w := &StatusWatcher{
		path:     path,
		onChange: onChange,
		watcher:  watcher,
		done:     make(chan struct{}),
	}
	go w.loop(ctx)
	return w, nil
}

func (w *StatusWatcher) loop(ctx context.Context) {
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, w.onChange)
		case <-w.watcher.Errors:
			// Keep watching; a missed change is repaired on the next
			// between-session reload anyway.
		}
	}
}

// Close stops the watcher.
func (w *StatusWatcher) Close() {
	close(w.done)
	w.watcher.Close()
}
