// Package watch implements --watch (SPEC_FULL.md §6): re-run a build
// function every time the spec file changes on disk, grounded on
// github.com/fsnotify/fsnotify the way the rest of the pack's long-running
// services watch config/schema files.
package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Run invokes build once immediately, then again every time path's
// directory reports a write or create event touching path, until ctx is
// canceled. build's error is reported through onError rather than
// aborting the watch loop, so a single bad edit doesn't kill --watch.
func Run(ctx context.Context, path string, build func() error, onError func(error)) error {
	if err := build(); err != nil {
		onError(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := build(); err != nil {
				onError(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onError(err)
		}
	}
}
