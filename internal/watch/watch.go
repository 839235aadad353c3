// Package watch reruns a build whenever one of its input files changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/specialistvlad/gridmake/internal/ctxlog"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before rebuilding.
const DefaultDebounce = 100 * time.Millisecond

// RebuildFunc is called with the changed files, sorted.
type RebuildFunc func(ctx context.Context, changed []string) error

// Watcher tracks a set of files. Directories are watched rather than the
// files themselves so that editors that replace a file on save are seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
}

// New creates a watcher for paths.
func New(debounce time.Duration, paths ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		fs:       fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: debounce,
	}
	if err := w.Add(paths...); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Add starts tracking more files.
func (w *Watcher) Add(paths ...string) error {
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if w.dirs[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		w.dirs[dir] = true
	}
	return nil
}

// Files returns the tracked files, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run blocks until ctx is done, calling rebuild after each settled burst of
// changes to tracked files. A failed rebuild is logged and watching goes on.
func (w *Watcher) Run(ctx context.Context, rebuild RebuildFunc) error {
	logger := ctxlog.FromContext(ctx)
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(ev.Name)
			if !w.files[name] {
				continue
			}
			logger.Debug("File event.", "path", name, "op", ev.Op.String())
			pending[name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("File watcher error.", "error", err)

		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			if len(changed) == 0 {
				continue
			}
			logger.Info("Change detected, rebuilding.", "files", changed)
			if err := rebuild(ctx, changed); err != nil {
				logger.Error("Rebuild failed.", "error", err)
			}
		}
	}
}
