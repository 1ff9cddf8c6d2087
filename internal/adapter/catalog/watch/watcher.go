// Package watch reloads the catalog when its source changes on disk.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor or copy produces.
const DefaultDebounce = 250 * time.Millisecond

// Reloader is notified after the watched path settles.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watcher triggers a Reloader on changes to a catalog file or music directory.
type Watcher struct {
	path     string
	reloader Reloader
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher for path. A zero debounce uses DefaultDebounce.
func New(path string, reloader Reloader, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		reloader: reloader,
		debounce: debounce,
		logger:   logger.With(slog.String("component", "catalog-watch"), slog.String("path", path)),
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
//
// A file is watched through its parent directory so that atomic replaces
// (write temp, rename) are seen. A directory is watched with its subdirectories.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.path)
	if err != nil {
		return errors.Wrapf(err, "stat %s", w.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer func() { _ = watcher.Close() }()

	isDir := info.IsDir()
	if isDir {
		err = addRecursive(watcher, w.path)
	} else {
		err = watcher.Add(filepath.Dir(w.path))
	}
	if err != nil {
		return errors.Wrapf(err, "watch %s", w.path)
	}

	w.logger.Info("watching catalog source")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event, isDir) {
				continue
			}
			if isDir && event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", slog.String("dir", event.Name), slog.String("error", err.Error()))
					}
				}
			}
			w.logger.Debug("catalog source changed", slog.String("event", event.String()))
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			if err := w.reloader.Reload(ctx); err != nil {
				w.logger.Error("catalog reload failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event, isDir bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if isDir {
		return !strings.HasPrefix(filepath.Base(event.Name), ".")
	}
	return filepath.Clean(event.Name) == w.path
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
