package tokenstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports replacements of a token file.
//
// The parent directory is watched rather than the file itself: atomic writes
// rename a temp file over the token file, which would drop a file-level watch.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching the directory of path, creating it if needed.
// Events are only delivered once Run is called.
func NewWatcher(path string) (*Watcher, error) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, &IOError{Op: OpCreateDirectory, Path: dir, Err: err}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &Watcher{path: path, watcher: w}, nil
}

// Run calls onChange each time the token file is created or written, until ctx is
// done or the watcher fails. The watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "token file watcher error", "path", w.path, "error", err)
		}
	}
}
