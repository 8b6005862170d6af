package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const DefaultDebounce = 300 * time.Millisecond

// Change lists the watched files touched during one debounce window, by base
// name and sorted.
type Change struct {
	Files []string
}

// Has reports whether name is among the changed files.
func (c Change) Has(name string) bool {
	for _, f := range c.Files {
		if f == name {
			return true
		}
	}
	return false
}

// FSWatcher watches one directory for changes to selected files.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	files    FileSet
	debounce time.Duration
	onChange func(Change)
	log      zerolog.Logger
}

// NewFSWatcher watches dir for the named files. Temp files from atomic
// writes are ignored; the rename that completes them surfaces as a create
// of the target.
func NewFSWatcher(dir string, files []string, debounce time.Duration, onChange func(Change), logger zerolog.Logger) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FSWatcher{
		watcher:  w,
		files:    NewFileSet(files...),
		debounce: debounce,
		onChange: onChange,
		log:      logger,
	}, nil
}

// Run blocks until ctx is cancelled. Watcher errors are logged and do not
// stop the loop.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()
	w.log.Debug().Strs("files", w.files.Names()).Msg("watching workspace files")

	debouncer := NewDebouncer(w.debounce, func(files []string) {
		w.log.Debug().Strs("files", files).Msg("workspace files changed")
		if w.onChange != nil {
			w.onChange(Change{Files: files})
		}
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Op) || !w.files.Contains(event.Name) {
				continue
			}
			debouncer.Trigger(filepath.Base(event.Name))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
