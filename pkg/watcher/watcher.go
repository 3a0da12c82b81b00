// Package watcher reports file modifications below module directories.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/astral/pkg/errors"
	"github.com/arthur-debert/astral/pkg/logging"
)

// Handler receives the absolute path of a written or created file.
type Handler func(path string)

// Watcher watches directory trees recursively. Directories created while
// running are added to the watch list.
type Watcher struct {
	watcher *fsnotify.Watcher
	handler Handler
	logger  zerolog.Logger
}

// New starts watching every directory below roots.
func New(roots []string, handler Handler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to create file watcher")
	}

	w := &Watcher{
		watcher: fw,
		handler: handler,
		logger:  logging.GetLogger("watcher"),
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Watched returns the directories currently watched.
func (w *Watcher) Watched() []string {
	return w.watcher.WatchList()
}

// Run delivers events to the handler until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("File watcher error")
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	path, err := filepath.Abs(event.Name)
	if err != nil {
		w.logger.Error().Err(err).Str("path", event.Name).Msg("Could not resolve event path")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(path); err != nil {
				w.logger.Error().Err(err).Str("path", path).Msg("Could not watch new directory")
			}
		}
		return
	}

	w.logger.Debug().Str("path", path).Str("op", event.Op.String()).Msg("File modified")
	w.handler(path)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to watch %s", path)
		}
		return nil
	})
}
