package cli

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/toyz/ngmod/internal/errors"
	"github.com/toyz/ngmod/internal/log"
	"github.com/toyz/ngmod/internal/utils"
)

// Watcher turns file system events on metadata files into debounced change-sets
type Watcher struct {
	fsw      *fsnotify.Watcher
	scanner  *MetadataScanner
	outDir   string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher watches dirs and every directory below them, except the output root
func NewWatcher(dirs []string, scanner *MetadataScanner, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapFileSystemError("watch", "", err)
	}
	if logger == nil {
		logger = log.Discard()
	}
	w := &Watcher{
		fsw:      fsw,
		scanner:  scanner,
		outDir:   scanner.outputDir,
		debounce: debounce,
		logger:   logger,
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if _, err := w.addTree(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run delivers a change-set to notify whenever no event arrived for the
// debounce period. It returns when ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, notify func(context.Context, ChangeSet)) error {
	pending := newBatch()
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			if pending.isEmpty() {
				continue
			}
			cs := ChangeSet{Changed: sortedSet(pending.changed), Removed: sortedSet(pending.removed)}
			pending = newBatch()
			w.logger.Debug("change-set ready", "changed", len(cs.Changed), "removed", len(cs.Removed))
			notify(ctx, cs)
		}
	}
}

// handle records one event and reports whether the batch changed
func (w *Watcher) handle(event fsnotify.Event, pending *batch) bool {
	path := filepath.Clean(event.Name)
	if utils.IsWithin(w.outDir, path) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			files, err := w.addTree(path)
			if err != nil {
				w.logger.Warn("cannot watch directory", "dir", path, "error", err)
			}
			pending.merge(ChangeSet{Changed: files})
			return len(files) > 0
		}
	}

	if !w.scanner.Matches(path) {
		return false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		pending.merge(ChangeSet{Removed: []string{path}})
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		pending.merge(ChangeSet{Changed: []string{path}})
	default:
		return false
	}
	w.logger.Log(context.Background(), log.LevelTrace, "metadata event", "op", event.Op.String(), "file", path)
	return true
}

// addTree watches root and its subdirectories and returns the metadata
// files already present below it
func (w *Watcher) addTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if utils.IsWithin(w.outDir, path) {
				return filepath.SkipDir
			}
			return w.fsw.Add(path)
		}
		if w.scanner.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return files, errors.WrapFileSystemError("watch", root, err)
	}
	return files, nil
}
