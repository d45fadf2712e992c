package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a Config current with its file. A reload that fails keeps the
// previous configuration.
type Watcher struct {
	path string
	log  *slog.Logger

	mu  sync.RWMutex
	cfg Config

	watcher *fsnotify.Watcher
}

// NewWatcher starts watching the directory of path. The directory is watched
// rather than the file so that editors replacing the file are noticed.
func NewWatcher(path string, initial Config, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{path: path, log: log, cfg: initial, watcher: fw}, nil
}

// Current returns the latest successfully loaded configuration.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// Reload re-reads the file now.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.cfg = cfg
	w.mu.Unlock()
	w.log.Info("config: reloaded", "path", w.path, "aliases", len(cfg.Aliases))
	return nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := w.Reload(); err != nil {
					w.log.Warn("config: failed to reload, keeping previous", "path", w.path, "err", err)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config: watcher error", "err", err)
		}
	}
}

// Close stops the file watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
