package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ReloadFunc receives every successfully reloaded configuration.
type ReloadFunc func(*Config)

// Watcher reloads the config file when it changes on disk. Editors often
// replace the file instead of writing it, so the parent directory is watched
// and events are filtered by name.
type Watcher struct {
	path   string
	logger *slog.Logger
	onLoad ReloadFunc
}

// NewWatcher returns a watcher for the config file at path.
func NewWatcher(path string, logger *slog.Logger, onLoad ReloadFunc) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, logger: logger, onLoad: onLoad}
}

// Reload reads the file and hands the result to the callback. Invalid files
// are logged and the previous configuration stays in effect.
func (w *Watcher) Reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Warn("config: reload failed", slog.String("path", w.path), slog.String("error", err.Error()))
		return
	}
	w.logger.Info("config: reloaded", slog.String("path", w.path))
	if w.onLoad != nil {
		w.onLoad(cfg)
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := fw.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("config: watching", slog.String("path", w.path))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-timerCh:
			w.Reload()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config: watcher error", slog.String("error", werr.Error()))
		}
	}
}
