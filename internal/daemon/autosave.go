package daemon

import (
	"context"
	"log/slog"
	"time"
)

// ChangeSaver writes the current window state when it differs from the last
// write and reports whether it wrote.
type ChangeSaver interface {
	SaveIfChanged() (bool, error)
}

// AutosaverConfig holds configuration for the autosaver.
type AutosaverConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Autosaver periodically persists window moves and resizes, which are not
// structural events and would otherwise only reach disk with the next
// create or destroy.
type Autosaver struct {
	interval time.Duration
	saver    ChangeSaver
	logger   *slog.Logger
}

// NewAutosaver creates an autosaver. A non-positive interval defaults to 30s.
func NewAutosaver(cfg AutosaverConfig, saver ChangeSaver) *Autosaver {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Autosaver{
		interval: interval,
		saver:    saver,
		logger:   logger,
	}
}

// Run starts the autosave loop. Blocks until context is cancelled.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("autosaver started", "interval", a.interval)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("autosaver stopped")
			return
		case <-ticker.C:
			a.pass()
		}
	}
}

// SaveNow runs a single pass immediately.
func (a *Autosaver) SaveNow() {
	a.pass()
}

func (a *Autosaver) pass() {
	// Recover from panics to keep the application alive
	defer func() {
		if err := recover(); err != nil {
			a.logger.Error("autosaver panic recovered", "error", err)
		}
	}()

	wrote, err := a.saver.SaveIfChanged()
	if err != nil {
		a.logger.Error("autosaver: failed to save window state", "error", err)
		return
	}
	if wrote {
		a.logger.Debug("autosaver: window state saved")
	}
}
