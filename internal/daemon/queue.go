package daemon

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// SaveFunc persists one snapshot of the live windows.
type SaveFunc func() error

// SnapshotQueue runs snapshot-and-save requests on a single consumer
// goroutine. Requests arriving while a save is pending collapse into it, so
// a burst of window destructions produces at most one extra write.
type SnapshotQueue struct {
	save    SaveFunc
	logger  *slog.Logger
	pending chan struct{}
	saves   atomic.Int64
}

// NewSnapshotQueue creates a queue that calls save for every batch of
// requests.
func NewSnapshotQueue(save SaveFunc, logger *slog.Logger) *SnapshotQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotQueue{
		save:    save,
		logger:  logger,
		pending: make(chan struct{}, 1),
	}
}

// Request schedules a save. It never blocks.
func (q *SnapshotQueue) Request() {
	select {
	case q.pending <- struct{}{}:
	default:
	}
}

// Saves returns the number of completed save attempts.
func (q *SnapshotQueue) Saves() int64 {
	return q.saves.Load()
}

// Run consumes requests until ctx is cancelled. A request still pending at
// cancellation is flushed before returning.
func (q *SnapshotQueue) Run(ctx context.Context) {
	q.logger.Debug("snapshot queue started")
	for {
		select {
		case <-ctx.Done():
			select {
			case <-q.pending:
				q.runOnce()
			default:
			}
			q.logger.Debug("snapshot queue stopped")
			return
		case <-q.pending:
			q.runOnce()
		}
	}
}

func (q *SnapshotQueue) runOnce() {
	defer func() {
		if err := recover(); err != nil {
			q.logger.Error("snapshot queue panic recovered", "error", err)
		}
	}()
	defer q.saves.Add(1)

	if err := q.save(); err != nil {
		q.logger.Error("failed to save window state", "error", err)
	}
}
