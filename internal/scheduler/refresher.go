package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task is one unit of periodic maintenance.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Refresher runs maintenance tasks on a fixed interval: catalog reloads, cache
// purges and stale resolution cleanup.
type Refresher struct {
	tasks    []Task
	interval time.Duration
	logger   *slog.Logger
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewRefresher creates a refresher. Tasks run in the order given.
func NewRefresher(interval time.Duration, logger *slog.Logger, tasks ...Task) *Refresher {
	return &Refresher{
		tasks:    tasks,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start runs every task once, then again on each tick until Stop is called or
// ctx is cancelled. It blocks.
func (r *Refresher) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("refresher disabled", "interval", r.interval)
		return
	}
	r.logger.Info("starting refresher", "interval", r.interval, "tasks", len(r.tasks))
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-r.stopChan:
			r.logger.Info("refresher stopped")
			return
		case <-ctx.Done():
			r.logger.Info("refresher stopping due to context cancellation")
			return
		}
	}
}

// Stop ends the loop. It is safe to call more than once.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

// RunOnce runs each task, logging failures without stopping the others.
func (r *Refresher) RunOnce(ctx context.Context) {
	for _, task := range r.tasks {
		started := time.Now()
		if err := task.Run(ctx); err != nil {
			r.logger.Error("maintenance task failed", "task", task.Name, "error", err)
			continue
		}
		r.logger.Debug("maintenance task completed", "task", task.Name, "duration_ms", time.Since(started).Milliseconds())
	}
}
