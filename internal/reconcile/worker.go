// Package reconcile periodically recomputes the denormalized skill counters.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/terra-clan/skillhub/internal/lock"
)

// LockKey guards a cycle so only one replica reconciles at a time
const LockKey = "skillhub:lock:reconcile"

// Reconciler recomputes every skill's counters and reports how many changed
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// Worker handles periodic reconciliation of like and comment counters
type Worker struct {
	reconciler Reconciler
	locker     lock.Locker
	interval   time.Duration
}

// NewWorker creates a new reconcile worker. A nil locker runs every cycle unguarded.
func NewWorker(reconciler Reconciler, locker lock.Locker, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Worker{
		reconciler: reconciler,
		locker:     locker,
		interval:   interval,
	}
}

// Start begins the worker in a goroutine. The returned channel closes when it stops.
func (w *Worker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.run(ctx)
	}()
	return done
}

// run is the main loop for the worker
func (w *Worker) run(ctx context.Context) {
	slog.Info("reconcile worker started", "interval", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run immediately on start
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs one reconciliation cycle and returns the number of corrected skills.
// A cycle held by another replica is skipped.
func (w *Worker) RunOnce(ctx context.Context) int {
	slog.Debug("running reconcile cycle")

	if w.locker != nil {
		unlock, err := w.locker.Lock(ctx, LockKey)
		if err != nil {
			if errors.Is(err, lock.ErrNotAcquired) {
				slog.Debug("reconcile cycle held elsewhere, skipping")
			} else if ctx.Err() == nil {
				slog.Error("failed to acquire reconcile lock", "error", err)
			}
			return 0
		}
		defer unlock()
	}

	start := time.Now()
	fixed, err := w.reconciler.ReconcileAll(ctx)
	if err != nil {
		slog.Error("reconcile cycle failed", "error", err, "fixed", fixed)
		return fixed
	}

	if fixed == 0 {
		slog.Debug("counters consistent")
		return 0
	}

	slog.Info("reconciled skill counters", "fixed", fixed, "duration_ms", time.Since(start).Milliseconds())
	return fixed
}
