// Package txn runs multi-record writes as an ordered list of steps with
// compensating rollback.
package txn

import (
	"context"
	"fmt"
	"log/slog"
)

// Step is one write. A nil Compensate marks the step best-effort: its
// failure is logged and the run continues.
type Step struct {
	Name       string
	Forward    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Run executes steps in order. When a step with a compensation fails, the
// compensations of the completed steps run in reverse order and the step's
// error is returned. Compensation failures are logged, never returned.
func (w *Writer) Run(ctx context.Context, steps ...Step) error {
	var rollback []Step

	for _, step := range steps {
		err := step.Forward(ctx)
		if err == nil {
			if step.Compensate != nil {
				rollback = append(rollback, step)
			}
			continue
		}

		if step.Compensate == nil {
			w.logger.Warn("best-effort step failed", "step", step.Name, "error", err)
			continue
		}

		w.logger.Error("write step failed, rolling back", "step", step.Name, "completed", len(rollback), "error", err)
		w.compensate(ctx, rollback)
		return fmt.Errorf("%s: %w", step.Name, err)
	}
	return nil
}

func (w *Writer) compensate(ctx context.Context, done []Step) {
	// compensations must run even if the request context was cancelled
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if err := step.Compensate(ctx); err != nil {
			w.logger.Error("compensation failed, manual reconciliation needed", "step", step.Name, "error", err)
		}
	}
}
