package order

import (
	"context"
	"errors"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/txn"
)

const maxConflictRetries = 3

// change is the outcome of one order operation, computed on a copy of the
// loaded order and persisted by commit.
type change struct {
	order        *domain.Order
	history      []*domain.HistoryEntry
	notify       []domain.NotificationRequest
	replaceItems bool
}

func (c *change) record(entry *domain.HistoryEntry) *change {
	c.history = append(c.history, entry)
	return c
}

func (c *change) notifyCustomer(o *domain.Order, t domain.NotificationType, p domain.NotificationPriority, meta map[string]any) *change {
	c.notify = append(c.notify, domain.NotificationRequest{
		OrderID:  o.ID,
		Address:  o.Customer.WhatsApp,
		Type:     t,
		Priority: p,
		Metadata: meta,
	})
	return c
}

// mutate loads the order, lets fn derive the change, and writes it under
// the version check. Conflicting concurrent writes are retried on a fresh
// copy; fn must therefore be free of side effects.
func (uc *DefaultOrderUsecase) mutate(ctx context.Context, orderID, op string, fn func(cur *domain.Order) (*change, error)) (*domain.Order, error) {
	for attempt := 1; ; attempt++ {
		cur, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}

		ch, err := fn(cur)
		if err != nil {
			uc.recordReject(err)
			return nil, err
		}

		err = uc.commit(ctx, op, cur, ch)
		if err == nil {
			uc.afterCommit(ctx, op, ch)
			return ch.order, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			uc.recordError(op, err)
			return nil, err
		}

		if uc.Metrics != nil {
			uc.Metrics.VersionConflictsTotal.Inc()
		}
		uc.Logger.Warn("order version conflict", "order_id", orderID, "operation", op, "attempt", attempt)
		if attempt >= maxConflictRetries {
			return nil, &domain.StateError{
				Code:    domain.CodeVersionConflict,
				Message: "order was modified concurrently, reload and retry",
				From:    cur.Status,
			}
		}
	}
}

// commit writes the order row first so a stale version aborts before
// anything else is touched.
func (uc *DefaultOrderUsecase) commit(ctx context.Context, op string, cur *domain.Order, ch *change) error {
	next := ch.order
	expected := cur.Version

	steps := []txn.Step{{
		Name: "update order",
		Forward: func(ctx context.Context) error {
			return uc.OrderRepo.UpdateOrder(ctx, next, expected)
		},
		Compensate: func(ctx context.Context) error {
			return uc.OrderRepo.UpdateOrder(ctx, cur.Clone(), next.Version)
		},
	}}

	if ch.replaceItems {
		steps = append(steps,
			txn.Step{
				Name:    "delete items",
				Forward: func(ctx context.Context) error { return uc.OrderRepo.DeleteItems(ctx, cur.ID) },
				Compensate: func(ctx context.Context) error {
					return uc.OrderRepo.CreateItems(ctx, cur.ID, cur.Items)
				},
			},
			txn.Step{
				Name:    "insert items",
				Forward: func(ctx context.Context) error { return uc.OrderRepo.CreateItems(ctx, next.ID, next.Items) },
				Compensate: func(ctx context.Context) error {
					return uc.OrderRepo.DeleteItems(ctx, next.ID)
				},
			},
		)
	}

	steps = append(steps, uc.historySteps(ch.history)...)

	err := uc.Writer.Run(ctx, steps...)
	if err != nil && !errors.Is(err, domain.ErrVersionConflict) && uc.Metrics != nil {
		uc.Metrics.CompensationsTotal.WithLabelValues(op).Inc()
	}
	return err
}

func (uc *DefaultOrderUsecase) historySteps(entries []*domain.HistoryEntry) []txn.Step {
	steps := make([]txn.Step, 0, len(entries))
	for _, entry := range entries {
		entry := entry
		steps = append(steps, txn.Step{
			Name: "append history",
			Forward: func(ctx context.Context) error {
				return uc.HistoryRepo.Append(ctx, entry)
			},
		})
	}
	return steps
}

// afterCommit enqueues customer notifications and publishes lifecycle
// events. Failures here never undo the committed change.
func (uc *DefaultOrderUsecase) afterCommit(ctx context.Context, op string, ch *change) {
	for _, req := range ch.notify {
		if uc.Notifier == nil {
			break
		}
		if _, _, err := uc.Notifier.Enqueue(ctx, req); err != nil {
			uc.Logger.Error("failed to enqueue notification",
				"order_id", req.OrderID, "type", req.Type, "operation", op, "error", err)
		}
	}

	for _, entry := range ch.history {
		if entry.PreviousStatus == entry.NewStatus {
			continue
		}
		if uc.Metrics != nil {
			uc.Metrics.RecordTransition(string(entry.PreviousStatus), string(entry.NewStatus), string(entry.Actor))
		}
		uc.publish(ctx, ch.order, entry)
	}
}

func (uc *DefaultOrderUsecase) publish(ctx context.Context, o *domain.Order, entry *domain.HistoryEntry) {
	if uc.Publisher == nil {
		return
	}
	event := domain.OrderEvent{
		OrderID:        o.ID,
		Number:         o.Number,
		Status:         entry.NewStatus,
		PreviousStatus: entry.PreviousStatus,
		PaymentStatus:  o.Payment.Status,
		Total:          o.Financials.Total,
		Actor:          entry.Actor,
		OccurredAt:     entry.CreatedAt,
	}
	if err := uc.Publisher.PublishOrderEvent(ctx, event); err != nil {
		uc.Logger.Error("failed to publish order event", "order_id", o.ID, "status", entry.NewStatus, "error", err)
	}
}

func (uc *DefaultOrderUsecase) recordReject(err error) {
	if uc.Metrics == nil {
		return
	}
	var se *domain.StateError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &se):
		uc.Metrics.RecordReject(se.Code)
	case errors.As(err, &ve):
		uc.Metrics.RecordReject(ve.Code)
	}
}

func (uc *DefaultOrderUsecase) recordError(op string, err error) {
	if uc.Metrics == nil {
		return
	}
	kind := "internal"
	if domain.IsNotFound(err) {
		kind = "not_found"
	}
	uc.Metrics.RecordError(op, kind)
}

// sideNote builds a history entry for a change that keeps the status.
func sideNote(o *domain.Order, tc domain.TransitionContext, now time.Time) *domain.HistoryEntry {
	entry := domain.NewHistoryEntry(o.ID, o.Status, o.Status, tc)
	entry.CreatedAt = now
	return entry
}

// errNotDue aborts a scheduled change whose condition no longer holds on
// the freshly loaded order.
var errNotDue = errors.New("order no longer due")
