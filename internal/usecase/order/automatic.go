package order

import (
	"context"
	"errors"
	"math"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/notifier"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
)

// AutoFinalizeOrders moves stale received and shipped orders to delivered.
// A failure on one order is logged and does not stop the others.
func (uc *DefaultOrderUsecase) AutoFinalizeOrders(ctx context.Context) (*orderdto.AutoFinalizeOutput, error) {
	now := uc.now()
	candidates, err := uc.OrderRepo.FindAutoFinalizeCandidates(ctx,
		now.Add(-uc.Lifecycle.ReceivedGrace),
		now.Add(-uc.Lifecycle.ShippedGrace),
		uc.Lifecycle.ScanLimit,
	)
	if err != nil {
		return nil, err
	}

	out := &orderdto.AutoFinalizeOutput{Checked: len(candidates)}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		_, err := uc.mutate(ctx, candidate.ID, "auto_finalize", func(cur *domain.Order) (*change, error) {
			due, note := domain.AutoFinalizeDue(cur, now, uc.Lifecycle.ReceivedGrace, uc.Lifecycle.ShippedGrace)
			if !due {
				return nil, errNotDue
			}
			return uc.transition(cur, domain.StatusDelivered, domain.TransitionContext{
				Actor: domain.ActorSystem,
				Note:  note,
				Now:   now,
			})
		})
		switch {
		case err == nil:
			out.Finalized++
			if uc.Metrics != nil {
				uc.Metrics.AutoFinalizedTotal.Inc()
			}
		case errors.Is(err, errNotDue):
		default:
			out.Failed++
			uc.Logger.Error("auto-finalize failed", "order_id", candidate.ID, "number", candidate.Number, "error", err)
		}
	}

	if out.Finalized > 0 || out.Failed > 0 {
		uc.Logger.Info("auto-finalize pass done", "checked", out.Checked, "finalized", out.Finalized, "failed", out.Failed)
	}
	return out, nil
}

// SendPaymentReminders nudges customers whose confirmed order has waited
// for payment longer than ReminderAfter. Only orders that crossed the
// threshold during the last ReminderInterval are picked, so each order is
// reminded once when the task runs every ReminderInterval.
func (uc *DefaultOrderUsecase) SendPaymentReminders(ctx context.Context) (*orderdto.RemindersOutput, error) {
	now := uc.now()
	threshold := now.Add(-uc.Lifecycle.ReminderAfter)
	windowStart := threshold.Add(-uc.Lifecycle.ReminderInterval)

	orders, err := uc.OrderRepo.FindAwaitingPayment(ctx, threshold, uc.Lifecycle.ScanLimit)
	if err != nil {
		return nil, err
	}

	out := &orderdto.RemindersOutput{}
	for _, o := range orders {
		confirmedAt := o.Timestamps.ConfirmedAt
		if confirmedAt == nil || confirmedAt.Before(windowStart) {
			continue
		}
		out.Checked++

		hours := int(math.Floor(now.Sub(*confirmedAt).Hours()))
		_, created, err := uc.Notifier.Enqueue(ctx, domain.NotificationRequest{
			OrderID:  o.ID,
			Address:  o.Customer.WhatsApp,
			Type:     domain.NotifyPaymentReminder,
			Priority: domain.PriorityLow,
			Metadata: map[string]any{notifier.MetaHoursElapsed: hours},
		})
		if err != nil {
			uc.Logger.Error("failed to enqueue payment reminder", "order_id", o.ID, "error", err)
			continue
		}
		if created {
			out.Enqueued++
		}
	}
	return out, nil
}
