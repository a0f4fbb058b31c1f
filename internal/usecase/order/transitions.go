package order

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/notifier"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
)

// transition applies one status change and queues the customer message
// tied to the entered state.
func (uc *DefaultOrderUsecase) transition(cur *domain.Order, to domain.OrderStatus, tc domain.TransitionContext) (*change, error) {
	next, entry, err := domain.ApplyTransition(cur, to, tc)
	if err != nil {
		return nil, err
	}
	ch := (&change{order: next}).record(entry)
	uc.notifyStatus(ch, next)
	return ch, nil
}

func (uc *DefaultOrderUsecase) notifyStatus(ch *change, o *domain.Order) {
	t, ok := domain.NotificationForStatus(o.Status)
	if !ok {
		return
	}
	priority := domain.PriorityMedium
	meta := map[string]any{}
	switch o.Status {
	case domain.StatusPaid:
		priority = domain.PriorityHigh
	case domain.StatusConfirmed:
		meta = uc.paymentAccountsMeta()
	case domain.StatusShipped:
		if s := o.Shipment; s != nil && !s.Local {
			meta[notifier.MetaCarrier] = s.Carrier
			meta[notifier.MetaTrackingNumber] = s.TrackingNumber
			if s.TrackingURL != "" {
				meta[notifier.MetaTrackingURL] = s.TrackingURL
			}
		}
	case domain.StatusCancelled:
		if o.CancellationReason != "" {
			meta[notifier.MetaReason] = o.CancellationReason
		}
	}
	if len(meta) == 0 {
		meta = nil
	}
	ch.notifyCustomer(o, t, priority, meta)
}

// paymentAccountsMeta snapshots the store accounts into job metadata in the
// shape they have after a JSON round trip.
func (uc *DefaultOrderUsecase) paymentAccountsMeta() map[string]any {
	accounts := make([]any, 0, len(uc.Store.PaymentAccounts))
	for _, acc := range uc.Store.PaymentAccounts {
		accounts = append(accounts, map[string]any{
			"bank":           acc.Bank,
			"holder":         acc.Holder,
			"account_number": acc.AccountNumber,
			"clabe":          acc.Clabe,
		})
	}
	return map[string]any{notifier.MetaPaymentAccounts: accounts}
}

func (uc *DefaultOrderUsecase) transitionContext(actor orderdto.Actor, note string) domain.TransitionContext {
	tc := actor.Context(note)
	tc.Now = uc.now()
	return tc
}

func (uc *DefaultOrderUsecase) RequestTransition(ctx context.Context, orderID string, in *orderdto.TransitionInput) (*domain.Order, error) {
	if !in.Status.Valid() {
		return nil, domain.NewValidationError(domain.CodeInvalidStatus, "status", "unknown order status")
	}

	tc := uc.transitionContext(in.Actor, in.Note)
	if in.Status == domain.StatusCancelled {
		reason, err := domain.ValidateReason(in.Note, domain.CodeInvalidCancellation, "note")
		if err != nil {
			return nil, err
		}
		tc.Reason = reason
	}
	if in.Status == domain.StatusPaid {
		tc.ValidatedBy = in.Actor.ID
	}

	return uc.mutate(ctx, orderID, "transition", func(cur *domain.Order) (*change, error) {
		return uc.transition(cur, in.Status, tc)
	})
}

func (uc *DefaultOrderUsecase) MarkShipped(ctx context.Context, orderID string, in *orderdto.ShipOrderInput) (*domain.Order, error) {
	tc := uc.transitionContext(in.Actor, in.Note)
	shipment := in.Shipment
	tc.Shipment = &shipment

	return uc.mutate(ctx, orderID, "ship", func(cur *domain.Order) (*change, error) {
		return uc.transition(cur, domain.StatusShipped, tc)
	})
}

func (uc *DefaultOrderUsecase) MarkReceived(ctx context.Context, orderID string, in *orderdto.ReceiveOrderInput) (*domain.Order, error) {
	if err := domain.ValidateRating(in.Rating); err != nil {
		return nil, err
	}
	tc := uc.transitionContext(in.Actor, "receipt confirmed")
	meta := map[string]any{}
	if in.Rating > 0 {
		meta["rating"] = in.Rating
	}
	if comment := domain.SanitizeText(in.Comment); comment != "" {
		meta["comment"] = comment
	}
	if len(meta) > 0 {
		tc.Metadata = meta
	}

	return uc.mutate(ctx, orderID, "receive", func(cur *domain.Order) (*change, error) {
		return uc.transition(cur, domain.StatusReceived, tc)
	})
}

func (uc *DefaultOrderUsecase) CancelOrder(ctx context.Context, orderID string, in *orderdto.CancelOrderInput) (*domain.Order, error) {
	reason, err := domain.ValidateReason(in.Reason, domain.CodeInvalidCancellation, "reason")
	if err != nil {
		uc.recordReject(err)
		return nil, err
	}
	tc := uc.transitionContext(in.Actor, reason)
	tc.Reason = reason

	return uc.mutate(ctx, orderID, "cancel", func(cur *domain.Order) (*change, error) {
		return uc.transition(cur, domain.StatusCancelled, tc)
	})
}

// ReopenEditing gives the customer the order back after a rejected payment.
func (uc *DefaultOrderUsecase) ReopenEditing(ctx context.Context, orderID string, actor orderdto.Actor) (*domain.Order, error) {
	tc := uc.transitionContext(actor, "editing reopened after payment rejection")

	return uc.mutate(ctx, orderID, "reopen", func(cur *domain.Order) (*change, error) {
		if cur.Payment.Status != domain.PaymentRejected {
			return nil, &domain.StateError{
				Code:    domain.CodeInvalidState,
				Message: "editing can only be reopened after a payment rejection",
				From:    cur.Status,
			}
		}
		next := cur.Clone()
		next.Editable = true
		next.Payment.Status = domain.PaymentNone
		next.Payment.AwaitingReview = false
		next.UpdatedAt = tc.Now
		return (&change{order: next}).record(sideNote(next, tc, tc.Now)), nil
	})
}

// DeleteOrder physically removes a pending order. The delete is guarded on
// the loaded version, so a concurrent confirm wins.
func (uc *DefaultOrderUsecase) DeleteOrder(ctx context.Context, orderID string, actor orderdto.Actor) error {
	for attempt := 1; ; attempt++ {
		order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.StatusPending {
			err := &domain.StateError{
				Code:    domain.CodeCannotDelete,
				Message: "only pending orders can be deleted",
				From:    order.Status,
			}
			uc.recordReject(err)
			return err
		}

		err = uc.OrderRepo.DeletePendingOrder(ctx, orderID, order.Version)
		switch {
		case err == nil:
			uc.Logger.Info("order deleted", "order_id", orderID, "number", order.Number, "actor", actor.Kind, "actor_id", actor.ID)
			return nil
		case errors.Is(err, domain.ErrVersionConflict):
			if uc.Metrics != nil {
				uc.Metrics.VersionConflictsTotal.Inc()
			}
			if attempt >= maxConflictRetries {
				return &domain.StateError{
					Code:    domain.CodeVersionConflict,
					Message: "order was modified concurrently, reload and retry",
					From:    order.Status,
				}
			}
		default:
			var se *domain.StateError
			if errors.As(err, &se) {
				uc.recordReject(err)
			} else {
				uc.recordError("delete", err)
			}
			return err
		}
	}
}
