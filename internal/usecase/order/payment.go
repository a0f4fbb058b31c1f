package order

import (
	"context"
	"strings"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/notifier"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
)

// ConfirmOrder accepts a pending order, fixing the shipping cost and the
// payment method, and sends the customer the payment instructions.
func (uc *DefaultOrderUsecase) ConfirmOrder(ctx context.Context, orderID string, in *orderdto.ConfirmOrderInput) (*domain.Order, error) {
	if in.ShippingCost != nil && *in.ShippingCost < 0 {
		return nil, domain.NewValidationError(domain.CodeInvalidTotals, "shipping_cost", "amount cannot be negative")
	}
	tc := uc.transitionContext(in.Actor, in.Note)

	return uc.mutate(ctx, orderID, "confirm", func(cur *domain.Order) (*change, error) {
		staged := cur.Clone()
		if in.ShippingCost != nil {
			staged.Financials.ShippingCost = *in.ShippingCost
		}
		if method := strings.TrimSpace(in.PaymentMethod); method != "" {
			staged.Payment.Method = method
		}
		staged.RecomputeTotal()
		if err := staged.Financials.Check(); err != nil {
			return nil, err
		}
		return uc.transition(staged, domain.StatusConfirmed, tc)
	})
}

func (uc *DefaultOrderUsecase) SubmitPaymentProof(ctx context.Context, orderID, proofURL string, actor orderdto.Actor) (*domain.Order, error) {
	if err := domain.ValidateReceiptURL(proofURL); err != nil {
		uc.recordReject(err)
		return nil, err
	}
	proofURL = strings.TrimSpace(proofURL)
	tc := uc.transitionContext(actor, "payment proof submitted")
	tc.Metadata = map[string]any{"proof_url": proofURL}

	return uc.mutate(ctx, orderID, "payment_proof", func(cur *domain.Order) (*change, error) {
		if cur.Payment.Status == domain.PaymentPaid {
			return nil, &domain.StateError{
				Code:    domain.CodePaymentValidated,
				Message: "payment was already validated",
				From:    cur.Status,
			}
		}
		if cur.Status != domain.StatusConfirmed {
			return nil, &domain.StateError{
				Code:    domain.CodeInvalidState,
				Message: "payment proofs are accepted only for confirmed orders",
				From:    cur.Status,
			}
		}

		next := cur.Clone()
		next.Payment.ProofURL = proofURL
		next.Payment.Status = domain.PaymentPendingVerification
		next.Payment.AwaitingReview = true
		next.Payment.RejectionReason = ""
		next.Editable = false
		next.UpdatedAt = tc.Now

		return (&change{order: next}).
			record(sideNote(next, tc, tc.Now)).
			notifyCustomer(next, domain.NotifyProofReceived, domain.PriorityHigh, nil), nil
	})
}

// ReviewPayment approves or rejects the proof under review. An approved
// order moves to paid and, when nothing blocks it, straight on to preparing.
func (uc *DefaultOrderUsecase) ReviewPayment(ctx context.Context, orderID string, in *orderdto.PaymentReviewInput) (*domain.Order, error) {
	if in.Approved {
		return uc.approvePayment(ctx, orderID, in)
	}
	return uc.rejectPayment(ctx, orderID, in)
}

func (uc *DefaultOrderUsecase) approvePayment(ctx context.Context, orderID string, in *orderdto.PaymentReviewInput) (*domain.Order, error) {
	note := in.Note
	if strings.TrimSpace(note) == "" {
		note = "payment approved"
	}
	tc := uc.transitionContext(in.Actor, note)
	tc.ValidatedBy = in.Actor.ID

	return uc.mutate(ctx, orderID, "payment_review", func(cur *domain.Order) (*change, error) {
		if err := requireProofUnderReview(cur); err != nil {
			return nil, err
		}
		ch, err := uc.transition(cur, domain.StatusPaid, tc)
		if err != nil {
			return nil, err
		}

		if domain.ValidateTransition(ch.order, domain.StatusPreparing) != nil {
			return ch, nil
		}
		advance := domain.TransitionContext{
			Actor: domain.ActorSystem,
			Note:  "moved to preparing after payment approval",
			Now:   tc.Now,
		}
		next, entry, err := domain.ApplyTransition(ch.order, domain.StatusPreparing, advance)
		if err != nil {
			return nil, err
		}
		ch.order = next
		ch.record(entry)
		uc.notifyStatus(ch, next)
		return ch, nil
	})
}

func (uc *DefaultOrderUsecase) rejectPayment(ctx context.Context, orderID string, in *orderdto.PaymentReviewInput) (*domain.Order, error) {
	reason, err := domain.ValidateReason(in.Reason, domain.CodeInvalidRejection, "reason")
	if err != nil {
		uc.recordReject(err)
		return nil, err
	}
	tc := uc.transitionContext(in.Actor, "payment rejected: "+reason)
	tc.Metadata = map[string]any{notifier.MetaReason: reason}

	return uc.mutate(ctx, orderID, "payment_review", func(cur *domain.Order) (*change, error) {
		if err := requireProofUnderReview(cur); err != nil {
			return nil, err
		}

		next := cur.Clone()
		next.Payment.Status = domain.PaymentRejected
		next.Payment.RejectionReason = reason
		next.Payment.ProofURL = ""
		next.Payment.AwaitingReview = false
		next.Editable = true
		next.UpdatedAt = tc.Now

		return (&change{order: next}).
			record(sideNote(next, tc, tc.Now)).
			notifyCustomer(next, domain.NotifyPaymentRejected, domain.PriorityHigh,
				map[string]any{notifier.MetaReason: reason}), nil
	})
}

func requireProofUnderReview(o *domain.Order) error {
	if o.Payment.Status == domain.PaymentPaid {
		return &domain.StateError{
			Code:    domain.CodePaymentValidated,
			Message: "payment was already validated",
			From:    o.Status,
		}
	}
	if o.Status != domain.StatusConfirmed || o.Payment.Status != domain.PaymentPendingVerification {
		return &domain.StateError{
			Code:    domain.CodeInvalidState,
			Message: "there is no payment proof waiting for review",
			From:    o.Status,
		}
	}
	return nil
}
