package order

import (
	"context"
	"strings"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
	"github.com/google/uuid"
)

func (uc *DefaultOrderUsecase) EditOrder(ctx context.Context, orderID string, in *orderdto.EditOrderInput) (*domain.Order, error) {
	if in.Empty() {
		return nil, domain.NewValidationError(domain.CodeValidation, "", "nothing to update")
	}
	if in.Customer != nil {
		if err := domain.ValidateCustomer(*in.Customer); err != nil {
			return nil, err
		}
	}
	if in.Items != nil {
		if err := domain.ValidateItems(in.Items); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidateAddress(in.ShippingAddress); err != nil {
		return nil, err
	}
	if in.ShippingCost != nil && *in.ShippingCost < 0 {
		return nil, domain.NewValidationError(domain.CodeInvalidTotals, "shipping_cost", "amount cannot be negative")
	}

	tc := uc.transitionContext(in.Actor, "order edited")

	return uc.mutate(ctx, orderID, "edit", func(cur *domain.Order) (*change, error) {
		if err := cur.EnsureEditable(); err != nil {
			return nil, err
		}

		next := cur.Clone()
		var fields []any
		if in.Customer != nil {
			next.Customer = domain.Customer{
				Name:     domain.SanitizeText(in.Customer.Name),
				WhatsApp: domain.DigitsOnly(in.Customer.WhatsApp),
				Email:    strings.TrimSpace(in.Customer.Email),
			}
			fields = append(fields, "customer")
		}
		if in.Items != nil {
			next.Items = make([]domain.LineItem, len(in.Items))
			for i, it := range in.Items {
				it.ID = uuid.New().String()
				it.Name = domain.SanitizeText(it.Name)
				next.Items[i] = it
			}
			fields = append(fields, "items")
		}
		if in.ShippingAddress != nil {
			addr := *in.ShippingAddress
			next.ShippingAddress = &addr
			fields = append(fields, "shipping_address")
		}
		if in.ShippingCost != nil {
			next.Financials.ShippingCost = *in.ShippingCost
			fields = append(fields, "shipping_cost")
		}
		if in.RequiresInvoice != nil {
			next.RequiresInvoice = *in.RequiresInvoice
			fields = append(fields, "requires_invoice")
		}
		if in.RequiresShipping != nil {
			next.RequiresShipping = *in.RequiresShipping
			fields = append(fields, "requires_shipping")
		}
		if in.Notes != nil {
			next.Notes = domain.SanitizeText(*in.Notes)
			fields = append(fields, "notes")
		}

		// tax follows the store rate only when the taxed base or the
		// invoice flag changed
		if in.Items != nil || next.RequiresInvoice != cur.RequiresInvoice {
			next.RecomputeTotals(uc.Store.TaxRate)
		} else {
			next.RecomputeTotal()
		}
		if err := next.Financials.Check(); err != nil {
			return nil, err
		}
		next.UpdatedAt = tc.Now

		entryCtx := tc
		entryCtx.Metadata = map[string]any{"fields": fields}
		return &change{
			order:        next,
			history:      []*domain.HistoryEntry{sideNote(next, entryCtx, tc.Now)},
			replaceItems: in.Items != nil,
		}, nil
	})
}

// UpdateShippingAddress changes where the order goes. It ignores the
// editable flag since an address never affects the amounts.
func (uc *DefaultOrderUsecase) UpdateShippingAddress(ctx context.Context, orderID string, addr *domain.ShippingAddress, actor orderdto.Actor) (*domain.Order, error) {
	if addr == nil {
		return nil, domain.NewValidationError(domain.CodeInvalidAddress, "shipping_address", "shipping address is required")
	}
	if err := domain.ValidateAddress(addr); err != nil {
		return nil, err
	}
	tc := uc.transitionContext(actor, "shipping address updated")

	return uc.mutate(ctx, orderID, "update_address", func(cur *domain.Order) (*change, error) {
		if cur.Payment.Status == domain.PaymentPaid {
			return nil, &domain.StateError{
				Code:    domain.CodePaymentValidated,
				Message: "payment was already validated, the address can no longer change",
				From:    cur.Status,
			}
		}
		if cur.Status != domain.StatusPending && cur.Status != domain.StatusConfirmed {
			return nil, &domain.StateError{
				Code:    domain.CodeInvalidState,
				Message: "the address can only change before payment",
				From:    cur.Status,
			}
		}

		next := cur.Clone()
		a := *addr
		next.ShippingAddress = &a
		next.UpdatedAt = tc.Now
		return (&change{order: next}).record(sideNote(next, tc, tc.Now)), nil
	})
}
