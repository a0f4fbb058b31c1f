package order

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
	"github.com/LavaJover/shvark-storefront-orders/internal/usecase/txn"
	"github.com/google/uuid"
)

func (uc *DefaultOrderUsecase) CreateOrder(ctx context.Context, in *orderdto.CreateOrderInput) (*domain.Order, error) {
	now := uc.now()

	// validate before burning a sequence number
	if _, err := domain.NewOrder("", "", in.NewOrderInput, now); err != nil {
		uc.recordReject(err)
		return nil, err
	}
	if err := in.Financials.CheckTax(uc.Store.TaxRate, in.RequiresInvoice); err != nil {
		uc.recordReject(err)
		return nil, err
	}

	seq, err := uc.SequenceRepo.NextValue(ctx, orderNumberSequence)
	if err != nil {
		uc.recordError("create", err)
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}

	order, err := domain.NewOrder(uuid.New().String(), domain.FormatOrderNumber(seq), in.NewOrderInput, now)
	if err != nil {
		return nil, err
	}

	tc := in.Actor.Context("order created")
	if !tc.Actor.Valid() {
		tc.Actor = domain.ActorCustomer
	}
	entry := domain.NewHistoryEntry(order.ID, "", domain.StatusPending, tc)
	entry.CreatedAt = now

	err = uc.Writer.Run(ctx,
		txn.Step{
			Name:    "insert order",
			Forward: func(ctx context.Context) error { return uc.OrderRepo.CreateOrder(ctx, order) },
			Compensate: func(ctx context.Context) error {
				return uc.OrderRepo.DeleteOrder(ctx, order.ID)
			},
		},
		txn.Step{
			Name:    "insert items",
			Forward: func(ctx context.Context) error { return uc.OrderRepo.CreateItems(ctx, order.ID, order.Items) },
			Compensate: func(ctx context.Context) error {
				return uc.OrderRepo.DeleteItems(ctx, order.ID)
			},
		},
		txn.Step{
			Name:    "append history",
			Forward: func(ctx context.Context) error { return uc.HistoryRepo.Append(ctx, entry) },
		},
	)
	if err != nil {
		if uc.Metrics != nil {
			uc.Metrics.CompensationsTotal.WithLabelValues("create").Inc()
		}
		uc.recordError("create", err)
		return nil, err
	}

	uc.Logger.Info("order created", "order_id", order.ID, "number", order.Number, "total", order.Financials.Total)
	if uc.Metrics != nil {
		uc.Metrics.RecordOrderCreated(order.Financials.Total)
	}

	ch := (&change{order: order}).notifyCustomer(order, domain.NotifyOrderReceived, domain.PriorityMedium, nil)
	uc.afterCommit(ctx, "create", ch)
	uc.publish(ctx, order, entry)

	return order, nil
}
