package order

import (
	"context"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/notifier"
	orderdto "github.com/LavaJover/shvark-storefront-orders/internal/usecase/dto/order"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (uc *DefaultOrderUsecase) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.OrderRepo.GetOrderByID(ctx, orderID)
}

func (uc *DefaultOrderUsecase) ListOrders(ctx context.Context, filter domain.OrderFilter) (*orderdto.ListOrdersOutput, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError(domain.CodeInvalidStatus, "status", "unknown order status")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageLimit
	}
	if filter.Limit > maxPageLimit {
		filter.Limit = maxPageLimit
	}

	orders, total, err := uc.OrderRepo.ListOrders(ctx, filter)
	if err != nil {
		uc.recordError("list", err)
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &orderdto.ListOrdersOutput{
		Orders:     orders,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (uc *DefaultOrderUsecase) GetHistory(ctx context.Context, orderID string) ([]*domain.HistoryEntry, error) {
	if _, err := uc.OrderRepo.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	return uc.HistoryRepo.ListByOrder(ctx, orderID)
}

func (uc *DefaultOrderUsecase) AvailableTransitions(ctx context.Context, orderID string) ([]domain.TransitionOption, error) {
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return domain.AvailableTransitions(order), nil
}

// PreviewMessage renders the message a notification of type t would carry
// right now, without queueing anything.
func (uc *DefaultOrderUsecase) PreviewMessage(ctx context.Context, orderID string, t domain.NotificationType) (*domain.RenderedMessage, error) {
	if !t.Valid() {
		return nil, domain.NewValidationError(domain.CodeValidation, "type", "unknown notification type")
	}
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{}
	if t == domain.NotifyOrderConfirmed {
		meta = uc.paymentAccountsMeta()
	}
	if t == domain.NotifyPaymentRejected && order.Payment.RejectionReason != "" {
		meta[notifier.MetaReason] = order.Payment.RejectionReason
	}
	return uc.Renderer.Render(ctx, order, t, meta)
}
