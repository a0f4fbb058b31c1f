package mappers

import (
	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/LavaJover/shvark-storefront-orders/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	order := &domain.Order{
		ID:     model.ID,
		Number: model.Number,
		Status: domain.OrderStatus(model.Status),
		Customer: domain.Customer{
			Name:     model.CustomerName,
			WhatsApp: model.CustomerWhatsApp,
			Email:    model.CustomerEmail,
		},
		Financials: domain.Financials{
			Subtotal:     model.Subtotal,
			Tax:          model.Tax,
			ShippingCost: model.ShippingCost,
			Total:        model.Total,
		},
		Payment: domain.PaymentInfo{
			Method:          model.PaymentMethod,
			Status:          domain.PaymentStatus(model.PaymentStatus),
			ProofURL:        model.PaymentProofURL,
			AwaitingReview:  model.AwaitingValidation,
			RejectionReason: model.PaymentRejectionReason,
			ValidatedBy:     model.ValidatedBy,
		},
		Editable:           model.Editable,
		RequiresShipping:   model.RequiresShipping,
		RequiresInvoice:    model.RequiresInvoice,
		ShippingAddress:    model.ShippingAddress,
		Shipment:           model.Shipment,
		Notes:              model.Notes,
		CancellationReason: model.CancellationReason,
		Timestamps: domain.StatusTimestamps{
			ConfirmedAt: model.ConfirmedAt,
			PaidAt:      model.PaidAt,
			PreparingAt: model.PreparingAt,
			ShippedAt:   model.ShippedAt,
			ReceivedAt:  model.ReceivedAt,
			DeliveredAt: model.DeliveredAt,
			CancelledAt: model.CancelledAt,
		},
		Version:   model.Version,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if len(model.Items) > 0 {
		order.Items = make([]domain.LineItem, 0, len(model.Items))
		for i := range model.Items {
			order.Items = append(order.Items, ToDomainLineItem(&model.Items[i]))
		}
	}
	return order
}

// ToGORMOrder maps the order row; items are written separately.
func ToGORMOrder(order *domain.Order) *models.OrderModel {
	return &models.OrderModel{
		ID:                     order.ID,
		Number:                 order.Number,
		Status:                 string(order.Status),
		PaymentStatus:          string(order.Payment.Status),
		CustomerName:           order.Customer.Name,
		CustomerWhatsApp:       order.Customer.WhatsApp,
		CustomerEmail:          order.Customer.Email,
		Subtotal:               order.Financials.Subtotal,
		Tax:                    order.Financials.Tax,
		ShippingCost:           order.Financials.ShippingCost,
		Total:                  order.Financials.Total,
		Editable:               order.Editable,
		RequiresShipping:       order.RequiresShipping,
		RequiresInvoice:        order.RequiresInvoice,
		PaymentMethod:          order.Payment.Method,
		PaymentProofURL:        order.Payment.ProofURL,
		AwaitingValidation:     order.Payment.AwaitingReview,
		PaymentRejectionReason: order.Payment.RejectionReason,
		ValidatedBy:            order.Payment.ValidatedBy,
		ShippingAddress:        order.ShippingAddress,
		Shipment:               order.Shipment,
		Notes:                  order.Notes,
		CancellationReason:     order.CancellationReason,
		ConfirmedAt:            order.Timestamps.ConfirmedAt,
		PaidAt:                 order.Timestamps.PaidAt,
		PreparingAt:            order.Timestamps.PreparingAt,
		ShippedAt:              order.Timestamps.ShippedAt,
		ReceivedAt:             order.Timestamps.ReceivedAt,
		DeliveredAt:            order.Timestamps.DeliveredAt,
		CancelledAt:            order.Timestamps.CancelledAt,
		Version:                order.Version,
		CreatedAt:              order.CreatedAt,
		UpdatedAt:              order.UpdatedAt,
	}
}

func ToDomainLineItem(model *models.OrderItemModel) domain.LineItem {
	return domain.LineItem{
		ID:        model.ID,
		ProductID: model.ProductID,
		Name:      model.Name,
		SKU:       model.SKU,
		ImageURL:  model.ImageURL,
		Quantity:  model.Quantity,
		UnitPrice: model.UnitPrice,
		LineTotal: model.LineTotal,
	}
}

func ToGORMLineItem(orderID string, position int, item domain.LineItem) models.OrderItemModel {
	return models.OrderItemModel{
		ID:        item.ID,
		OrderID:   orderID,
		Position:  position,
		ProductID: item.ProductID,
		Name:      item.Name,
		SKU:       item.SKU,
		ImageURL:  item.ImageURL,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		LineTotal: item.LineTotal,
	}
}
