package domain

import (
	"context"
	"time"
)

type OrderFilter struct {
	Status             OrderStatus
	PaymentStatus      PaymentStatus
	Search             string
	AwaitingValidation *bool
	Page               int
	Limit              int
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	DeleteOrder(ctx context.Context, orderID string) error
	// DeletePendingOrder removes the order and its items only while the
	// stored row is still pending at expectedVersion.
	DeletePendingOrder(ctx context.Context, orderID string, expectedVersion int64) error
	GetOrderByID(ctx context.Context, orderID string) (*Order, error)
	// UpdateOrder writes the order row only if its stored version equals
	// expectedVersion, then sets order.Version to the new value.
	UpdateOrder(ctx context.Context, order *Order, expectedVersion int64) error
	ListOrders(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)

	CreateItems(ctx context.Context, orderID string, items []LineItem) error
	DeleteItems(ctx context.Context, orderID string) error

	FindAutoFinalizeCandidates(ctx context.Context, receivedBefore, shippedBefore time.Time, limit int) ([]*Order, error)
	FindAwaitingPayment(ctx context.Context, confirmedBefore time.Time, limit int) ([]*Order, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]*HistoryEntry, error)
}

type SequenceRepository interface {
	NextValue(ctx context.Context, name string) (int64, error)
}
