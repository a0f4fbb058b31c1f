package domain

import (
	"context"
	"time"
)

type Message struct {
	Key   []byte
	Value []byte
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type OrderEvent struct {
	OrderID        string        `json:"order_id"`
	Number         string        `json:"number"`
	Status         OrderStatus   `json:"status"`
	PreviousStatus OrderStatus   `json:"previous_status,omitempty"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	Total          float64       `json:"total"`
	Actor          ActorKind     `json:"actor"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
