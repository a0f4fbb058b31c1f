package publisher

import (
	"context"
	"encoding/json"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

// OrderEventPublisher emits order lifecycle events keyed by order id.
type OrderEventPublisher struct {
	pub   domain.PublisherPort
	topic string
}

func NewOrderEventPublisher(pub domain.PublisherPort, topic string) *OrderEventPublisher {
	return &OrderEventPublisher{pub: pub, topic: topic}
}

func (p *OrderEventPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	v, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.pub.Publish(ctx, p.topic, domain.Message{Key: []byte(event.OrderID), Value: v})
}
