package publisher

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
)

// KafkaDispatcher hands rendered chat messages to the channel gateway
// through the notification topic.
type KafkaDispatcher struct {
	pub   domain.PublisherPort
	topic string
}

func NewKafkaDispatcher(pub domain.PublisherPort, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{pub: pub, topic: topic}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, msg domain.NotificationMessage) error {
	v, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return d.pub.Publish(ctx, d.topic, domain.Message{Key: []byte(msg.OrderID), Value: v})
}

// LogDispatcher is used when no broker is configured; the deep link is
// only logged and the job counts as delivered.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, msg domain.NotificationMessage) error {
	d.logger.Info("notification ready",
		"job_id", msg.JobID,
		"order", msg.Number,
		"type", msg.Type,
		"url", msg.URL,
	)
	return nil
}

// NopEventPublisher drops order events when no broker is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishOrderEvent(context.Context, domain.OrderEvent) error { return nil }
