package publisher

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-storefront-orders/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

type KafkaConfig struct {
	Brokers    []string
	Username   string
	Password   string
	Mechanism  string
	TLSEnabled bool
}

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
}

func NewDefaultKafkaPublisher(cfg KafkaConfig) (*DefaultKafkaPublisher, error) {
	transport := &kafka.Transport{}
	if cfg.Username != "" {
		mech, err := saslMechanism(cfg)
		if err != nil {
			return nil, err
		}
		transport.SASL = mech
	}
	if cfg.TLSEnabled {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			Transport:              transport,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func saslMechanism(cfg KafkaConfig) (sasl.Mechanism, error) {
	switch strings.ToUpper(cfg.Mechanism) {
	case "", "PLAIN":
		return plain.Mechanism{Username: cfg.Username, Password: cfg.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported sasl mechanism %q", cfg.Mechanism)
	}
}

// Publish writes msgs to topic. The Hash balancer keeps every message of
// one key on the same partition.
func (k *DefaultKafkaPublisher) Publish(ctx context.Context, topic string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now()
	km := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: m.Value,
			Time:  now,
		})
	}
	if err := k.writer.WriteMessages(ctx, km...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(km), topic, err)
	}
	return nil
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
