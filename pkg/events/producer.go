package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"medbook/pkg/logger"
)

// Publisher emits appointment lifecycle events. Publishing is best effort:
// callers log failures and never fail the surrounding request on one.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // hash by key for per-appointment ordering
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
	}

	return &kafkaPublisher{writer: writer}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AppointmentID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID)},
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher is used when no brokers are configured; the service runs
// without an event stream.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }

// FromConfig picks the Kafka publisher when brokers are configured and the
// no-op publisher otherwise.
func FromConfig(brokers []string, topic string, log *logger.Logger) Publisher {
	if len(brokers) == 0 {
		log.Info("No Kafka brokers configured, lifecycle events disabled")
		return NewNoopPublisher()
	}

	pub, err := NewKafkaPublisher(brokers, topic)
	if err != nil {
		log.Fatal("Failed to initialize Kafka publisher", "error", err)
	}

	log.Info("Kafka lifecycle event publisher initialized",
		"brokers", brokers,
		"topic", topic,
	)
	return pub
}
