package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
	"github.com/muhammadchandra19/limit-order-engine/pkg/config"
	"github.com/muhammadchandra19/limit-order-engine/pkg/errors"
	"github.com/muhammadchandra19/limit-order-engine/pkg/logger"
)

// Publisher delivers lifecycle events to a Kafka topic, keyed by order
// address so one order's events stay in one partition.
type Publisher struct {
	kafkaWriter *kafka.Writer
	logger      *logger.Logger
}

// NewPublisher creates a Kafka publisher for lifecycle events.
func NewPublisher(cfg config.EventsKafkaConfig, log *logger.Logger) *Publisher {
	kafkaWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
	})

	return &Publisher{
		kafkaWriter: kafkaWriter,
		logger:      log,
	}
}

// Publish writes one lifecycle event.
func (p *Publisher) Publish(ctx context.Context, event eventsv1.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return errors.NewTracer("failed to encode lifecycle event").Wrap(err)
	}

	msg := kafka.Message{
		Key:   event.Order.Bytes(),
		Value: value,
	}
	if err := p.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(err,
			logger.NewField("kind", string(event.Kind)),
			logger.NewField("order", event.Order.Hex()),
		)
		return errors.NewTracer("failed to publish lifecycle event").Wrap(err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.kafkaWriter.Close()
}

// Nop is a Publisher that drops every event. Used when no brokers are
// configured and in tests that do not assert on events.
type Nop struct{}

// Publish implements eventsv1.Publisher.
func (Nop) Publish(context.Context, eventsv1.Event) error { return nil }

var _ eventsv1.Publisher = (*Publisher)(nil)
var _ eventsv1.Publisher = Nop{}
