package replenishment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Publisher announces recorded orders to other systems.
type Publisher interface {
	Publish(ctx context.Context, orders []*Order) error
}

// NopPublisher drops every order.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []*Order) error { return nil }

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per order, keyed by item id so events for
// the same item stay ordered within a partition.
type KafkaPublisher struct {
	writer MessageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(writer MessageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// NewKafkaWriter builds a writer for the given brokers and topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}

	// Trace context travels in the headers so consumers can continue the trace.
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msgs := make([]kafka.Message, 0, len(orders))
	for _, o := range orders {
		payload, err := json.Marshal(orderPlaced{
			Type:            eventOrderPlaced,
			OrderID:         o.ID,
			Reference:       o.Reference,
			ItemID:          o.ItemID,
			Supplier:        o.Supplier,
			Quantity:        o.Quantity,
			OrderDate:       o.OrderDate,
			ExpectedArrival: o.ExpectedArrival,
		})
		if err != nil {
			return fmt.Errorf("encode order %s: %w", o.Reference, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(strconv.FormatInt(o.ItemID, 10)),
			Value:   payload,
			Headers: headers,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d replenishment orders: %w", len(msgs), err)
	}
	p.logger.Debug("published replenishment orders", zap.Int("count", len(msgs)))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error { return p.writer.Close() }
