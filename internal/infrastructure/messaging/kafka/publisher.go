// internal/infrastructure/messaging/kafka/publisher.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// EventOrderPlaced is the event type carried by order placed envelopes
const EventOrderPlaced = "OrderPlaced"

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope wraps every event published by this service
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderPlacedPayload is the payload of an OrderPlaced event
type OrderPlacedPayload struct {
	OrderID       string           `json:"order_id"`
	SessionID     string           `json:"session_id"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email"`
	Total         decimal.Decimal  `json:"total"`
	Items         []order.LineItem `json:"items"`
	PlacedAt      time.Time        `json:"placed_at"`
}

// Publisher emits order events to Kafka. It implements order.Listener.
type Publisher struct {
	writer   MessageWriter
	producer string
	now      func() time.Time
}

// NewPublisher creates a publisher writing to the configured order topic
func NewPublisher(cfg *config.Config) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Kafka.Brokers...),
		Topic:                  cfg.Kafka.OrderTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
	return NewPublisherWithWriter(w, cfg.Kafka.ClientID)
}

// NewPublisherWithWriter creates a publisher on an existing writer
func NewPublisherWithWriter(w MessageWriter, producer string) *Publisher {
	return &Publisher{
		writer:   w,
		producer: producer,
		now:      time.Now,
	}
}

// OrderPlaced publishes an OrderPlaced event keyed by order id
func (p *Publisher) OrderPlaced(ctx context.Context, o *order.Order) error {
	payload, err := json.Marshal(OrderPlacedPayload{
		OrderID:       o.ID,
		SessionID:     o.SessionID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Total:         o.Total,
		Items:         o.Items,
		PlacedAt:      o.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order placed payload: %w", err)
	}

	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  EventOrderPlaced,
		OccurredAt: p.now().UTC(),
		Producer:   p.producer,
		Payload:    payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(o.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
			{Key: "event_id", Value: []byte(env.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order %s: %w", o.ID, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
