package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testOrder() *order.Order {
	return &order.Order{
		ID:            "order-1",
		CustomerName:  "Jane",
		CustomerEmail: "j@x.com",
		SessionID:     "s1",
		Total:         decimal.RequireFromString("50.00"),
		Items: []order.LineItem{{
			ProductID: "p1",
			Name:      "Mug",
			Price:     decimal.RequireFromString("10.00"),
			Quantity:  5,
			Subtotal:  decimal.RequireFromString("50.00"),
		}},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPublisher_OrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := NewPublisherWithWriter(w, "storefront-backend")

	require.NoError(t, p.OrderPlaced(context.Background(), testOrder()))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, EventOrderPlaced, env.EventType)
	assert.Equal(t, "storefront-backend", env.Producer)
	assert.NotEmpty(t, env.EventID)

	var payload OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "order-1", payload.OrderID)
	assert.Equal(t, "s1", payload.SessionID)
	assert.True(t, decimal.RequireFromString("50").Equal(payload.Total))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, 5, payload.Items[0].Quantity)
}

func TestPublisher_OrderPlaced_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewPublisherWithWriter(w, "storefront-backend")

	err := p.OrderPlaced(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order-1")
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewPublisherWithWriter(w, "x").Close())
	assert.True(t, w.closed)
}
