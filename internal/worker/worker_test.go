package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/store/memstore"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays fixed messages, then stops
type sliceSource struct {
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (s *sliceSource) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for _, msg := range s.messages {
		s.errs = append(s.errs, handler(ctx, msg))
	}
	return nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func orderPlacedMessage(t *testing.T, eventID string, order *models.Order) kafka.Message {
	t.Helper()
	value, err := json.Marshal(models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: eventID, EventType: models.EventTypeOrderPlaced, Timestamp: time.Now()},
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
	})
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestPaymentWorkerSettlesOnce(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	order := &models.Order{UserID: 1, Total: 1500, IdempotencyKey: "k"}
	require.NoError(t, mem.CreateOrder(ctx, order))

	msg := orderPlacedMessage(t, "evt-1", order)
	source := &sliceSource{messages: []kafka.Message{msg, msg}}

	payments := service.NewPaymentService(mem, broker.NewEventPublisher(broker.LogSink{}))
	w := NewPaymentWorker(source, payments)

	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Stop())
	assert.True(t, source.closed)
	for _, err := range source.errs {
		assert.NoError(t, err)
	}

	payment, err := mem.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
	assert.Equal(t, int64(1500), payment.Amount)

	processed, err := mem.IsEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestPaymentWorkerUnknownOrder(t *testing.T) {
	mem := memstore.New()
	source := &sliceSource{messages: []kafka.Message{
		orderPlacedMessage(t, "evt-2", &models.Order{ID: 404, UserID: 1, Total: 10}),
	}}

	w := NewPaymentWorker(source, service.NewPaymentService(mem, broker.NewEventPublisher(broker.LogSink{})))
	require.NoError(t, w.Start(context.Background()))

	require.Len(t, source.errs, 1)
	assert.Error(t, source.errs[0])
}

func TestLoopbackSettlesInProcess(t *testing.T) {
	ctx := context.Background()
	mem := memstore.New()

	sink := broker.NewLoopbackSink()
	events := broker.NewEventPublisher(sink)
	payments := service.NewPaymentService(mem, events)
	sink.Attach(NewPaymentHandler(payments).HandleMessage)

	order := &models.Order{UserID: 1, Total: 900, IdempotencyKey: "k"}
	require.NoError(t, mem.CreateOrder(ctx, order))
	require.NoError(t, events.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-3", EventType: models.EventTypeOrderPlaced},
		OrderID:   order.ID,
		UserID:    1,
		Total:     900,
	}))

	payment, err := mem.GetPaymentByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSuccess, payment.Status)
}
