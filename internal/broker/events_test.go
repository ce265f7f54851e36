package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	keys   []string
	events []interface{}
}

func (r *recordingSink) PublishEvent(ctx context.Context, key string, event interface{}) error {
	r.keys = append(r.keys, key)
	r.events = append(r.events, event)
	return nil
}

func TestPublisherKeys(t *testing.T) {
	sink := &recordingSink{}
	ep := NewEventPublisher(sink)
	ctx := context.Background()

	require.NoError(t, ep.PublishCartChanged(ctx, &models.AggregateChangedEvent{UserID: 4}))
	require.NoError(t, ep.PublishWishlistChanged(ctx, &models.AggregateChangedEvent{UserID: 4}))
	require.NoError(t, ep.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{OrderID: 9}))

	assert.Equal(t, []string{"user-4", "user-4", "order-9"}, sink.keys)
}

func TestHandleMessageRoutesOrderPlaced(t *testing.T) {
	eh := NewEventHandler()

	var got *models.OrderPlacedEvent
	eh.OnOrderPlaced(func(ctx context.Context, e *models.OrderPlacedEvent) error {
		got = e
		return nil
	})

	value, err := json.Marshal(models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderPlaced, Timestamp: time.Now()},
		OrderID:   3,
		UserID:    2,
		Total:     2500,
	})
	require.NoError(t, err)

	require.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.OrderID)
	assert.Equal(t, int64(2500), got.Total)
}

func TestHandleMessageSkipsUnregistered(t *testing.T) {
	eh := NewEventHandler()

	value, err := json.Marshal(models.AggregateChangedEvent{
		BaseEvent: models.BaseEvent{EventID: "e2", EventType: models.EventTypeCartChanged},
		UserID:    1,
	})
	require.NoError(t, err)

	assert.NoError(t, eh.HandleMessage(context.Background(), kafka.Message{Value: value}))
	assert.Error(t, eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")}))
}
