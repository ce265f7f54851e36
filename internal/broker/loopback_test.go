package broker

import (
	"context"
	"encoding/json"
	"testing"

	"storefront/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopbackSinkDeliversEncodedEvent(t *testing.T) {
	sink := NewLoopbackSink()
	ep := NewEventPublisher(sink)
	ctx := context.Background()

	// nothing attached yet: logged, not an error
	require.NoError(t, ep.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{OrderID: 1}))

	var got []kafka.Message
	sink.Attach(func(ctx context.Context, msg kafka.Message) error {
		got = append(got, msg)
		return nil
	})

	require.NoError(t, ep.PublishOrderPlaced(ctx, &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{EventType: models.EventTypeOrderPlaced},
		OrderID:   7,
	}))
	require.Len(t, got, 1)
	assert.Equal(t, "order-7", string(got[0].Key))

	var decoded models.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(got[0].Value, &decoded))
	assert.Equal(t, int64(7), decoded.OrderID)
}
