package service

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Aggregate kinds used in change events and metrics
const (
	KindCart     = "cart"
	KindWishlist = "wishlist"
)

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// publishChanged announces that a user's aggregate changed. Publishing is
// best effort: the mutation already happened and is not undone on failure.
func publishChanged(ctx context.Context, events EventPublisher, logger *zap.Logger, kind string, userID int64, operation string) {
	var err error
	switch kind {
	case KindCart:
		err = events.PublishCartChanged(ctx, &models.AggregateChangedEvent{
			BaseEvent: newBaseEvent(models.EventTypeCartChanged),
			UserID:    userID,
			Operation: operation,
		})
	case KindWishlist:
		err = events.PublishWishlistChanged(ctx, &models.AggregateChangedEvent{
			BaseEvent: newBaseEvent(models.EventTypeWishlistChanged),
			UserID:    userID,
			Operation: operation,
		})
	}

	util.ChangeEventsPublishedTotal.WithLabelValues(kind, util.Result(err)).Inc()
	if err != nil {
		logger.Error("Failed to publish change event",
			zap.String("kind", kind),
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}

// productMap resolves ids into a lookup keyed by product id
func productMap(ctx context.Context, products ProductReader, ids []int64) (map[int64]models.Product, error) {
	found, err := products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	m := make(map[int64]models.Product, len(found))
	for _, p := range found {
		m[p.ID] = p
	}
	return m, nil
}
