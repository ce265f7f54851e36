package service

import (
	"context"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService settles orders against a stub provider that always succeeds
type PaymentService struct {
	payments PaymentRepository
	events   EventPublisher
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(payments PaymentRepository, events EventPublisher) *PaymentService {
	return &PaymentService{
		payments: payments,
		events:   events,
		logger:   util.GetLogger(),
	}
}

// HandleOrderPlaced settles the order named by event. Redelivered events
// are recognised by id and skipped.
func (ps *PaymentService) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "PaymentService.HandleOrderPlaced")
	defer span.End()

	processed, err := ps.payments.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		ps.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	order, err := ps.payments.GetOrderByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", event.OrderID, err)
	}

	if _, err := ps.Settle(ctx, order); err != nil {
		return util.RecordError(span, err)
	}

	if err := ps.payments.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// Settle records a successful payment for order's total
func (ps *PaymentService) Settle(ctx context.Context, order *models.Order) (*models.Payment, error) {
	payment := &models.Payment{
		OrderID: order.ID,
		Status:  models.PaymentStatusPending,
		Amount:  order.Total,
	}
	if err := ps.payments.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	txID := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
	if err := ps.payments.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusSuccess, txID); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}
	payment.Status = models.PaymentStatusSuccess
	payment.ProviderTxID = txID

	util.PaymentsSettledTotal.Inc()
	ps.logger.Info("Payment succeeded",
		zap.Int64("order_id", order.ID),
		zap.String("tx_id", txID))

	event := &models.PaymentSucceededEvent{
		BaseEvent: newBaseEvent(models.EventTypePaymentSucceeded),
		OrderID:   order.ID,
		PaymentID: payment.ID,
		Amount:    payment.Amount,
		TxID:      txID,
	}
	if err := ps.events.PublishPaymentSucceeded(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PaymentSucceeded event", zap.Error(err))
	}

	return payment, nil
}

// GetPayment retrieves payment for an order
func (ps *PaymentService) GetPayment(ctx context.Context, orderID int64) (*models.Payment, error) {
	p, err := ps.payments.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}
