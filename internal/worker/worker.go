package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// MessageSource is a stream of broker messages, normally *broker.Consumer
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// NewPaymentHandler routes ORDER_PLACED events to the payment service.
// PAYMENT_SUCCEEDED events are only logged; orders are never updated.
func NewPaymentHandler(payments *service.PaymentService) *broker.EventHandler {
	logger := util.GetLogger()

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(payments.HandleOrderPlaced)
	eventHandler.OnPaymentSucceeded(func(ctx context.Context, event *models.PaymentSucceededEvent) error {
		logger.Info("Order paid",
			zap.Int64("order_id", event.OrderID),
			zap.String("tx_id", event.TxID))
		return nil
	})
	return eventHandler
}

// PaymentWorker settles orders as they are placed
type PaymentWorker struct {
	source       MessageSource
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(source MessageSource, payments *service.PaymentService) *PaymentWorker {
	return &PaymentWorker{
		source:       source,
		eventHandler: NewPaymentHandler(payments),
		logger:       util.GetLogger(),
	}
}

// Start consumes until ctx is cancelled
func (pw *PaymentWorker) Start(ctx context.Context) error {
	pw.logger.Info("Starting payment worker")
	return pw.source.StartConsuming(ctx, pw.eventHandler.HandleMessage)
}

// Stop stops the payment worker
func (pw *PaymentWorker) Stop() error {
	pw.logger.Info("Stopping payment worker")
	return pw.source.Close()
}
