package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const checkoutLockTTL = 30 * time.Second

// OrderService turns carts into immutable order snapshots
type OrderService struct {
	orders    OrderRepository
	products  ProductReader
	carts     CartRepository
	cart      *CartService
	locker    Locker
	events    EventPublisher
	clearCart bool
	logger    *zap.Logger
}

// NewOrderService creates a new order service. When clearCart is set a
// successful checkout empties the cart afterwards.
func NewOrderService(
	orders OrderRepository,
	products ProductReader,
	carts CartRepository,
	cart *CartService,
	locker Locker,
	events EventPublisher,
	clearCart bool,
) *OrderService {
	return &OrderService{
		orders:    orders,
		products:  products,
		carts:     carts,
		cart:      cart,
		locker:    locker,
		events:    events,
		clearCart: clearCart,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest represents a checkout submission. Items may be omitted
// to check out the current cart.
type PlaceOrderRequest struct {
	Items          []OrderItemRequest     `json:"items" binding:"omitempty,dive"`
	Contact        models.Contact         `json:"contact" binding:"required"`
	Shipping       models.ShippingAddress `json:"shipping" binding:"required"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// OrderDetails is an order with its payment, if one was settled
type OrderDetails struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment,omitempty"`
}

// PlaceOrder snapshots items at current prices and stores the order.
// Repeating a request with the same idempotency key returns the first order.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existing, err := s.orders.GetOrderByIdempotencyKey(ctx, userID, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing != nil {
		s.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existing.ID))
		return existing, nil
	}

	lockKey := fmt.Sprintf("checkout:%d:%s", userID, req.IdempotencyKey)
	acquired, err := s.locker.AcquireLock(ctx, lockKey, checkoutLockTTL)
	if err != nil {
		s.logger.Warn("Checkout lock unavailable, continuing", zap.Error(err))
	} else if !acquired {
		util.OrdersFailedTotal.WithLabelValues("in_progress").Inc()
		return nil, fmt.Errorf("%w: checkout already in progress", ErrConflict)
	} else {
		defer func() {
			if err := s.locker.ReleaseLock(ctx, lockKey); err != nil {
				s.logger.Warn("Failed to release checkout lock", zap.Error(err))
			}
		}()
	}

	items, err := s.requestedItems(ctx, userID, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	snapshot, total, err := s.snapshot(ctx, items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	order := &models.Order{
		UserID:         userID,
		Items:          snapshot,
		Contact:        req.Contact,
		Shipping:       req.Shipping,
		Total:          total,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			if existing, lookupErr := s.orders.GetOrderByIdempotencyKey(ctx, userID, req.IdempotencyKey); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, util.RecordError(span, fmt.Errorf("failed to create order: %w", err))
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.Int64("total", order.Total))

	event := &models.OrderPlacedEvent{
		BaseEvent: newBaseEvent(models.EventTypeOrderPlaced),
		OrderID:   order.ID,
		UserID:    userID,
		Total:     order.Total,
	}
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	if s.clearCart {
		if _, err := s.cart.Clear(ctx, userID); err != nil {
			s.logger.Warn("Failed to clear cart after checkout",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
	}

	return order, nil
}

// requestedItems returns the explicit items, or the cart's lines when none
// were given. Duplicate product ids are merged.
func (s *OrderService) requestedItems(ctx context.Context, userID int64, items []OrderItemRequest) ([]OrderItemRequest, error) {
	if len(items) == 0 {
		cart, err := s.carts.GetCart(ctx, userID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to load cart: %w", err)
		}
		if cart != nil {
			for _, item := range cart.Items {
				items = append(items, OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
			}
		}
	}
	if len(items) == 0 {
		return nil, validationf("order has no items")
	}

	merged := make([]OrderItemRequest, 0, len(items))
	index := make(map[int64]int, len(items))
	for _, item := range items {
		if item.ProductID <= 0 || item.Quantity < 1 {
			return nil, validationf("invalid item for product %d", item.ProductID)
		}
		if i, ok := index[item.ProductID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// snapshot copies product data at current prices into order lines
func (s *OrderService) snapshot(ctx context.Context, items []OrderItemRequest) (models.OrderItems, int64, error) {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := productMap(ctx, s.products, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to resolve products: %w", err)
	}

	lines := make(models.OrderItems, 0, len(items))
	var total int64
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
		}
		lines = append(lines, models.OrderItem{
			ProductID: p.ID,
			Title:     p.Title,
			Image:     p.Image,
			UnitPrice: p.Price,
			Quantity:  item.Quantity,
		})
		total += p.Price * int64(item.Quantity)
	}
	return lines, total, nil
}

// ListOrders returns the user's orders, newest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.orders.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// GetOrder returns an order owned by userID together with its payment.
// Orders belonging to someone else are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*OrderDetails, error) {
	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, translate(err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}

	details := &OrderDetails{Order: order}
	payment, err := s.orders.GetPaymentByOrderID(ctx, orderID)
	switch {
	case err == nil:
		details.Payment = payment
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, err
	}
	return details, nil
}
