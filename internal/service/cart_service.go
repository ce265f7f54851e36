package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CartService owns the per-user cart aggregate
type CartService struct {
	carts    CartRepository
	products ProductReader
	events   EventPublisher
	maxDelta int
	logger   *zap.Logger
	now      func() time.Time
}

// NewCartService creates a new cart service. maxDelta bounds |delta| on Add.
func NewCartService(carts CartRepository, products ProductReader, events EventPublisher, maxDelta int) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		events:   events,
		maxDelta: maxDelta,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// AddToCartRequest adjusts the quantity of one cart line
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required,min=1"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// load returns the stored cart, or a fresh empty one
func (s *CartService) load(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewCart(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *CartService) view(ctx context.Context, cart *models.Cart) (*models.CartView, error) {
	products, err := productMap(ctx, s.products, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart products: %w", err)
	}
	v := cart.Resolve(products)
	return &v, nil
}

// Fetch returns the cart resolved against current catalog prices
func (s *CartService) Fetch(ctx context.Context, userID int64) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Fetch")
	defer span.End()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Add applies delta to the line for productID. A new line is created for a
// positive delta; a line that falls to zero is removed.
func (s *CartService) Add(ctx context.Context, userID, productID int64, delta int) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Add")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user_id", userID),
		attribute.Int64("product_id", productID),
		attribute.Int("delta", delta))

	view, err := s.add(ctx, userID, productID, delta)
	util.CartMutationsTotal.WithLabelValues("add", util.Result(err)).Inc()
	return view, util.RecordError(span, err)
}

func (s *CartService) add(ctx context.Context, userID, productID int64, delta int) (*models.CartView, error) {
	if productID <= 0 {
		return nil, validationf("product id is required")
	}
	if delta == 0 {
		return nil, validationf("quantity must not be zero")
	}
	if delta > s.maxDelta || delta < -s.maxDelta {
		return nil, validationf("quantity must be between -%d and %d", s.maxDelta, s.maxDelta)
	}

	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, translate(err)
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := cart.Quantity(productID)
	after := cart.Add(productID, delta, s.now())
	if before == after {
		return s.view(ctx, cart)
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug("Cart line adjusted",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", after))
	publishChanged(ctx, s.events, s.logger, KindCart, userID, "add")

	return s.view(ctx, cart)
}

// Remove deletes the line for productID. Removing an absent line succeeds.
func (s *CartService) Remove(ctx context.Context, userID, productID int64) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Remove")
	defer span.End()

	view, err := s.remove(ctx, userID, productID)
	util.CartMutationsTotal.WithLabelValues("remove", util.Result(err)).Inc()
	return view, util.RecordError(span, err)
}

func (s *CartService) remove(ctx context.Context, userID, productID int64) (*models.CartView, error) {
	if productID <= 0 {
		return nil, validationf("product id is required")
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !cart.Remove(productID) {
		return s.view(ctx, cart)
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	publishChanged(ctx, s.events, s.logger, KindCart, userID, "remove")

	return s.view(ctx, cart)
}

// Clear removes every line, one Remove per line. It is not atomic: on the
// first failing Remove it stops and reports the lines already removed.
func (s *CartService) Clear(ctx context.Context, userID int64) (*models.CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Clear")
	defer span.End()

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, productID := range cart.ProductIDs() {
		if _, err := s.Remove(ctx, userID, productID); err != nil {
			util.CompositePartialFailuresTotal.WithLabelValues("cart.clear").Inc()
			s.logger.Warn("Cart clear stopped part way",
				zap.Int64("user_id", userID),
				zap.Int64("product_id", productID),
				zap.Int("removed", len(removed)),
				zap.Error(err))
			return nil, &PartialFailureError{
				Operation: "cart.clear",
				Completed: removed,
				Failed:    removeStep(productID),
				Err:       err,
			}
		}
		removed = append(removed, removeStep(productID))
	}

	return s.Fetch(ctx, userID)
}

func removeStep(productID int64) string {
	return fmt.Sprintf("remove %d", productID)
}
