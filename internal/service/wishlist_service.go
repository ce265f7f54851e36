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

// WishlistService owns the per-user wishlist aggregate
type WishlistService struct {
	wishlists WishlistRepository
	products  ProductReader
	cart      *CartService
	events    EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewWishlistService creates a new wishlist service. cart is used by MoveToCart.
func NewWishlistService(wishlists WishlistRepository, products ProductReader, cart *CartService, events EventPublisher) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		products:  products,
		cart:      cart,
		events:    events,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
}

// AddToWishlistRequest saves one product
type AddToWishlistRequest struct {
	ProductID int64 `json:"product_id" binding:"required,min=1"`
}

// MoveResult carries both aggregates after a move
type MoveResult struct {
	Cart     *models.CartView     `json:"cart"`
	Wishlist *models.WishlistView `json:"wishlist"`
}

func (s *WishlistService) load(ctx context.Context, userID int64) (*models.Wishlist, error) {
	w, err := s.wishlists.GetWishlist(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.NewWishlist(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return w, nil
}

func (s *WishlistService) view(ctx context.Context, w *models.Wishlist) (*models.WishlistView, error) {
	products, err := productMap(ctx, s.products, w.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wishlist products: %w", err)
	}
	v := w.Resolve(products)
	return &v, nil
}

// Fetch returns the wishlist resolved against the current catalog
func (s *WishlistService) Fetch(ctx context.Context, userID int64) (*models.WishlistView, error) {
	ctx, span := util.StartSpan(ctx, "WishlistService.Fetch")
	defer span.End()

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, w)
}

// Add saves productID. Saving a product twice is a no-op success.
func (s *WishlistService) Add(ctx context.Context, userID, productID int64) (*models.WishlistView, error) {
	ctx, span := util.StartSpan(ctx, "WishlistService.Add")
	defer span.End()

	view, err := s.add(ctx, userID, productID)
	util.WishlistMutationsTotal.WithLabelValues("add", util.Result(err)).Inc()
	return view, util.RecordError(span, err)
}

func (s *WishlistService) add(ctx context.Context, userID, productID int64) (*models.WishlistView, error) {
	if productID <= 0 {
		return nil, validationf("product id is required")
	}
	if _, err := s.products.GetProductByID(ctx, productID); err != nil {
		return nil, translate(err)
	}

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !w.Add(productID, s.now()) {
		return s.view(ctx, w)
	}

	if err := s.wishlists.SaveWishlist(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save wishlist: %w", err)
	}
	publishChanged(ctx, s.events, s.logger, KindWishlist, userID, "add")

	return s.view(ctx, w)
}

// Remove drops productID. Removing an absent product succeeds.
func (s *WishlistService) Remove(ctx context.Context, userID, productID int64) (*models.WishlistView, error) {
	ctx, span := util.StartSpan(ctx, "WishlistService.Remove")
	defer span.End()

	view, err := s.remove(ctx, userID, productID)
	util.WishlistMutationsTotal.WithLabelValues("remove", util.Result(err)).Inc()
	return view, util.RecordError(span, err)
}

func (s *WishlistService) remove(ctx context.Context, userID, productID int64) (*models.WishlistView, error) {
	if productID <= 0 {
		return nil, validationf("product id is required")
	}

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !w.Remove(productID) {
		return s.view(ctx, w)
	}

	if err := s.wishlists.SaveWishlist(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to save wishlist: %w", err)
	}
	publishChanged(ctx, s.events, s.logger, KindWishlist, userID, "remove")

	return s.view(ctx, w)
}

// Clear removes every saved product, one Remove per item, stopping at the
// first failure.
func (s *WishlistService) Clear(ctx context.Context, userID int64) (*models.WishlistView, error) {
	ctx, span := util.StartSpan(ctx, "WishlistService.Clear")
	defer span.End()

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, productID := range w.ProductIDs() {
		if _, err := s.Remove(ctx, userID, productID); err != nil {
			util.CompositePartialFailuresTotal.WithLabelValues("wishlist.clear").Inc()
			return nil, &PartialFailureError{
				Operation: "wishlist.clear",
				Completed: removed,
				Failed:    removeStep(productID),
				Err:       err,
			}
		}
		removed = append(removed, removeStep(productID))
	}

	return s.Fetch(ctx, userID)
}

// Move steps
const (
	stepCartAdd        = "cart.add"
	stepWishlistRemove = "wishlist.remove"
)

// MoveToCart adds one unit of productID to the cart, then drops it from the
// wishlist. There is no shared transaction: if the wishlist step fails the
// added unit is taken back out of the cart. Only when that compensation
// also fails is a PartialFailureError returned, with the product in both.
func (s *WishlistService) MoveToCart(ctx context.Context, userID, productID int64) (*MoveResult, error) {
	ctx, span := util.StartSpan(ctx, "WishlistService.MoveToCart")
	defer span.End()
	span.SetAttributes(attribute.Int64("user_id", userID), attribute.Int64("product_id", productID))

	if productID <= 0 {
		return nil, validationf("product id is required")
	}

	w, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !w.Contains(productID) {
		return nil, fmt.Errorf("%w: product %d is not in the wishlist", ErrNotFound, productID)
	}

	cartView, err := s.cart.Add(ctx, userID, productID, 1)
	if err != nil {
		return nil, fmt.Errorf("move to cart: %w", err)
	}

	wishlistView, err := s.Remove(ctx, userID, productID)
	if err != nil {
		s.logger.Warn("Wishlist removal failed, compensating cart add",
			zap.Int64("user_id", userID),
			zap.Int64("product_id", productID),
			zap.Error(err))

		_, compErr := s.cart.Add(ctx, userID, productID, -1)
		util.CompensationsTotal.WithLabelValues("wishlist.move_to_cart", util.Result(compErr)).Inc()
		if compErr != nil {
			util.CompositePartialFailuresTotal.WithLabelValues("wishlist.move_to_cart").Inc()
			s.logger.Error("Compensation failed, product left in cart and wishlist",
				zap.Int64("user_id", userID),
				zap.Int64("product_id", productID),
				zap.Error(compErr))
			return nil, util.RecordError(span, &PartialFailureError{
				Operation: "wishlist.move_to_cart",
				Completed: []string{stepCartAdd},
				Failed:    stepWishlistRemove,
				Err:       errors.Join(err, compErr),
			})
		}
		return nil, util.RecordError(span, fmt.Errorf("move to cart: %w", err))
	}

	return &MoveResult{Cart: cartView, Wishlist: wishlistView}, nil
}
