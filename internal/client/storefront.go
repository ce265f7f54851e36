package client

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/signal"
)

// Storefront is the view controller behind the catalog, cart and wishlist
// screens. Every mutation it performs is followed by a change signal so
// that other views (badges) re-fetch their own state.
type Storefront struct {
	api     *Client
	session *Session
	bus     *signal.Bus
}

// NewStorefront wires a controller to its API client, session and bus
func NewStorefront(api *Client, session *Session, bus *signal.Bus) *Storefront {
	return &Storefront{api: api, session: session, bus: bus}
}

// Session returns the shared session
func (s *Storefront) Session() *Session {
	return s.session
}

// announce publishes kind after a mutation that changed, or may have
// partly changed, server state
func (s *Storefront) announce(kind signal.Kind, err error) {
	if err == nil || IsPartialFailure(err) {
		s.bus.Publish(kind)
	}
}

func (s *Storefront) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	resp, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	return resp.User, s.session.Set(resp.Token, resp.User)
}

func (s *Storefront) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return resp.User, s.session.Set(resp.Token, resp.User)
}

// Logout revokes the token server side and always clears the local session
func (s *Storefront) Logout(ctx context.Context) error {
	apiErr := s.api.Logout(ctx)
	if err := s.session.Clear(); err != nil {
		return err
	}
	return apiErr
}

func (s *Storefront) Products(ctx context.Context, q service.ProductQuery) (*service.ProductPage, error) {
	return s.api.ListProducts(ctx, q)
}

func (s *Storefront) Product(ctx context.Context, id int64) (*models.Product, error) {
	return s.api.GetProduct(ctx, id)
}

func (s *Storefront) Categories(ctx context.Context) ([]models.Category, error) {
	return s.api.ListCategories(ctx)
}

func (s *Storefront) Cart(ctx context.Context) (*models.CartView, error) {
	return s.api.FetchCart(ctx)
}

// AddToCart puts one more unit of productID in the cart
func (s *Storefront) AddToCart(ctx context.Context, productID int64) (*models.CartView, error) {
	return s.AdjustCart(ctx, productID, 1)
}

// AdjustCart changes the line for productID by delta
func (s *Storefront) AdjustCart(ctx context.Context, productID int64, delta int) (*models.CartView, error) {
	view, err := s.api.AddToCart(ctx, productID, delta)
	s.announce(signal.Cart, err)
	return view, err
}

// Decrement takes one unit off a line. A line holding a single unit is
// removed instead of being set to zero. A line whose product was deleted
// is hidden from the cart view; it is removed outright.
func (s *Storefront) Decrement(ctx context.Context, productID int64) (*models.CartView, error) {
	current, err := s.api.FetchCart(ctx)
	if err != nil {
		return nil, err
	}

	qty := 0
	for _, line := range current.Items {
		if line.Product.ID == productID {
			qty = line.Quantity
			break
		}
	}
	if qty == 0 {
		_, err := s.api.GetProduct(ctx, productID)
		if errors.Is(err, service.ErrNotFound) {
			return s.RemoveFromCart(ctx, productID)
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: product %d is not in the cart", service.ErrNotFound, productID)
	}
	if qty == 1 {
		return s.RemoveFromCart(ctx, productID)
	}
	return s.AdjustCart(ctx, productID, -1)
}

func (s *Storefront) RemoveFromCart(ctx context.Context, productID int64) (*models.CartView, error) {
	view, err := s.api.RemoveFromCart(ctx, productID)
	s.announce(signal.Cart, err)
	return view, err
}

func (s *Storefront) ClearCart(ctx context.Context) (*models.CartView, error) {
	view, err := s.api.ClearCart(ctx)
	s.announce(signal.Cart, err)
	return view, err
}

func (s *Storefront) Wishlist(ctx context.Context) (*models.WishlistView, error) {
	return s.api.FetchWishlist(ctx)
}

func (s *Storefront) AddToWishlist(ctx context.Context, productID int64) (*models.WishlistView, error) {
	view, err := s.api.AddToWishlist(ctx, productID)
	s.announce(signal.Wishlist, err)
	return view, err
}

func (s *Storefront) RemoveFromWishlist(ctx context.Context, productID int64) (*models.WishlistView, error) {
	view, err := s.api.RemoveFromWishlist(ctx, productID)
	s.announce(signal.Wishlist, err)
	return view, err
}

func (s *Storefront) ClearWishlist(ctx context.Context) (*models.WishlistView, error) {
	view, err := s.api.ClearWishlist(ctx)
	s.announce(signal.Wishlist, err)
	return view, err
}

// MoveToCart touches both aggregates, so both kinds are signalled
func (s *Storefront) MoveToCart(ctx context.Context, productID int64) (*service.MoveResult, error) {
	result, err := s.api.MoveToCart(ctx, productID)
	s.announce(signal.Cart, err)
	s.announce(signal.Wishlist, err)
	return result, err
}

// Checkout places an order. The cart may have been cleared server side, so
// cart views are told to re-fetch.
func (s *Storefront) Checkout(ctx context.Context, req *service.PlaceOrderRequest) (*models.Order, error) {
	order, err := s.api.PlaceOrder(ctx, req)
	s.announce(signal.Cart, err)
	return order, err
}

func (s *Storefront) Orders(ctx context.Context) ([]models.Order, error) {
	return s.api.ListOrders(ctx)
}

func (s *Storefront) Order(ctx context.Context, id int64) (*service.OrderDetails, error) {
	return s.api.GetOrder(ctx, id)
}
