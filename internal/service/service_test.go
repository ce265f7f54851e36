package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store/memstore"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type recordingEvents struct {
	mu       sync.Mutex
	cart     []*models.AggregateChangedEvent
	wishlist []*models.AggregateChangedEvent
	placed   []*models.OrderPlacedEvent
	paid     []*models.PaymentSucceededEvent
}

func (r *recordingEvents) PublishCartChanged(ctx context.Context, e *models.AggregateChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cart = append(r.cart, e)
	return nil
}

func (r *recordingEvents) PublishWishlistChanged(ctx context.Context, e *models.AggregateChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wishlist = append(r.wishlist, e)
	return nil
}

func (r *recordingEvents) PublishOrderPlaced(ctx context.Context, e *models.OrderPlacedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed = append(r.placed, e)
	return nil
}

func (r *recordingEvents) PublishPaymentSucceeded(ctx context.Context, e *models.PaymentSucceededEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paid = append(r.paid, e)
	return nil
}

// flakyCarts fails SaveCart according to a queue of results
type flakyCarts struct {
	*memstore.Store
	saves []error
}

func (f *flakyCarts) SaveCart(ctx context.Context, cart *models.Cart) error {
	if len(f.saves) > 0 {
		err := f.saves[0]
		f.saves = f.saves[1:]
		if err != nil {
			return err
		}
	}
	return f.Store.SaveCart(ctx, cart)
}

// flakyWishlists fails SaveWishlist according to a queue of results
type flakyWishlists struct {
	*memstore.Store
	saves []error
}

func (f *flakyWishlists) SaveWishlist(ctx context.Context, w *models.Wishlist) error {
	if len(f.saves) > 0 {
		err := f.saves[0]
		f.saves = f.saves[1:]
		if err != nil {
			return err
		}
	}
	return f.Store.SaveWishlist(ctx, w)
}

type testEnv struct {
	mem       *memstore.Store
	ephemeral *memstore.Ephemeral
	events    *recordingEvents
	carts     *flakyCarts
	wishlists *flakyWishlists
	cart      *CartService
	wishlist  *WishlistService
	orders    *OrderService
	payments  *PaymentService
}

func newTestEnv(t *testing.T, clearCart bool) *testEnv {
	t.Helper()

	mem := memstore.New()
	e := &testEnv{
		mem:       mem,
		ephemeral: memstore.NewEphemeral(),
		events:    &recordingEvents{},
		carts:     &flakyCarts{Store: mem},
		wishlists: &flakyWishlists{Store: mem},
	}
	e.cart = NewCartService(e.carts, mem, e.events, 99)
	e.wishlist = NewWishlistService(e.wishlists, mem, e.cart, e.events)
	e.orders = NewOrderService(mem, mem, e.carts, e.cart, e.ephemeral, e.events, clearCart)
	e.payments = NewPaymentService(mem, e.events)
	return e
}

func (e *testEnv) product(t *testing.T, title string, price int64) models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: price, Condition: models.DefaultCondition}
	require.NoError(t, e.mem.CreateProduct(context.Background(), p))
	return *p
}
