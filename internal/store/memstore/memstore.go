// Package memstore keeps every repository in process memory. It backs
// STORE_DRIVER=memory for local runs and the end-to-end tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"
)

type Store struct {
	mu sync.RWMutex

	nextID     int64
	users      map[int64]models.User
	products   map[int64]models.Product
	categories map[int64]models.Category
	carts      map[int64]models.Cart
	wishlists  map[int64]models.Wishlist
	orders     map[int64]models.Order
	payments   map[int64]models.Payment
	processed  map[string]models.ProcessedEvent

	now func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		users:      make(map[int64]models.User),
		products:   make(map[int64]models.Product),
		categories: make(map[int64]models.Category),
		carts:      make(map[int64]models.Cart),
		wishlists:  make(map[int64]models.Wishlist),
		orders:     make(map[int64]models.Order),
		payments:   make(map[int64]models.Payment),
		processed:  make(map[string]models.ProcessedEvent),
		now:        time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error { return nil }

// CreateUser inserts a user; a taken email yields store.ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %s: %w", user.Email, store.ErrDuplicate)
		}
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, store.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		switch {
		case filter.Category != "" && p.Category != filter.Category:
		case filter.Condition != "" && p.Condition != filter.Condition:
		case filter.MinPrice > 0 && p.Price < filter.MinPrice:
		case filter.MaxPrice > 0 && p.Price > filter.MaxPrice:
		case search != "" && !strings.Contains(strings.ToLower(p.Title), search):
		default:
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch filter.Sort {
		case models.SortPriceLow:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.ID < b.ID
		case models.SortPriceHigh:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
			return a.ID < b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})

	total := len(matched)
	if filter.Limit > 0 {
		start := filter.Offset()
		if start > total {
			start = total
		}
		end := start + filter.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.id()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = *p
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return fmt.Errorf("product %d: %w", p.ID, store.ErrNotFound)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = *p
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return fmt.Errorf("product %d: %w", id, store.ErrNotFound)
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := make([]models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return fmt.Errorf("category %q: %w", c.Name, store.ErrDuplicate)
		}
	}
	c.ID = s.id()
	c.CreatedAt = s.now()
	s.categories[c.ID] = *c
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.carts[userID]
	if !ok {
		return nil, fmt.Errorf("cart for user %d: %w", userID, store.ErrNotFound)
	}
	c.Items = append(models.CartItems{}, c.Items...)
	return &c, nil
}

func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.carts[cart.UserID]; ok {
		cart.CreatedAt = existing.CreatedAt
	} else {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	saved := *cart
	saved.Items = append(models.CartItems{}, cart.Items...)
	s.carts[cart.UserID] = saved
	return nil
}

func (s *Store) GetWishlist(ctx context.Context, userID int64) (*models.Wishlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wishlists[userID]
	if !ok {
		return nil, fmt.Errorf("wishlist for user %d: %w", userID, store.ErrNotFound)
	}
	w.Items = append(models.WishlistItems{}, w.Items...)
	return &w, nil
}

func (s *Store) SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.wishlists[wishlist.UserID]; ok {
		wishlist.CreatedAt = existing.CreatedAt
	} else {
		wishlist.CreatedAt = now
	}
	wishlist.UpdatedAt = now

	saved := *wishlist
	saved.Items = append(models.WishlistItems{}, wishlist.Items...)
	s.wishlists[wishlist.UserID] = saved
	return nil
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
			return fmt.Errorf("order key %s: %w", order.IdempotencyKey, store.ErrDuplicate)
		}
	}
	order.ID = s.id()
	order.CreatedAt = s.now()
	saved := *order
	saved.Items = append(models.OrderItems{}, order.Items...)
	s.orders[order.ID] = saved
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, store.ErrNotFound)
	}
	return &o, nil
}

func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []models.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment.ID = s.id()
	payment.CreatedAt = s.now()
	payment.UpdatedAt = payment.CreatedAt
	s.payments[payment.ID] = *payment
	return nil
}

func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Payment
	for _, p := range s.payments {
		if p.OrderID != orderID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			p := p
			latest = &p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("payment for order %d: %w", orderID, store.ErrNotFound)
	}
	return latest, nil
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status, providerTxID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return fmt.Errorf("payment %d: %w", paymentID, store.ErrNotFound)
	}
	p.Status = status
	p.ProviderTxID = providerTxID
	p.UpdatedAt = s.now()
	s.payments[paymentID] = p
	return nil
}

func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.processed[eventID]
	return ok, nil
}

func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.processed[eventID]; !ok {
		s.processed[eventID] = models.ProcessedEvent{EventID: eventID, EventType: eventType, ProcessedAt: s.now()}
	}
	return nil
}
