package service

import (
	"context"
	"time"

	"storefront/internal/models"
)

// UserRepository persists users
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// ProductReader resolves product references
type ProductReader interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// CatalogRepository persists products and categories
type CatalogRepository interface {
	ProductReader
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// CartRepository stores one cart document per user
type CartRepository interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
}

// WishlistRepository stores one wishlist document per user
type WishlistRepository interface {
	GetWishlist(ctx context.Context, userID int64) (*models.Wishlist, error)
	SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error
}

// OrderRepository persists order snapshots
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
}

// PaymentRepository persists stub payments and consumer bookkeeping
type PaymentRepository interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID int64, status, providerTxID string) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// EventPublisher emits domain events
type EventPublisher interface {
	PublishCartChanged(ctx context.Context, event *models.AggregateChangedEvent) error
	PublishWishlistChanged(ctx context.Context, event *models.AggregateChangedEvent) error
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishPaymentSucceeded(ctx context.Context, event *models.PaymentSucceededEvent) error
}

// TokenDenylist remembers revoked bearer tokens
type TokenDenylist interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Locker provides short-lived mutual exclusion across processes
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}
