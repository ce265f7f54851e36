package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User represents a registered customer or administrator
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"is_admin"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Product represents a product in the catalog
type Product struct {
	ID            int64     `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Price         int64     `db:"price" json:"price"`
	OriginalPrice *int64    `db:"original_price" json:"original_price,omitempty"`
	Image         string    `db:"image" json:"image"`
	Condition     string    `db:"condition" json:"condition"`
	Category      string    `db:"category" json:"category"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultCondition is applied to products created without a condition tag
const DefaultCondition = "Good"

// Category is an administrator-managed display filter.
// Products reference it by name only.
type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order is an immutable checkout snapshot
type Order struct {
	ID             int64           `db:"id" json:"id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	Items          OrderItems      `db:"items" json:"items"`
	Contact        Contact         `db:"contact" json:"contact"`
	Shipping       ShippingAddress `db:"shipping" json:"shipping"`
	Total          int64           `db:"total" json:"total"`
	IdempotencyKey string          `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem is a copied line, not a live product reference
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Image     string `json:"image"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// OrderItems is stored as a JSONB column
type OrderItems []OrderItem

func (o OrderItems) Value() (driver.Value, error) { return jsonValue(o) }
func (o *OrderItems) Scan(src interface{}) error  { return jsonScan(src, o) }

// Contact holds how to reach the buyer
type Contact struct {
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"required,len=10,numeric"`
}

func (c Contact) Value() (driver.Value, error) { return jsonValue(c) }
func (c *Contact) Scan(src interface{}) error  { return jsonScan(src, c) }

// ShippingAddress is where the order is delivered
type ShippingAddress struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Address   string `json:"address" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Zip       string `json:"zip" binding:"required,numeric"`
	Country   string `json:"country" binding:"required"`
}

func (s ShippingAddress) Value() (driver.Value, error) { return jsonValue(s) }
func (s *ShippingAddress) Scan(src interface{}) error  { return jsonScan(src, s) }

// Payment records the stub settlement of an order
type Payment struct {
	ID           int64     `db:"id" json:"id"`
	OrderID      int64     `db:"order_id" json:"order_id"`
	Status       string    `db:"status" json:"status"`
	ProviderTxID string    `db:"provider_tx_id" json:"provider_tx_id,omitempty"`
	Amount       int64     `db:"amount" json:"amount"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Payment statuses
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusSuccess = "SUCCESS"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}

// Product sort orders
const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// ProductFilter narrows a catalog listing. Zero values mean "any".
type ProductFilter struct {
	Category  string
	Condition string
	MinPrice  int64
	MaxPrice  int64
	Search    string
	Sort      string
	Page      int
	Limit     int
}

// Offset returns the number of rows skipped for the filter's page
func (f ProductFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
