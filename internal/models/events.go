package models

import "time"

// Event types
const (
	EventTypeCartChanged      = "CART_CHANGED"
	EventTypeWishlistChanged  = "WISHLIST_CHANGED"
	EventTypeOrderPlaced      = "ORDER_PLACED"
	EventTypePaymentSucceeded = "PAYMENT_SUCCEEDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// AggregateChangedEvent tells listeners that a user's cart or wishlist
// changed. It deliberately carries no aggregate state; consumers re-fetch.
type AggregateChangedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	Operation string `json:"operation"`
}

// OrderPlacedEvent published when an order snapshot is stored
type OrderPlacedEvent struct {
	BaseEvent
	OrderID int64 `json:"order_id"`
	UserID  int64 `json:"user_id"`
	Total   int64 `json:"total"`
}

// PaymentSucceededEvent published after the stub payment settles
type PaymentSucceededEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	PaymentID int64  `json:"payment_id"`
	Amount    int64  `json:"amount"`
	TxID      string `json:"tx_id"`
}
