package models

import (
	"database/sql/driver"
	"time"
)

// Wishlist is the per-user list of saved products.
// A product appears at most once.
type Wishlist struct {
	UserID    int64         `db:"user_id" json:"user_id"`
	Items     WishlistItems `db:"items" json:"items"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// WishlistItem is a bare product reference
type WishlistItem struct {
	ProductID int64     `json:"product_id"`
	AddedAt   time.Time `json:"added_at"`
}

// WishlistItems is stored as a JSONB column
type WishlistItems []WishlistItem

func (w WishlistItems) Value() (driver.Value, error) {
	if w == nil {
		w = WishlistItems{}
	}
	return jsonValue(w)
}

func (w *WishlistItems) Scan(src interface{}) error { return jsonScan(src, w) }

// NewWishlist returns an empty wishlist owned by userID
func NewWishlist(userID int64) *Wishlist {
	return &Wishlist{UserID: userID, Items: WishlistItems{}}
}

// Contains reports whether productID is saved
func (w *Wishlist) Contains(productID int64) bool {
	for _, item := range w.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// Add saves productID. It reports false when it was already present.
func (w *Wishlist) Add(productID int64, now time.Time) bool {
	if w.Contains(productID) {
		return false
	}
	w.Items = append(w.Items, WishlistItem{ProductID: productID, AddedAt: now})
	return true
}

// Remove drops productID. It reports whether it was present.
func (w *Wishlist) Remove(productID int64) bool {
	for i, item := range w.Items {
		if item.ProductID == productID {
			w.Items = append(w.Items[:i], w.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ProductIDs returns the referenced products in insertion order
func (w *Wishlist) ProductIDs() []int64 {
	ids := make([]int64, len(w.Items))
	for i, item := range w.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// WishlistView is the wishlist expanded to current product data
type WishlistView struct {
	Items []Product `json:"items"`
	Count int       `json:"count"`
}

// Resolve expands the wishlist, skipping products that no longer exist
func (w *Wishlist) Resolve(products map[int64]Product) WishlistView {
	view := WishlistView{Items: make([]Product, 0, len(w.Items))}
	for _, item := range w.Items {
		if p, ok := products[item.ProductID]; ok {
			view.Items = append(view.Items, p)
		}
	}
	view.Count = len(view.Items)
	return view
}
