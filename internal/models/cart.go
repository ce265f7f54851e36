package models

import (
	"database/sql/driver"
	"time"
)

// Cart is the per-user shopping cart document.
// Items holds at most one line per product.
type Cart struct {
	UserID    int64     `db:"user_id" json:"user_id"`
	Items     CartItems `db:"items" json:"items"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartItem is a product reference with a quantity of at least one
type CartItem struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// CartItems is stored as a JSONB column
type CartItems []CartItem

func (c CartItems) Value() (driver.Value, error) {
	if c == nil {
		c = CartItems{}
	}
	return jsonValue(c)
}

func (c *CartItems) Scan(src interface{}) error { return jsonScan(src, c) }

// NewCart returns an empty cart owned by userID
func NewCart(userID int64) *Cart {
	return &Cart{UserID: userID, Items: CartItems{}}
}

func (c *Cart) indexOf(productID int64) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add applies delta to the line for productID and returns the resulting quantity.
// A missing line is inserted only for a positive delta. A line that drops to
// zero or below is removed, so a returned quantity of 0 means no line remains.
func (c *Cart) Add(productID int64, delta int, now time.Time) int {
	i := c.indexOf(productID)
	if i < 0 {
		if delta <= 0 {
			return 0
		}
		c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: delta, AddedAt: now})
		return delta
	}

	qty := c.Items[i].Quantity + delta
	if qty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return 0
	}
	c.Items[i].Quantity = qty
	return qty
}

// Remove deletes the line for productID. It reports whether a line was present.
func (c *Cart) Remove(productID int64) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// Quantity returns the quantity on the line for productID, or 0
func (c *Cart) Quantity(productID int64) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// ProductIDs returns the referenced products in line order
func (c *Cart) ProductIDs() []int64 {
	ids := make([]int64, len(c.Items))
	for i, item := range c.Items {
		ids[i] = item.ProductID
	}
	return ids
}

// CartLine is a cart item resolved against the current catalog
type CartLine struct {
	Product   Product `json:"product"`
	Quantity  int     `json:"quantity"`
	LineTotal int64   `json:"line_total"`
}

// CartView is what clients see. Prices are read live on every resolve,
// so the subtotal is never persisted.
type CartView struct {
	Items    []CartLine `json:"items"`
	Count    int        `json:"count"`
	Units    int        `json:"units"`
	Subtotal int64      `json:"subtotal"`
}

// Resolve expands the cart against products keyed by id.
// Lines whose product no longer exists are left out of the view.
func (c *Cart) Resolve(products map[int64]Product) CartView {
	view := CartView{Items: make([]CartLine, 0, len(c.Items))}
	for _, item := range c.Items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		line := CartLine{
			Product:   p,
			Quantity:  item.Quantity,
			LineTotal: p.Price * int64(item.Quantity),
		}
		view.Items = append(view.Items, line)
		view.Units += item.Quantity
		view.Subtotal += line.LineTotal
	}
	view.Count = len(view.Items)
	return view
}
