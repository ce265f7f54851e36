package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddRepeatedlyKeepsOneLine(t *testing.T) {
	now := time.Now()

	for calls := 1; calls <= 5; calls++ {
		cart := NewCart(1)
		for i := 0; i < calls; i++ {
			cart.Add(42, 1, now)
		}

		require.Len(t, cart.Items, 1)
		assert.Equal(t, int64(42), cart.Items[0].ProductID)
		assert.Equal(t, calls, cart.Quantity(42))
	}
}

func TestCartAddNegativeDelta(t *testing.T) {
	now := time.Now()
	cart := NewCart(1)

	assert.Equal(t, 0, cart.Add(7, -1, now))
	assert.Empty(t, cart.Items)

	cart.Add(7, 3, now)
	assert.Equal(t, 2, cart.Add(7, -1, now))

	cart.Add(8, 1, now)
	assert.Equal(t, 0, cart.Add(8, -1, now))
	assert.Equal(t, []int64{7}, cart.ProductIDs())
	assert.Equal(t, 0, cart.Quantity(8))
}

func TestCartRemove(t *testing.T) {
	now := time.Now()
	cart := NewCart(1)
	cart.Add(1, 2, now)
	cart.Add(2, 1, now)
	cart.Add(3, 1, now)

	assert.False(t, cart.Remove(99))
	assert.Len(t, cart.Items, 3)

	assert.True(t, cart.Remove(2))
	assert.Equal(t, []int64{1, 3}, cart.ProductIDs())
}

func TestCartResolveSubtotal(t *testing.T) {
	now := time.Now()
	cart := NewCart(1)
	cart.Add(1, 2, now)
	cart.Add(2, 1, now)

	products := map[int64]Product{
		1: {ID: 1, Title: "A", Price: 10},
		2: {ID: 2, Title: "B", Price: 5},
	}

	view := cart.Resolve(products)
	assert.Equal(t, int64(25), view.Subtotal)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 3, view.Units)

	cart.Remove(2)
	view = cart.Resolve(products)
	assert.Equal(t, int64(20), view.Subtotal)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(1), view.Items[0].Product.ID)
}

func TestCartResolveUsesCurrentPrices(t *testing.T) {
	cart := NewCart(1)
	cart.Add(1, 3, time.Now())

	view := cart.Resolve(map[int64]Product{1: {ID: 1, Price: 10}})
	assert.Equal(t, int64(30), view.Subtotal)

	view = cart.Resolve(map[int64]Product{1: {ID: 1, Price: 12}})
	assert.Equal(t, int64(36), view.Subtotal)
}

func TestCartResolveSkipsDeletedProducts(t *testing.T) {
	cart := NewCart(1)
	cart.Add(1, 1, time.Now())
	cart.Add(2, 4, time.Now())

	view := cart.Resolve(map[int64]Product{1: {ID: 1, Price: 10}})
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, int64(10), view.Subtotal)
	// the dangling line is kept in the document
	assert.Len(t, cart.Items, 2)
}

func TestCartItemsValueScan(t *testing.T) {
	var empty CartItems
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var scanned CartItems
	require.NoError(t, scanned.Scan([]byte(`[{"product_id":3,"quantity":2,"added_at":"2024-01-01T00:00:00Z"}]`)))
	require.Len(t, scanned, 1)
	assert.Equal(t, int64(3), scanned[0].ProductID)
	assert.Equal(t, 2, scanned[0].Quantity)

	assert.Error(t, scanned.Scan(42))
}
