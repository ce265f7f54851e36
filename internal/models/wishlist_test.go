package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWishlistAddIsIdempotent(t *testing.T) {
	w := NewWishlist(1)

	assert.True(t, w.Add(5, time.Now()))
	assert.False(t, w.Add(5, time.Now()))
	assert.Len(t, w.Items, 1)
}

func TestWishlistRemove(t *testing.T) {
	w := NewWishlist(1)
	w.Add(1, time.Now())
	w.Add(2, time.Now())

	assert.False(t, w.Remove(3))
	assert.True(t, w.Remove(1))
	assert.Equal(t, []int64{2}, w.ProductIDs())
	assert.False(t, w.Contains(1))
}

func TestWishlistResolve(t *testing.T) {
	w := NewWishlist(1)
	w.Add(1, time.Now())
	w.Add(2, time.Now())

	view := w.Resolve(map[int64]Product{2: {ID: 2, Title: "Lamp"}})
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, "Lamp", view.Items[0].Title)
}
