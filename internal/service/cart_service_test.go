package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userID int64 = 1000

func TestCartRepeatedAddIncrementsSingleLine(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	for i := 0; i < 4; i++ {
		_, err := env.cart.Add(ctx, userID, a.ID, 1)
		require.NoError(t, err)
	}

	view, err := env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 4, view.Items[0].Quantity)
	assert.Len(t, env.events.cart, 4)
}

func TestCartSubtotalScenario(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	b := env.product(t, "B", 5)

	_, err := env.cart.Add(ctx, userID, a.ID, 2)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, userID, b.ID, 1)
	require.NoError(t, err)

	view, err := env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), view.Subtotal)
	assert.Equal(t, 2, view.Count)
	assert.Equal(t, 3, view.Units)

	_, err = env.cart.Remove(ctx, userID, b.ID)
	require.NoError(t, err)

	view, err = env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), view.Subtotal)
	require.Len(t, view.Items, 1)
	assert.Equal(t, a.ID, view.Items[0].Product.ID)
}

func TestCartRemoveAbsentIsNoop(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	b := env.product(t, "B", 5)

	_, err := env.cart.Add(ctx, userID, a.ID, 1)
	require.NoError(t, err)

	view, err := env.cart.Remove(ctx, userID, b.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, a.ID, view.Items[0].Product.ID)
	assert.Len(t, env.events.cart, 1, "no-op remove publishes nothing")

	// no cart at all
	view, err = env.cart.Remove(ctx, userID+1, a.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartDecrementToZeroRemovesLine(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	_, err := env.cart.Add(ctx, userID, a.ID, 1)
	require.NoError(t, err)

	view, err := env.cart.Add(ctx, userID, a.ID, -1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	cart, err := env.mem.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, cart.Quantity(a.ID))
	assert.Empty(t, cart.Items)
}

func TestCartNegativeDeltaOnMissingLine(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	view, err := env.cart.Add(ctx, userID, a.ID, -1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Empty(t, env.events.cart)
}

func TestCartPriceChangeIsLive(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	_, err := env.cart.Add(ctx, userID, a.ID, 3)
	require.NoError(t, err)

	a.Price = 7
	require.NoError(t, env.mem.UpdateProduct(ctx, &a))

	view, err := env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(21), view.Subtotal)
}

func TestCartDeletedProductLeavesView(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	b := env.product(t, "B", 5)

	_, err := env.cart.Add(ctx, userID, a.ID, 1)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, userID, b.ID, 1)
	require.NoError(t, err)
	require.NoError(t, env.mem.DeleteProduct(ctx, b.ID))

	view, err := env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Count)
	assert.Equal(t, int64(10), view.Subtotal)
}

func TestCartAddValidation(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	tests := []struct {
		name      string
		productID int64
		delta     int
		want      error
	}{
		{"zero delta", a.ID, 0, ErrValidation},
		{"delta too large", a.ID, 100, ErrValidation},
		{"delta too small", a.ID, -100, ErrValidation},
		{"missing product id", 0, 1, ErrValidation},
		{"unknown product", 9999, 1, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.cart.Add(ctx, userID, tt.productID, tt.delta)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := env.mem.GetCart(ctx, userID)
	assert.Error(t, err, "rejected adds never create a cart")
}

func TestCartClear(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	b := env.product(t, "B", 5)

	_, err := env.cart.Add(ctx, userID, a.ID, 2)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, userID, b.ID, 1)
	require.NoError(t, err)

	view, err := env.cart.Clear(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Subtotal)
}

func TestCartClearPartialFailure(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	b := env.product(t, "B", 5)
	c := env.product(t, "C", 1)

	for _, p := range []int64{a.ID, b.ID, c.ID} {
		_, err := env.cart.Add(ctx, userID, p, 1)
		require.NoError(t, err)
	}

	env.carts.saves = []error{nil, errBoom}

	_, err := env.cart.Clear(ctx, userID)
	require.Error(t, err)

	var pf *PartialFailureError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, "cart.clear", pf.Operation)
	assert.Equal(t, []string{removeStep(a.ID)}, pf.Completed)
	assert.Equal(t, removeStep(b.ID), pf.Failed)
	assert.ErrorIs(t, err, errBoom)

	view, err := env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)
}
