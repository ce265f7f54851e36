package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkoutRequest(key string) *PlaceOrderRequest {
	return &PlaceOrderRequest{
		Contact: models.Contact{Email: "buyer@example.com", Phone: "5551234567"},
		Shipping: models.ShippingAddress{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Address:   "1 Analytical Way",
			City:      "London",
			State:     "LDN",
			Zip:       "10001",
			Country:   "UK",
		},
		IdempotencyKey: key,
	}
}

func TestPlaceOrderFromCart(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	b := env.product(t, "B", 5)

	_, err := env.cart.Add(ctx, userID, a.ID, 2)
	require.NoError(t, err)
	_, err = env.cart.Add(ctx, userID, b.ID, 1)
	require.NoError(t, err)

	order, err := env.orders.PlaceOrder(ctx, userID, checkoutRequest(""))
	require.NoError(t, err)

	assert.Equal(t, int64(25), order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "A", order.Items[0].Title)
	assert.Equal(t, int64(10), order.Items[0].UnitPrice)
	assert.NotEmpty(t, order.IdempotencyKey)
	require.Len(t, env.events.placed, 1)
	assert.Equal(t, order.ID, env.events.placed[0].OrderID)

	// checkout leaves the cart alone unless configured otherwise
	view, err := env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Count)
}

func TestPlaceOrderSnapshotIsImmutable(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	req := checkoutRequest("k1")
	req.Items = []OrderItemRequest{{ProductID: a.ID, Quantity: 3}}
	order, err := env.orders.PlaceOrder(ctx, userID, req)
	require.NoError(t, err)

	a.Price = 99
	require.NoError(t, env.mem.UpdateProduct(ctx, &a))

	details, err := env.orders.GetOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), details.Order.Total)
	assert.Equal(t, int64(10), details.Order.Items[0].UnitPrice)
}

func TestPlaceOrderClearsCartWhenConfigured(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	_, err := env.cart.Add(ctx, userID, a.ID, 1)
	require.NoError(t, err)

	_, err = env.orders.PlaceOrder(ctx, userID, checkoutRequest(""))
	require.NoError(t, err)

	view, err := env.cart.Fetch(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestPlaceOrderIdempotent(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	_, err := env.cart.Add(ctx, userID, a.ID, 1)
	require.NoError(t, err)

	first, err := env.orders.PlaceOrder(ctx, userID, checkoutRequest("same-key"))
	require.NoError(t, err)
	second, err := env.orders.PlaceOrder(ctx, userID, checkoutRequest("same-key"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, env.events.placed, 1)

	// keys are scoped per user
	_, err = env.cart.Add(ctx, userID+1, a.ID, 1)
	require.NoError(t, err)
	other, err := env.orders.PlaceOrder(ctx, userID+1, checkoutRequest("same-key"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestPlaceOrderInProgress(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)
	_, err := env.cart.Add(ctx, userID, a.ID, 1)
	require.NoError(t, err)

	lockKey := fmt.Sprintf("checkout:%d:%s", userID, "busy")
	ok, err := env.ephemeral.AcquireLock(ctx, lockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = env.orders.PlaceOrder(ctx, userID, checkoutRequest("busy"))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPlaceOrderRejectsEmptyAndUnknown(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.orders.PlaceOrder(ctx, userID, checkoutRequest(""))
	assert.ErrorIs(t, err, ErrValidation)

	req := checkoutRequest("")
	req.Items = []OrderItemRequest{{ProductID: 404, Quantity: 1}}
	_, err = env.orders.PlaceOrder(ctx, userID, req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceOrderMergesDuplicateItems(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	req := checkoutRequest("")
	req.Items = []OrderItemRequest{{ProductID: a.ID, Quantity: 1}, {ProductID: a.ID, Quantity: 2}}
	order, err := env.orders.PlaceOrder(ctx, userID, req)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, int64(30), order.Total)
}

func TestGetOrderOwnerOnly(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	req := checkoutRequest("")
	req.Items = []OrderItemRequest{{ProductID: a.ID, Quantity: 1}}
	order, err := env.orders.PlaceOrder(ctx, userID, req)
	require.NoError(t, err)

	_, err = env.orders.GetOrder(ctx, userID+1, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	details, err := env.orders.GetOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	assert.Nil(t, details.Payment)

	orders, err := env.orders.ListOrders(ctx, userID+1)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPaymentSettlesOncePerEvent(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	req := checkoutRequest("")
	req.Items = []OrderItemRequest{{ProductID: a.ID, Quantity: 2}}
	order, err := env.orders.PlaceOrder(ctx, userID, req)
	require.NoError(t, err)

	event := env.events.placed[0]
	require.NoError(t, env.payments.HandleOrderPlaced(ctx, event))
	require.NoError(t, env.payments.HandleOrderPlaced(ctx, event))

	assert.Len(t, env.events.paid, 1)

	details, err := env.orders.GetOrder(ctx, userID, order.ID)
	require.NoError(t, err)
	require.NotNil(t, details.Payment)
	assert.Equal(t, models.PaymentStatusSuccess, details.Payment.Status)
	assert.Equal(t, int64(20), details.Payment.Amount)
	assert.NotEmpty(t, details.Payment.ProviderTxID)
}
