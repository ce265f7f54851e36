package service

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return recorder
}

func spanStatus(t *testing.T, recorder *tracetest.SpanRecorder, name string) codes.Code {
	t.Helper()
	for _, span := range recorder.Ended() {
		if span.Name() == name {
			return span.Status().Code
		}
	}
	t.Fatalf("no span named %s", name)
	return codes.Unset
}

func TestFailedMutationsMarkSpans(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	_, err := env.cart.Add(ctx, userID, a.ID, 1)
	require.NoError(t, err)
	_, err = env.wishlist.Add(ctx, userID, a.ID)
	require.NoError(t, err)

	recorder := recordSpans(t)

	env.carts.saves = []error{errBoom}
	_, err = env.cart.Remove(ctx, userID, a.ID)
	require.ErrorIs(t, err, errBoom)

	env.wishlists.saves = []error{errBoom}
	_, err = env.wishlist.Remove(ctx, userID, a.ID)
	require.ErrorIs(t, err, errBoom)

	_, err = env.wishlist.Add(ctx, userID, 9999)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = env.cart.Add(ctx, userID, a.ID, 0)
	require.ErrorIs(t, err, ErrValidation)

	assert.Equal(t, codes.Error, spanStatus(t, recorder, "CartService.Remove"))
	assert.Equal(t, codes.Error, spanStatus(t, recorder, "WishlistService.Remove"))
	assert.Equal(t, codes.Error, spanStatus(t, recorder, "WishlistService.Add"))
	assert.Equal(t, codes.Error, spanStatus(t, recorder, "CartService.Add"))
}

func TestSuccessfulMutationLeavesSpanUnset(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	a := env.product(t, "A", 10)

	recorder := recordSpans(t)

	_, err := env.wishlist.Add(ctx, userID, a.ID)
	require.NoError(t, err)

	assert.Equal(t, codes.Unset, spanStatus(t, recorder, "WishlistService.Add"))
}
