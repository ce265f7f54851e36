package commands

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/client"
	"storefront/internal/signal"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.00", money(0))
	assert.Equal(t, "$0.05", money(5))
	assert.Equal(t, "$12.50", money(1250))
	assert.Equal(t, "-$3.01", money(-301))
}

func TestProductID(t *testing.T) {
	id, err := productID("42")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-1", "abc"} {
		_, err := productID(bad)
		assert.Error(t, err, bad)
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"cart", "dec"},
		{"wishlist", "move"},
		{"checkout"},
		{"orders"},
		{"products"},
	} {
		cmd, _, err := rootCmd.Find(path)
		assert.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestBadgeCountMarksFailedRefresh(t *testing.T) {
	bus := signal.New()
	defer bus.Close()
	ctx := context.Background()

	healthy := client.NewBadge(bus, signal.Cart, func(ctx context.Context) (int, error) { return 3, nil })
	defer healthy.Close()
	assert.Equal(t, "3", badgeCount(ctx, healthy))

	broken := client.NewBadge(bus, signal.Wishlist, func(ctx context.Context) (int, error) {
		return 0, errors.New("connection refused")
	})
	defer broken.Close()
	assert.Equal(t, "?", badgeCount(ctx, broken))
}
