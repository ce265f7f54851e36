package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
)

// GetCart retrieves the user's cart document
func (s *Store) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.GetContext(ctx, &cart, "SELECT * FROM carts WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("cart for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// SaveCart writes the whole cart document, creating it on first use.
// Concurrent writers are last-write-wins.
func (s *Store) SaveCart(ctx context.Context, cart *models.Cart) error {
	query := `
		INSERT INTO carts (user_id, items)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, cart, query, cart.UserID, cart.Items)
}

// GetWishlist retrieves the user's wishlist document
func (s *Store) GetWishlist(ctx context.Context, userID int64) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	err := s.db.GetContext(ctx, &wishlist, "SELECT * FROM wishlists WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("wishlist for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

// SaveWishlist writes the whole wishlist document, creating it on first use
func (s *Store) SaveWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	query := `
		INSERT INTO wishlists (user_id, items)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET items = EXCLUDED.items, updated_at = NOW()
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, wishlist, query, wishlist.UserID, wishlist.Items)
}
