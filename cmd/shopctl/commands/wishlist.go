package commands

import (
	"context"

	"storefront/internal/models"

	"github.com/spf13/cobra"
)

var wishlistCmd = &cobra.Command{
	Use:     "wishlist",
	Aliases: []string{"wl"},
	Short:   "Show or change the wishlist",
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		view, err := shop.sf.Wishlist(ctx)
		if err != nil {
			return err
		}
		return printWishlist(view)
	}),
}

func wishlistMutation(fn func(ctx context.Context, id int64) (*models.WishlistView, error)) func(*cobra.Command, []string) error {
	return runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		id, err := productID(args[0])
		if err != nil {
			return err
		}
		view, err := fn(ctx, id)
		if err != nil {
			return err
		}
		if err := printWishlist(view); err != nil {
			return err
		}
		printBadges(ctx)
		return nil
	})
}

var wishlistAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Save a product",
	Args:  cobra.ExactArgs(1),
	RunE:  wishlistMutation(func(ctx context.Context, id int64) (*models.WishlistView, error) { return shop.sf.AddToWishlist(ctx, id) }),
}

var wishlistRemoveCmd = &cobra.Command{
	Use:     "rm <product-id>",
	Aliases: []string{"remove"},
	Short:   "Forget a saved product",
	Args:    cobra.ExactArgs(1),
	RunE:    wishlistMutation(func(ctx context.Context, id int64) (*models.WishlistView, error) { return shop.sf.RemoveFromWishlist(ctx, id) }),
}

var wishlistMoveCmd = &cobra.Command{
	Use:   "move <product-id>",
	Short: "Move a saved product into the cart",
	Args:  cobra.ExactArgs(1),
	RunE: wishlistMutation(func(ctx context.Context, id int64) (*models.WishlistView, error) {
		result, err := shop.sf.MoveToCart(ctx, id)
		if err != nil {
			return nil, err
		}
		return result.Wishlist, nil
	}),
}

var wishlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the wishlist",
	Args:  cobra.NoArgs,
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		view, err := shop.sf.ClearWishlist(ctx)
		if err != nil {
			return err
		}
		if err := printWishlist(view); err != nil {
			return err
		}
		printBadges(ctx)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(wishlistCmd)
	wishlistCmd.AddCommand(wishlistAddCmd, wishlistRemoveCmd, wishlistMoveCmd, wishlistClearCmd)
}
