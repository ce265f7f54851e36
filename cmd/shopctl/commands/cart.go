package commands

import (
	"context"
	"fmt"
	"strconv"

	"storefront/internal/models"

	"github.com/spf13/cobra"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show or change the cart",
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		view, err := shop.sf.Cart(ctx)
		if err != nil {
			return err
		}
		return printCart(view)
	}),
}

// cartMutation runs fn against the product id in args[0] and shows the result
func cartMutation(fn func(ctx context.Context, id int64) (*models.CartView, error)) func(*cobra.Command, []string) error {
	return runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		id, err := productID(args[0])
		if err != nil {
			return err
		}
		view, err := fn(ctx, id)
		if err != nil {
			return err
		}
		if err := printCart(view); err != nil {
			return err
		}
		printBadges(ctx)
		return nil
	})
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id> [quantity]",
	Short: "Add units of a product",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			qty = n
		}
		return cartMutation(func(ctx context.Context, id int64) (*models.CartView, error) {
			return shop.sf.AdjustCart(ctx, id, qty)
		})(cmd, args)
	},
}

var cartIncCmd = &cobra.Command{
	Use:   "inc <product-id>",
	Short: "Add one unit",
	Args:  cobra.ExactArgs(1),
	RunE:  cartMutation(func(ctx context.Context, id int64) (*models.CartView, error) { return shop.sf.AddToCart(ctx, id) }),
}

var cartDecCmd = &cobra.Command{
	Use:   "dec <product-id>",
	Short: "Take one unit off; the last unit removes the line",
	Args:  cobra.ExactArgs(1),
	RunE:  cartMutation(func(ctx context.Context, id int64) (*models.CartView, error) { return shop.sf.Decrement(ctx, id) }),
}

var cartRemoveCmd = &cobra.Command{
	Use:     "rm <product-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a line",
	Args:    cobra.ExactArgs(1),
	RunE:    cartMutation(func(ctx context.Context, id int64) (*models.CartView, error) { return shop.sf.RemoveFromCart(ctx, id) }),
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	Args:  cobra.NoArgs,
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		view, err := shop.sf.ClearCart(ctx)
		if err != nil {
			return err
		}
		if err := printCart(view); err != nil {
			return err
		}
		printBadges(ctx)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartAddCmd, cartIncCmd, cartDecCmd, cartRemoveCmd, cartClearCmd)
}
