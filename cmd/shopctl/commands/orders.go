package commands

import (
	"context"
	"fmt"
	"strconv"

	"storefront/internal/service"

	"github.com/spf13/cobra"
)

var (
	// Checkout flags
	checkout       service.PlaceOrderRequest
	idempotencyKey string
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order for the current cart",
	Long: `Place an order for everything in the cart. Prices are read at checkout.

Passing the same --key again returns the order already placed with it
instead of placing a second one.`,
	Args: cobra.NoArgs,
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		req := checkout
		req.IdempotencyKey = idempotencyKey

		order, err := shop.sf.Checkout(ctx, &req)
		if err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Printf("Placed with key %s\n", req.IdempotencyKey)
		}
		if err := printOrder(order, nil); err != nil {
			return err
		}
		printBadges(ctx)
		return nil
	}),
}

var ordersCmd = &cobra.Command{
	Use:   "orders [id]",
	Short: "List orders, or show one with its payment",
	Args:  cobra.MaximumNArgs(1),
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			details, err := shop.sf.Order(ctx, id)
			if err != nil {
				return err
			}
			return printOrder(details.Order, details.Payment)
		}

		orders, err := shop.sf.Orders(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(orders)
		}
		if len(orders) == 0 {
			fmt.Println("No orders yet")
			return nil
		}
		for i := range orders {
			if err := printOrder(&orders[i], nil); err != nil {
				return err
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(checkoutCmd, ordersCmd)

	f := checkoutCmd.Flags()
	f.StringVar(&checkout.Contact.Email, "email", "", "Contact email")
	f.StringVar(&checkout.Contact.Phone, "phone", "", "Contact phone, 10 digits")
	f.StringVar(&checkout.Shipping.FirstName, "first-name", "", "Shipping first name")
	f.StringVar(&checkout.Shipping.LastName, "last-name", "", "Shipping last name")
	f.StringVar(&checkout.Shipping.Address, "address", "", "Street address")
	f.StringVar(&checkout.Shipping.City, "city", "", "City")
	f.StringVar(&checkout.Shipping.State, "state", "", "State")
	f.StringVar(&checkout.Shipping.Zip, "zip", "", "Postal code")
	f.StringVar(&checkout.Shipping.Country, "country", "", "Country")
	f.StringVar(&idempotencyKey, "key", "", "Idempotency key (generated when empty)")
	for _, name := range []string{"email", "phone", "first-name", "last-name", "address", "city", "state", "zip", "country"} {
		_ = checkoutCmd.MarkFlagRequired(name)
	}
}

