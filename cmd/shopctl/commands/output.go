package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"storefront/internal/client"
	"storefront/internal/models"
	"storefront/internal/service"
)

func money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func productID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid product id %q", arg)
	}
	return id, nil
}

func printProducts(page *service.ProductPage) error {
	if jsonOutput {
		return printJSON(page)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCATEGORY\tCONDITION\tPRICE")
	for _, p := range page.Products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Category, p.Condition, money(p.Price))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("page %d of %d (%d products)\n", page.Page, page.TotalPages, page.Total)
	return nil
}

func printCart(view *models.CartView) error {
	if jsonOutput {
		return printJSON(view)
	}
	if len(view.Items) == 0 {
		fmt.Println("Cart is empty")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tQTY\tPRICE\tLINE")
	for _, line := range view.Items {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			line.Product.ID, line.Product.Title, line.Quantity, money(line.Product.Price), money(line.LineTotal))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d items, subtotal %s\n", view.Units, money(view.Subtotal))
	return nil
}

func printWishlist(view *models.WishlistView) error {
	if jsonOutput {
		return printJSON(view)
	}
	if len(view.Items) == 0 {
		fmt.Println("Wishlist is empty")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRICE")
	for _, p := range view.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Title, money(p.Price))
	}
	return w.Flush()
}

func printOrder(order *models.Order, payment *models.Payment) error {
	if jsonOutput {
		return printJSON(service.OrderDetails{Order: order, Payment: payment})
	}
	fmt.Printf("Order #%d  %s  total %s\n", order.ID, order.CreatedAt.Format("2006-01-02 15:04"), money(order.Total))
	for _, item := range order.Items {
		fmt.Printf("  %dx %s @ %s\n", item.Quantity, item.Title, money(item.UnitPrice))
	}
	if payment != nil {
		fmt.Printf("  payment: %s %s\n", payment.Status, payment.ProviderTxID)
	}
	return nil
}

// printBadges refreshes and prints the header counters after a mutation
func printBadges(ctx context.Context) {
	if jsonOutput || !shop.sf.Session().LoggedIn() {
		return
	}
	fmt.Printf("[cart: %s | wishlist: %s]\n", badgeCount(ctx, shop.cart), badgeCount(ctx, shop.wishlist))
}

// badgeCount refreshes b, showing "?" when the count could not be fetched
func badgeCount(ctx context.Context, b *client.Badge) string {
	if err := b.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: count unavailable: %v\n", err)
		return "?"
	}
	return strconv.Itoa(b.Count())
}
