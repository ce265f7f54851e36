package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"storefront/internal/service"

	"github.com/spf13/cobra"
)

var query service.ProductQuery

var productsCmd = &cobra.Command{
	Use:   "products [id]",
	Short: "Browse the catalog",
	Long: `List products, filtered and sorted, or show one product by id.

Examples:
  shopctl products --category Shoes --sort price-low
  shopctl products --min 1000 --max 5000 --page 2
  shopctl products 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			id, err := productID(args[0])
			if err != nil {
				return err
			}
			p, err := shop.sf.Product(ctx, id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(p)
			}
			fmt.Printf("#%d %s\n  %s | %s | %s\n", p.ID, p.Title, p.Category, p.Condition, money(p.Price))
			if p.OriginalPrice != nil {
				fmt.Printf("  was %s\n", money(*p.OriginalPrice))
			}
			return nil
		}

		page, err := shop.sf.Products(ctx, query)
		if err != nil {
			return err
		}
		return printProducts(page)
	}),
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List product categories",
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		categories, err := shop.sf.Categories(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(categories)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, c := range categories {
			fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
		}
		return w.Flush()
	}),
}

func init() {
	rootCmd.AddCommand(productsCmd, categoriesCmd)

	f := productsCmd.Flags()
	f.StringVar(&query.Category, "category", "", "Category name, or all")
	f.StringVar(&query.Condition, "condition", "", "Condition tag, or all")
	f.Int64Var(&query.MinPrice, "min", 0, "Minimum price in cents")
	f.Int64Var(&query.MaxPrice, "max", 0, "Maximum price in cents")
	f.StringVar(&query.Search, "search", "", "Title search")
	f.StringVar(&query.Sort, "sort", "", "newest, price-low or price-high")
	f.IntVar(&query.Page, "page", 0, "Page number")
	f.IntVar(&query.Limit, "limit", 0, "Page size")
}
