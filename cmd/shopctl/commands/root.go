package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"storefront/config"
	"storefront/internal/client"
	"storefront/internal/signal"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	apiURL     string
	jsonOutput bool
	timeout    time.Duration
)

// app is built once per invocation in PersistentPreRunE
type app struct {
	sf       *client.Storefront
	bus      *signal.Bus
	cart     *client.Badge
	wishlist *client.Badge
}

var shop *app

var rootCmd = &cobra.Command{
	Use:   "shopctl",
	Short: "Storefront command line client",
	Long: `shopctl talks to a storefront server: browse the catalog, keep a cart
and a wishlist, and check out.

The session token is kept in $STOREFRONT_SESSION_FILE (default: the user
config directory), so a login survives between invocations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadClient()
		if apiURL != "" {
			cfg.APIURL = apiURL
		}

		bus := signal.New()
		session, err := client.LoadSession(cfg.SessionFile, bus)
		if err != nil {
			bus.Close()
			return err
		}

		sf := client.NewStorefront(client.New(cfg.APIURL, session), session, bus)
		shop = &app{
			sf:       sf,
			bus:      bus,
			cart:     client.CartBadge(bus, sf),
			wishlist: client.WishlistBadge(bus, sf),
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shop == nil {
			return
		}
		shop.cart.Close()
		shop.wishlist.Close()
		shop.bus.Close()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Server URL (overrides STOREFRONT_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Request timeout")
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// runE adapts a storefront call to cobra
func runE(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return fn(ctx, cmd, args)
	}
}
