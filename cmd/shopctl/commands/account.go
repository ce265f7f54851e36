package commands

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/service"

	"github.com/spf13/cobra"
)

var (
	// Account flags
	name     string
	email    string
	password string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		user, err := shop.sf.Register(ctx, name, email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Welcome, %s\n", user.Name)
		return nil
	}),
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		user, err := shop.sf.Login(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s\n", user.Email)
		printBadges(ctx)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		err := shop.sf.Logout(ctx)
		// the local session is gone either way
		if err != nil && !errors.Is(err, service.ErrUnauthenticated) {
			return err
		}
		fmt.Println("Signed out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: runE(func(ctx context.Context, cmd *cobra.Command, args []string) error {
		user := shop.sf.Session().User()
		if user == nil {
			return fmt.Errorf("not signed in")
		}
		if jsonOutput {
			return printJSON(user)
		}
		role := "customer"
		if user.IsAdmin {
			role = "admin"
		}
		fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, role)
		printBadges(ctx)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, whoamiCmd)

	registerCmd.Flags().StringVar(&name, "name", "", "Display name")
	for _, cmd := range []*cobra.Command{registerCmd, loginCmd} {
		cmd.Flags().StringVar(&email, "email", "", "Account email")
		cmd.Flags().StringVar(&password, "password", "", "Account password")
		_ = cmd.MarkFlagRequired("email")
		_ = cmd.MarkFlagRequired("password")
	}
	_ = registerCmd.MarkFlagRequired("name")
}
