package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/ec-storefront/internal/app"
	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/user"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command tree and closes the app whether or not the
// command failed.
func run() error {
	err := rootCmd.Execute()
	if storefront != nil {
		err = errors.Join(err, storefront.Close())
		storefront = nil
	}
	return err
}

var (
	// storefront is opened before every command and closed by run.
	storefront *app.App
	tokenFlag  string
)

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront: catalog, cart, orders and admin back-office",
	Long:          "Storefront runs shop operations against the configured store. Output is JSON.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		a, err := app.New(cmd.Context(), cfg, app.Options{Token: tokenFlag})
		if err != nil {
			return err
		}
		storefront = a
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", os.Getenv("STOREFRONT_TOKEN"),
		"session token; when empty the persisted session is used")

	// Account
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(profileCmd)

	// Catalog
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(reviewsCmd)

	// Shopping
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(payCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(notificationsCmd)

	// Back-office
	rootCmd.AddCommand(adminCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func currentUser(ctx context.Context) (*user.User, error) {
	u, err := storefront.Users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, order.ErrNoAuthenticatedUser
	}
	return u, nil
}

func requireAdmin(ctx context.Context) error {
	u, err := currentUser(ctx)
	if err != nil {
		return err
	}
	if !u.IsAdmin() {
		return command.ErrForbidden
	}
	return nil
}
