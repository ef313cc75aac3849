package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/domain/order"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the shopping cart (guest cart when signed out)",
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var userID string
		u, err := storefront.Users.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if u != nil {
			userID = u.ID
		}
		view, err := storefront.Queries.GetCart(ctx, userID)
		if err != nil {
			return err
		}
		return printJSON(view)
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id> [quantity]",
	Short: "Add a product to the cart",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity := 1
		if len(args) == 2 {
			q, err := parseQuantity(args[1])
			if err != nil {
				return err
			}
			quantity = q
		}
		return storefront.Commands.AddToCart(cmd.Context(), command.AddToCart{ProductID: args[0], Quantity: quantity})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.RemoveFromCart(cmd.Context(), command.RemoveFromCart{ProductID: args[0]})
	},
}

var cartSetCmd = &cobra.Command{
	Use:   "set <product-id> <quantity>",
	Short: "Set a line quantity; zero or less removes the line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		quantity, err := parseQuantity(args[1])
		if err != nil {
			return err
		}
		return storefront.Commands.SetCartQuantity(cmd.Context(), command.SetCartQuantity{ProductID: args[0], Quantity: quantity})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.ClearCart(cmd.Context())
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Place an order from the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		method, _ := cmd.Flags().GetString("payment")
		in := command.Checkout{PaymentMethod: method}
		if name, _ := cmd.Flags().GetString("name"); name != "" {
			in.ShippingInfo = &order.ShippingInfo{FullName: name}
			in.ShippingInfo.Address, _ = cmd.Flags().GetString("address")
			in.ShippingInfo.City, _ = cmd.Flags().GetString("city")
			in.ShippingInfo.PostalCode, _ = cmd.Flags().GetString("postal-code")
			in.ShippingInfo.Country, _ = cmd.Flags().GetString("country")
			in.ShippingInfo.Phone, _ = cmd.Flags().GetString("phone")
		}
		o, err := storefront.Commands.Checkout(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(o)
	},
}

var payCmd = &cobra.Command{
	Use:   "pay <order-id>",
	Short: "Mark a pending order as paid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.PayOrder(cmd.Context(), command.PayOrder{OrderID: args[0]})
	},
}

func parseQuantity(raw string) (int, error) {
	q, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", raw, err)
	}
	return q, nil
}

func init() {
	checkoutCmd.Flags().String("payment", "card", "payment method")
	checkoutCmd.Flags().String("name", "", "recipient full name; enables shipping details")
	checkoutCmd.Flags().String("address", "", "shipping address")
	checkoutCmd.Flags().String("city", "", "shipping city")
	checkoutCmd.Flags().String("postal-code", "", "shipping postal code")
	checkoutCmd.Flags().String("country", "", "shipping country")
	checkoutCmd.Flags().String("phone", "", "contact phone")

	cartCmd.AddCommand(cartListCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartClearCmd)
}
