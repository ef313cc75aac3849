package main

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/example/ec-storefront/internal/command"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Browse and manage the catalog",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		products, err := storefront.Queries.ListProducts(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(products)
	},
}

var productsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a product with its reviews",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, ok, err := storefront.Queries.GetProduct(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return command.ErrProductNotFound
		}
		return printJSON(detail)
	},
}

var productsSearchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search by name or description, optionally within a category",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var term string
		if len(args) == 1 {
			term = args[0]
		}
		category, _ := cmd.Flags().GetString("category")
		products, err := storefront.Queries.SearchProducts(cmd.Context(), term, category)
		if err != nil {
			return err
		}
		return printJSON(products)
	},
}

var productsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List catalog categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		categories, err := storefront.Queries.Categories(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(categories)
	},
}

var productsAddCmd = &cobra.Command{
	Use:   "add <name> <price>",
	Short: "Add a product (admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		price, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", args[1], err)
		}
		description, _ := cmd.Flags().GetString("description")
		category, _ := cmd.Flags().GetString("category")
		image, _ := cmd.Flags().GetString("image")
		stock, _ := cmd.Flags().GetInt("stock")

		p, err := storefront.Commands.CreateProduct(cmd.Context(), command.CreateProduct{
			Name:        args[0],
			Description: description,
			Price:       price,
			Stock:       stock,
			Category:    category,
			Image:       image,
		})
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a product (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		update := command.UpdateProduct{
			ProductID:   args[0],
			Name:        changedString(cmd, "name"),
			Description: changedString(cmd, "description"),
			Category:    changedString(cmd, "category"),
			Image:       changedString(cmd, "image"),
		}
		if raw := changedString(cmd, "price"); raw != nil {
			price, err := decimal.NewFromString(*raw)
			if err != nil {
				return fmt.Errorf("invalid price %q: %w", *raw, err)
			}
			update.Price = &price
		}
		if cmd.Flags().Changed("stock") {
			stock, _ := cmd.Flags().GetInt("stock")
			update.Stock = &stock
		}
		return storefront.Commands.UpdateProduct(cmd.Context(), update)
	},
}

var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove a product (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.DeleteProduct(cmd.Context(), command.DeleteProduct{ProductID: args[0]})
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate <product-id> <1-5>",
	Short: "Rate a product and leave an optional comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid rating %q: %w", args[1], err)
		}
		comment, _ := cmd.Flags().GetString("comment")
		r, err := storefront.Commands.RateProduct(cmd.Context(), command.RateProduct{
			ProductID: args[0],
			Rating:    rating,
			Comment:   comment,
		})
		if err != nil {
			return err
		}
		return printJSON(r)
	},
}

var reviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "List the reviews written by the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := currentUser(ctx)
		if err != nil {
			return err
		}
		reviews, err := storefront.Queries.ReviewsByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		return printJSON(reviews)
	},
}

func init() {
	productsSearchCmd.Flags().String("category", "", "restrict to one category")

	for _, c := range []*cobra.Command{productsAddCmd, productsUpdateCmd} {
		c.Flags().String("description", "", "product description")
		c.Flags().String("category", "", "product category")
		c.Flags().String("image", "", "image URL")
		c.Flags().Int("stock", 0, "units in stock")
	}
	productsUpdateCmd.Flags().String("name", "", "new name")
	productsUpdateCmd.Flags().String("price", "", "new price")

	rateCmd.Flags().String("comment", "", "review text")

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsShowCmd)
	productsCmd.AddCommand(productsSearchCmd)
	productsCmd.AddCommand(productsCategoriesCmd)
	productsCmd.AddCommand(productsAddCmd)
	productsCmd.AddCommand(productsUpdateCmd)
	productsCmd.AddCommand(productsDeleteCmd)
}
