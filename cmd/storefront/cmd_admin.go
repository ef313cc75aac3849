package main

import (
	"github.com/spf13/cobra"

	"github.com/example/ec-storefront/internal/command"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Back-office operations (admin only)",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return requireAdmin(cmd.Context())
	},
}

var adminOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List every order, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		pendingOnly, _ := cmd.Flags().GetBool("pending")
		orders, err := storefront.Queries.ListAllOrders(cmd.Context())
		if err != nil {
			return err
		}
		if pendingOnly {
			filtered := orders[:0]
			for _, o := range orders {
				if o.PendingReview() {
					filtered = append(filtered, o)
				}
			}
			orders = filtered
		}
		return printJSON(orders)
	},
}

var adminStatusCmd = &cobra.Command{
	Use:   "status <order-id> <status>",
	Short: "Move an order to a new status",
	Long:  "Move an order to a new status: Pendiente, Pagado, En Proceso, Completado, Enviado, Entregado or Cancelado.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.SetOrderStatus(cmd.Context(),
			command.SetOrderStatus{OrderID: args[0], Status: args[1]})
	},
}

var adminReviewCmd = &cobra.Command{
	Use:   "review <order-id>",
	Short: "Acknowledge a new order and start processing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.ReviewOrder(cmd.Context(), command.ReviewOrder{OrderID: args[0]})
	},
}

var adminDeleteCmd = &cobra.Command{
	Use:   "delete <order-id>",
	Short: "Delete an order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.DeleteOrder(cmd.Context(), command.DeleteOrder{OrderID: args[0]})
	},
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := storefront.Queries.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(users)
	},
}

var adminDeleteUserCmd = &cobra.Command{
	Use:   "delete-user <user-id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.DeleteUser(cmd.Context(), command.DeleteUser{UserID: args[0]})
	},
}

var adminRoleCmd = &cobra.Command{
	Use:   "role <user-id> <user|admin>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := args[1]
		return storefront.Commands.UpdateUser(cmd.Context(), command.UpdateUser{UserID: args[0], Role: &role})
	},
}

var adminDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Order, revenue and catalog totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := storefront.Queries.Dashboard(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(view)
	},
}

var adminTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Best-selling and best-rated products",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		n, _ := cmd.Flags().GetInt("limit")
		selling, err := storefront.Queries.TopSelling(ctx, n)
		if err != nil {
			return err
		}
		rated, err := storefront.Queries.TopRated(ctx, n)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"topSelling": selling,
			"topRated":   rated,
		})
	},
}

func init() {
	adminOrdersCmd.Flags().Bool("pending", false, "only orders awaiting review")
	adminTopCmd.Flags().Int("limit", 5, "entries per ranking")

	adminCmd.AddCommand(adminOrdersCmd)
	adminCmd.AddCommand(adminStatusCmd)
	adminCmd.AddCommand(adminReviewCmd)
	adminCmd.AddCommand(adminDeleteCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminDeleteUserCmd)
	adminCmd.AddCommand(adminRoleCmd)
	adminCmd.AddCommand(adminDashboardCmd)
	adminCmd.AddCommand(adminTopCmd)
}
