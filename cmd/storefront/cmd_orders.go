package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/ec-storefront/internal/command"
)

var errOrderNotFound = errors.New("order not found")

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Orders placed by the signed-in account",
}

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your orders, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := currentUser(ctx)
		if err != nil {
			return err
		}
		orders, err := storefront.Queries.ListOrdersByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		return printJSON(orders)
	},
}

var ordersShowCmd = &cobra.Command{
	Use:   "show <order-id>",
	Short: "Show one order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := currentUser(ctx)
		if err != nil {
			return err
		}
		o, ok, err := storefront.Queries.GetOrder(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return errOrderNotFound
		}
		if o.UserID != u.ID && !u.IsAdmin() {
			return command.ErrForbidden
		}
		return printJSON(o)
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Order notifications for the signed-in account",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first, with the unread count",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := currentUser(ctx)
		if err != nil {
			return err
		}
		inbox, err := storefront.Queries.Notifications(ctx, u.ID)
		if err != nil {
			return err
		}
		return printJSON(inbox)
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.MarkNotificationRead(cmd.Context(),
			command.MarkNotificationRead{NotificationID: args[0]})
	},
}

func init() {
	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersShowCmd)

	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)
}
