package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/ec-storefront/internal/command"
	"github.com/example/ec-storefront/internal/domain/user"
)

var registerCmd = &cobra.Command{
	Use:   "register <username> <password>",
	Short: "Create a customer account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		phone, _ := cmd.Flags().GetString("phone")
		address, _ := cmd.Flags().GetString("address")

		u, err := storefront.Commands.Register(cmd.Context(), command.Register{
			Username: args[0],
			Password: args[1],
			Email:    email,
			Phone:    phone,
			Address:  address,
		})
		if err != nil {
			return err
		}
		return printJSON(u)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <username> <password>",
	Short: "Sign in and make the account current",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := storefront.Commands.Login(ctx, command.Login{Username: args[0], Password: args[1]})
		if err != nil {
			return err
		}
		if _, ok := storefront.Session.(*user.TokenSession); ok {
			token, err := storefront.IssueToken(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "export STOREFRONT_TOKEN="+token)
		}
		return printJSON(u)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return storefront.Commands.Logout(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := currentUser(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(u.Public())
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := storefront.IssueToken(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Edit the signed-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		u, err := currentUser(ctx)
		if err != nil {
			return err
		}
		update := command.UpdateUser{UserID: u.ID}
		update.Username = changedString(cmd, "username")
		update.Password = changedString(cmd, "password")
		update.Email = changedString(cmd, "email")
		update.Phone = changedString(cmd, "phone")
		update.Address = changedString(cmd, "address")
		if err := storefront.Commands.UpdateUser(ctx, update); err != nil {
			return err
		}
		u, err = currentUser(ctx)
		if err != nil {
			return err
		}
		return printJSON(u.Public())
	},
}

// changedString returns the flag value only when it was set on the command line.
func changedString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func init() {
	registerCmd.Flags().String("email", "", "email address for order notifications")
	registerCmd.Flags().String("phone", "", "phone number")
	registerCmd.Flags().String("address", "", "postal address")

	profileCmd.Flags().String("username", "", "new username")
	profileCmd.Flags().String("password", "", "new password")
	profileCmd.Flags().String("email", "", "new email")
	profileCmd.Flags().String("phone", "", "new phone")
	profileCmd.Flags().String("address", "", "new address")
}
