package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/storefront/internal/app"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

func (r *runner) loginCommand() *cobra.Command {
	var creds domain.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			_, err := a.Coordinator.Login(cmd.Context(), creds)
			return err
		}),
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (r *runner) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the token, customer and current order",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return a.Coordinator.Logout(cmd.Context())
		}),
	}
}

func (r *runner) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the persisted session",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			view, err := a.Coordinator.ResolveSession(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !view.HasIdentity() {
				fmt.Fprintln(out, "Not logged in.")
				fmt.Fprintln(out, "  "+loginHint)
				return nil
			}
			fmt.Fprintf(out, "Customer: %s\n", view.CustomerID)
			if view.HasOrder() {
				fmt.Fprintf(out, "Order:    %s\n", view.OrderID)
			} else {
				fmt.Fprintln(out, "Order:    none")
			}
			fmt.Fprintf(out, "State:    %s\n", a.Coordinator.State())
			return nil
		}),
	}
}

func (r *runner) registerCommand() *cobra.Command {
	var reg domain.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return a.Coordinator.Register(cmd.Context(), reg)
		}),
	}
	cmd.Flags().StringVar(&reg.Name, "name", "", "full name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "contact phone")
	return cmd
}

func (r *runner) forgotPasswordCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return a.Coordinator.ForgotPassword(cmd.Context(), email)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (r *runner) profileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your customer profile",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			customer, err := a.Coordinator.Profile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:         %s\n", customer.Name)
			fmt.Fprintf(out, "Email:        %s\n", customer.Email)
			fmt.Fprintf(out, "Phone:        %s\n", customer.Phone)
			fmt.Fprintf(out, "Member since: %s\n", customer.CreatedAt)
			return nil
		}),
	}
}

func (r *runner) ordersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			orders, err := a.Coordinator.OrderHistory(cmd.Context())
			if err != nil {
				return err
			}
			return printOrders(cmd.OutOrStdout(), orders)
		}),
	}
}
