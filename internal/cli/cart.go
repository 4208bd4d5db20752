package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/storefront/internal/app"
)

func (r *runner) productsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			products, err := a.Coordinator.Products(cmd.Context())
			if err != nil {
				return err
			}
			return printProducts(cmd.OutOrStdout(), products)
		}),
	}
}

func (r *runner) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show or change the current order",
	}
	cmd.AddCommand(r.cartShowCommand(), r.cartAddCommand(), r.cartRemoveCommand())
	return cmd
}

func (r *runner) cartShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the items in the current order",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			order, err := a.Coordinator.LoadCart(cmd.Context())
			if err != nil {
				return err
			}
			return printOrder(cmd.OutOrStdout(), order)
		}),
	}
}

func (r *runner) cartAddCommand() *cobra.Command {
	var quantity int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the current order",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			ctx := cmd.Context()
			products, err := a.Coordinator.Products(ctx)
			if err != nil {
				return err
			}
			for _, p := range products {
				if p.ID != args[0] {
					continue
				}
				order, err := a.Coordinator.AddItem(ctx, p, quantity)
				if err != nil {
					return err
				}
				return printOrder(cmd.OutOrStdout(), order)
			}
			return fmt.Errorf("no product with id %q, see `storefront products`", args[0])
		}),
	}
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "units to add; values below 1 add one unit")
	return cmd
}

func (r *runner) cartRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a line item from the current order",
		Args:  cobra.ExactArgs(1),
		RunE: r.withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
			order, err := a.Coordinator.RemoveItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOrder(cmd.OutOrStdout(), order)
		}),
	}
}
