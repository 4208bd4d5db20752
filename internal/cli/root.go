package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/storefront/internal/app"
	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// runner carries what every command needs to build the application.
type runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the storefront command tree.
func NewRootCommand(cfg *config.Config, log *slog.Logger) *cobra.Command {
	r := &runner{cfg: cfg, logger: log}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Shop from the terminal",
		Long: `storefront is a terminal client for the e-commerce API.

Log in, browse the catalog, fill your cart, check out with a delivery
address and confirm the (simulated) payment. The session is kept between
invocations, so "storefront cart add" picks up where you left off.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(logger.WithCorrelationID(ctx, uuid.NewString()))
		},
	}

	root.AddCommand(
		r.loginCommand(),
		r.logoutCommand(),
		r.whoamiCommand(),
		r.registerCommand(),
		r.forgotPasswordCommand(),
		r.profileCommand(),
		r.productsCommand(),
		r.cartCommand(),
		r.checkoutCommand(),
		r.paymentCodeCommand(),
		r.payCommand(),
		r.ordersCommand(),
		r.doctorCommand(),
		r.sandboxCommand(),
	)
	return root
}

// ReportError prints err unless the notice printed by the failing operation
// already told the customer what went wrong.
func ReportError(cmd *cobra.Command, err error) {
	if domain.KindOf(err) != domain.KindUnknown {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
}

type appFunc func(cmd *cobra.Command, args []string, a *app.App) error

// withApp builds the application for one command and closes it afterwards.
func (r *runner) withApp(fn appFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd.Context(), r.cfg, r.logger, noticePrinter{out: cmd.OutOrStdout()})
		if err != nil {
			return fmt.Errorf("start storefront: %w", err)
		}
		defer func() {
			if err := a.Close(context.Background()); err != nil {
				r.logger.Warn("storefront shutdown error", slog.String("error", err.Error()))
			}
		}()
		return fn(cmd, args, a)
	}
}
