package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/storefront/internal/app"
	"github.com/utafrali/EcommerceGo/storefront/internal/sandbox"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
)

func (r *runner) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the API, postal lookup, Redis and Kafka",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			resp := a.Health.Check(cmd.Context())

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CHECK\tSTATUS\tLATENCY\tERROR")
			for _, name := range a.Health.Names() {
				res := resp.Checks[name]
				status := string(res.Status)
				if !res.Critical {
					status += " (optional)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, status, res.Latency.Round(time.Microsecond), res.Error)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Overall: %s\n", resp.Status)

			if resp.Status == health.StatusDown {
				return errors.New("a required dependency is down")
			}
			return nil
		}),
	}
}

func (r *runner) sandboxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox",
		Short: "Serve an in-memory e-commerce API for local development",
		Long: `Serve an in-memory implementation of the e-commerce API on
SANDBOX_HTTP_PORT. Point STOREFRONT_API_BASE_URL at it to shop without a
real backend. The state is lost when the server stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.NewSandbox(cmd.Context(), r.cfg, r.logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sandbox API on http://localhost%s%s\n", s.Addr(), sandbox.BasePath)
			fmt.Fprintf(out, "Demo account: %s / %s\n", sandbox.DemoEmail, sandbox.DemoPassword)
			return s.Run(cmd.Context())
		},
	}
}
