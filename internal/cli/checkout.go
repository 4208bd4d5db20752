package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/storefront/internal/app"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/payment"
)

func (r *runner) checkoutCommand() *cobra.Command {
	var (
		postalCode string
		number     string
		complement string
		qrOut      string
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Finalize the current order with a delivery address",
		Long: `Resolve the postal code (CEP), complete the address with the house
number and optional complement, and finalize the current order. The payment
code is printed and, with --qr-out, saved as a PNG.`,
		Args: cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			ctx := cmd.Context()
			code := domain.CleanPostalCode(postalCode)
			if _, resolved, err := a.Coordinator.LookupAddress(ctx, code); err != nil {
				return err
			} else if !resolved {
				return fmt.Errorf("invalid postal code %q: expected 8 digits", postalCode)
			}
			a.Coordinator.SetAddressDetails(number, complement)

			art, err := a.Coordinator.SubmitCheckout(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deliver to: %s\n", a.Coordinator.AddressForm().Address.Compose())
			if err := showArtifact(out, art, qrOut); err != nil {
				return err
			}
			fmt.Fprintln(out, "Run `storefront pay` once the payment is done.")
			return nil
		}),
	}
	cmd.Flags().StringVar(&postalCode, "cep", "", "postal code, e.g. 01001-000")
	cmd.Flags().StringVar(&number, "number", "", "house number")
	cmd.Flags().StringVar(&complement, "complement", "", "apartment, block, etc.")
	cmd.Flags().StringVar(&qrOut, "qr-out", "", "save the payment QR code to this PNG file")
	_ = cmd.MarkFlagRequired("cep")
	_ = cmd.MarkFlagRequired("number")
	return cmd
}

func (r *runner) paymentCodeCommand() *cobra.Command {
	var qrOut string
	cmd := &cobra.Command{
		Use:   "payment-code",
		Short: "Show the payment code of the finalized order",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			ctx := cmd.Context()
			if _, err := a.Coordinator.RefreshOrder(ctx); err != nil {
				return err
			}
			art, err := a.Coordinator.PaymentArtifact(ctx)
			if err != nil {
				return fmt.Errorf("%w; run `storefront checkout` first", err)
			}
			return showArtifact(cmd.OutOrStdout(), art, qrOut)
		}),
	}
	cmd.Flags().StringVar(&qrOut, "qr-out", "", "save the payment QR code to this PNG file")
	return cmd
}

func (r *runner) payCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pay",
		Short: "Confirm payment of the finalized order",
		Args:  cobra.NoArgs,
		RunE: r.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			_, err := a.Coordinator.ConfirmPayment(cmd.Context())
			return err
		}),
	}
}

// showArtifact prints the terminal QR code and optionally saves the PNG.
// A nil artifact means generation failed after a successful finalization.
func showArtifact(out io.Writer, art *payment.Artifact, pngPath string) error {
	if art == nil {
		fmt.Fprintln(out, "The payment code could not be generated; try `storefront payment-code`.")
		return nil
	}
	fmt.Fprintf(out, "Scan to pay (%s):\n%s\n", art.Target, art.Text)
	if pngPath == "" {
		return nil
	}
	if err := art.WritePNG(pngPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Payment code saved to %s\n", pngPath)
	return nil
}
