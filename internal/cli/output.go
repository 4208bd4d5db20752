package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

const loginHint = "Run `storefront login --email <email> --password <password>` to sign in."

// noticePrinter writes coordinator notices to the command output.
type noticePrinter struct {
	out io.Writer
}

func (p noticePrinter) Notify(_ context.Context, n domain.Notice) {
	fmt.Fprintf(p.out, "%s %s\n", noticeMark(n.Level), n.Message)
	if n.Level == domain.NoticeError && n.Route == domain.RouteLogin {
		fmt.Fprintln(p.out, "  "+loginHint)
	}
}

func noticeMark(level domain.NoticeLevel) string {
	switch level {
	case domain.NoticeSuccess:
		return "[ok]"
	case domain.NoticeError:
		return "[error]"
	default:
		return "[info]"
	}
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func printProducts(out io.Writer, products []domain.Product) error {
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSTOCK\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.ID, p.Name, domain.FormatCents(p.Price), p.Stock, p.Description)
	}
	return tw.Flush()
}

func printOrder(out io.Writer, order *domain.Order) error {
	fmt.Fprintf(out, "Order #%s (%s)\n", order.ID, order.Status)
	if order.DeliveryAddress != "" {
		fmt.Fprintf(out, "Deliver to: %s\n", order.DeliveryAddress)
	}
	if len(order.Items) == 0 {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "ITEM\tPRODUCT\tQTY\tUNIT\tTOTAL")
	for _, it := range order.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			it.ID, it.Product.Name, it.Quantity, domain.FormatCents(it.UnitPrice), domain.FormatCents(it.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Total: %s\n", domain.FormatCents(order.DisplayTotal()))
	return nil
}

func printOrders(out io.Writer, orders []*domain.Order) error {
	if len(orders) == 0 {
		fmt.Fprintln(out, "No orders yet.")
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ORDER\tSTATUS\tITEMS\tTOTAL\tADDRESS")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.Status, len(o.Items), domain.FormatCents(o.DisplayTotal()), o.DeliveryAddress)
	}
	return tw.Flush()
}
