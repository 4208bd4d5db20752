package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/payment"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// LookupAddress fills street, neighborhood, city and state from a postal
// code. Anything other than exactly eight digits is ignored: the form comes
// back unchanged with false and no lookup is made. A failed lookup keeps
// previously resolved fields.
func (c *Coordinator) LookupAddress(ctx context.Context, postalCode string) (domain.AddressForm, bool, error) {
	if !domain.IsPostalCode(postalCode) {
		return c.AddressForm(), false, nil
	}

	const op = "lookup_address"
	var form domain.AddressForm
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		callCtx, cancel := withTimeout(ctx, c.timeouts.Lookup)
		resolved, err := c.postal.Lookup(callCtx, postalCode)
		cancel()
		if err != nil {
			form = c.form
			return domain.NewError(domain.KindAddressLookupFailed, op, err)
		}

		c.form.Apply(postalCode, resolved)
		form = c.form
		c.log(ctx).DebugContext(ctx, "address resolved", slog.String("postal_code", postalCode))
		return nil
	})
	return form, err == nil, err
}

// SetAddressDetails records the customer-typed part of the address.
func (c *Coordinator) SetAddressDetails(number, complement string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Address.Number = number
	c.form.Address.Complement = complement
}

// AddressForm returns the current checkout form.
func (c *Coordinator) AddressForm() domain.AddressForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// SubmitCheckout finalizes the order with the address in the checkout form.
func (c *Coordinator) SubmitCheckout(ctx context.Context) (*payment.Artifact, error) {
	c.mu.Lock()
	addr := c.form.Address
	c.mu.Unlock()
	return c.FinalizeOrder(ctx, addr)
}

// FinalizeOrder sends the composed delivery address and locks the order for
// payment, then generates the payment code. An incomplete address is
// rejected before any remote call.
func (c *Coordinator) FinalizeOrder(ctx context.Context, addr domain.Address) (*payment.Artifact, error) {
	const op = "finalize_order"
	var art *payment.Artifact
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		view, err := c.requireIdentity(ctx, op, domain.KindFinalizeFailed)
		if err != nil {
			return err
		}
		if !view.HasOrder() {
			return domain.NewError(domain.KindOrderNotFound, op, nil)
		}
		if err := addr.Validate(); err != nil {
			return domain.NewError(domain.KindAddressIncomplete, op, err)
		}
		if c.statusKnown && c.order.Status != domain.OrderStatusOpen {
			return domain.NewError(domain.KindFinalizeFailed, op, domain.ErrOrderNotOpen)
		}
		ctx = sessionContext(ctx, view)

		composed := addr.Compose()
		callCtx, cancel := withTimeout(ctx, c.timeouts.Finalize)
		err = c.orders.FinalizeOrder(callCtx, view.Token, view.OrderID, composed)
		cancel()
		if err != nil {
			return remoteError(domain.KindFinalizeFailed, op, err)
		}

		c.order.Status = domain.OrderStatusFinalized
		c.order.DeliveryAddress = composed
		c.statusKnown = true
		c.form.Address = addr

		art = c.generateArtifactLocked(ctx)
		c.publish(ctx, "order_finalized", func() error { return c.events.OrderFinalized(ctx, c.order.Clone()) })
		c.log(ctx).InfoContext(ctx, "order finalized")
		c.notify(ctx, domain.NoticeSuccess, "Order finalized. Scan the code to pay.", domain.RoutePayment)
		return nil
	})
	return art, err
}

// generateArtifactLocked renders the payment code. Generation is local and
// its failure does not undo the finalization.
func (c *Coordinator) generateArtifactLocked(ctx context.Context) *payment.Artifact {
	art, err := c.artifacts.Generate()
	if err != nil {
		c.log(ctx).ErrorContext(ctx, "failed to generate payment code",
			slog.String("error", err.Error()),
		)
		return nil
	}
	c.artifact = art
	return art
}

// ConfirmPayment completes payment for the current order, discards the
// persisted order id and routes back to the catalog.
func (c *Coordinator) ConfirmPayment(ctx context.Context) (domain.Route, error) {
	const op = "confirm_payment"
	route := domain.RouteNone
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		view, err := c.requireIdentity(ctx, op, domain.KindPaymentConfirmationFailed)
		if err != nil {
			return err
		}
		if !view.HasOrder() {
			return domain.NewError(domain.KindOrderNotFound, op, nil)
		}
		ctx = sessionContext(ctx, view)

		if !c.statusKnown {
			if err := c.refreshOrderLocked(ctx, view); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return domain.NewError(domain.KindOrderNotFound, op, err)
				}
				c.log(ctx).WarnContext(ctx, "could not refresh order status before payment",
					slog.String("error", err.Error()),
				)
			}
		}

		alreadyPaid := c.statusKnown && c.order.Status == domain.OrderStatusPaid
		switch {
		case alreadyPaid:
			c.log(ctx).InfoContext(ctx, "order already paid, discarding order id")
		case c.statusKnown && c.order.Status != domain.OrderStatusFinalized:
			return domain.NewError(domain.KindPaymentConfirmationFailed, op, domain.ErrOrderNotFinalized)
		default:
			callCtx, cancel := withTimeout(ctx, c.timeouts.Payment)
			err = c.orders.CompletePayment(callCtx, view.Token, view.OrderID)
			cancel()
			if errors.Is(err, apperrors.ErrNotFound) {
				return domain.NewError(domain.KindOrderNotFound, op, err)
			}
			if err != nil {
				return remoteError(domain.KindPaymentConfirmationFailed, op, err)
			}
		}

		if err := c.store.ClearOrderID(ctx); err != nil {
			// Payment went through; the stale id is discarded by the next
			// cart load once the service reports the order as paid.
			c.log(ctx).ErrorContext(ctx, "failed to clear paid order id",
				slog.String("error", err.Error()),
			)
		}
		c.resetOrderLocked()
		c.form = domain.AddressForm{}

		if !alreadyPaid {
			c.publish(ctx, "order_paid", func() error { return c.events.OrderPaid(ctx, view.OrderID, view.CustomerID) })
		}
		c.log(ctx).InfoContext(ctx, "payment confirmed")
		c.notify(ctx, domain.NoticeSuccess, "Payment confirmed! Back to the products.", domain.RouteCatalog)
		route = domain.RouteCatalog
		return nil
	})
	return route, err
}

// errNotFinalized is returned by PaymentArtifact outside the Finalized state.
var errNotFinalized = fmt.Errorf("payment code: %w", domain.ErrOrderNotFinalized)

// PaymentArtifact returns the payment code for a finalized order,
// generating it when this process has not done so yet.
func (c *Coordinator) PaymentArtifact(ctx context.Context) (*payment.Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.artifact != nil {
		return c.artifact, nil
	}
	if c.stateLocked() != domain.StateFinalized {
		return nil, errNotFinalized
	}
	if art := c.generateArtifactLocked(ctx); art != nil {
		return art, nil
	}
	return nil, fmt.Errorf("payment code could not be generated")
}
