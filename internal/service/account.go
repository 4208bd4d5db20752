package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// Login signs in with the remote API and persists the returned token and
// customer id. An order id left by a different customer is discarded.
func (c *Coordinator) Login(ctx context.Context, creds domain.Credentials) (domain.SessionView, error) {
	const op = "login"
	var view domain.SessionView
	err := c.run(ctx, op, func(ctx context.Context) error {
		if err := validator.Validate(creds); err != nil {
			return domain.NewError(domain.KindLoginFailed, op, err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		prev, err := c.resolveLocked(ctx)
		if err != nil {
			return domain.NewError(domain.KindLoginFailed, op, fmt.Errorf("load session: %w", err))
		}

		callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
		signed, err := c.orders.SignIn(callCtx, creds)
		cancel()
		if err != nil {
			return domain.NewError(domain.KindLoginFailed, op, err)
		}

		if prev.CustomerID != "" && prev.CustomerID != signed.CustomerID && prev.HasOrder() {
			if err := c.store.ClearOrderID(ctx); err != nil {
				return domain.NewError(domain.KindLoginFailed, op, fmt.Errorf("clear previous order: %w", err))
			}
			c.resetOrderLocked()
		}
		if err := c.store.SaveIdentity(ctx, signed.CustomerID, signed.Token); err != nil {
			return domain.NewError(domain.KindLoginFailed, op, fmt.Errorf("save identity: %w", err))
		}

		view, err = c.resolveLocked(ctx)
		if err != nil {
			return domain.NewError(domain.KindLoginFailed, op, fmt.Errorf("load session: %w", err))
		}
		ctx = sessionContext(ctx, view)
		c.log(ctx).InfoContext(ctx, "customer logged in")
		c.notify(ctx, domain.NoticeSuccess, "Login successful.", domain.RouteCatalog)
		return nil
	})
	return view, err
}

// Logout clears the token, customer id and order id together.
func (c *Coordinator) Logout(ctx context.Context) error {
	const op = "logout"
	return c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		view, err := c.store.Load(ctx)
		if err != nil {
			c.log(ctx).WarnContext(ctx, "could not read session before logout",
				slog.String("error", err.Error()),
			)
		}
		if err := c.store.Clear(ctx); err != nil {
			return domain.NewError(domain.KindUnknown, op, fmt.Errorf("clear session: %w", err))
		}
		c.resetOrderLocked()
		c.form = domain.AddressForm{}

		ctx = sessionContext(ctx, view)
		if view.CustomerID != "" {
			c.publish(ctx, "logged_out", func() error { return c.events.LoggedOut(ctx, view.CustomerID) })
		}
		c.log(ctx).InfoContext(ctx, "customer logged out")
		c.notify(ctx, domain.NoticeInfo, "You have been logged out.", domain.RouteLogin)
		return nil
	})
}

// Products lists the catalog. No login is needed.
func (c *Coordinator) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "products"
	var products []domain.Product
	err := c.run(ctx, op, func(ctx context.Context) error {
		callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
		defer cancel()
		var err error
		products, err = c.orders.ListProducts(callCtx)
		if err != nil {
			return domain.NewError(domain.KindFetchFailed, op, err)
		}
		return nil
	})
	return products, err
}

// Profile fetches the logged-in customer's profile.
func (c *Coordinator) Profile(ctx context.Context) (*domain.Customer, error) {
	const op = "profile"
	var customer *domain.Customer
	err := c.run(ctx, op, func(ctx context.Context) error {
		view, err := c.identity(ctx, op)
		if err != nil {
			return err
		}
		callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
		defer cancel()
		customer, err = c.orders.GetCustomer(callCtx, view.Token, view.CustomerID)
		if err != nil {
			return remoteError(domain.KindFetchFailed, op, err)
		}
		return nil
	})
	return customer, err
}

// OrderHistory lists every order placed by the logged-in customer.
func (c *Coordinator) OrderHistory(ctx context.Context) ([]*domain.Order, error) {
	const op = "order_history"
	var orders []*domain.Order
	err := c.run(ctx, op, func(ctx context.Context) error {
		view, err := c.identity(ctx, op)
		if err != nil {
			return err
		}
		callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
		defer cancel()
		orders, err = c.orders.ListCustomerOrders(callCtx, view.Token, view.CustomerID)
		if err != nil {
			return remoteError(domain.KindFetchFailed, op, err)
		}
		for _, o := range orders {
			reconcileTotals(ctx, c.log(ctx), o)
		}
		return nil
	})
	return orders, err
}

// Register creates a customer account. The customer still has to log in.
func (c *Coordinator) Register(ctx context.Context, reg domain.Registration) error {
	const op = "register"
	return c.run(ctx, op, func(ctx context.Context) error {
		if err := validator.Validate(reg); err != nil {
			return domain.NewError(domain.KindRegistrationFailed, op, err)
		}
		callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
		defer cancel()
		if err := c.orders.Register(callCtx, reg); err != nil {
			return domain.NewError(domain.KindRegistrationFailed, op, err)
		}
		c.notify(ctx, domain.NoticeSuccess, "Account created. You can now log in.", domain.RouteLogin)
		return nil
	})
}

type passwordReset struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword asks the remote API to email a password reset link.
func (c *Coordinator) ForgotPassword(ctx context.Context, email string) error {
	const op = "forgot_password"
	return c.run(ctx, op, func(ctx context.Context) error {
		if err := validator.Validate(passwordReset{Email: email}); err != nil {
			return domain.NewError(domain.KindPasswordResetFailed, op, err)
		}
		callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
		defer cancel()
		if err := c.orders.ForgotPassword(callCtx, email); err != nil {
			return domain.NewError(domain.KindPasswordResetFailed, op, err)
		}
		c.notify(ctx, domain.NoticeSuccess, "Password reset email sent.", domain.RouteLogin)
		return nil
	})
}

// identity is requireIdentity for read-only operations that do not touch
// local order state.
func (c *Coordinator) identity(ctx context.Context, op string) (domain.SessionView, error) {
	view, err := c.store.Load(ctx)
	if err != nil {
		return view, domain.NewError(domain.KindFetchFailed, op, fmt.Errorf("load session: %w", err))
	}
	if !view.HasIdentity() {
		return view, domain.NewError(domain.KindAuthenticationRequired, op, nil)
	}
	return view, nil
}
