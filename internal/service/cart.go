package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// EnsureOrder returns the persisted order id, creating and persisting a new
// order when none is known.
func (c *Coordinator) EnsureOrder(ctx context.Context, customerID string) (string, error) {
	const op = "ensure_order"
	var orderID string
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		view, err := c.requireIdentity(ctx, op, domain.KindOrderCreationFailed)
		if err != nil {
			return err
		}
		if customerID == "" {
			return domain.NewError(domain.KindAuthenticationRequired, op, nil)
		}
		view.CustomerID = customerID
		orderID, err = c.ensureOrderLocked(ctx, op, view)
		return err
	})
	return orderID, err
}

func (c *Coordinator) ensureOrderLocked(ctx context.Context, op string, view domain.SessionView) (string, error) {
	if view.HasOrder() {
		return view.OrderID, nil
	}

	callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
	orderID, err := c.orders.CreateOrder(callCtx, view.Token, view.CustomerID)
	cancel()
	if err != nil {
		return "", remoteError(domain.KindOrderCreationFailed, op, err)
	}

	// The id is persisted before anything else so a reload reuses it.
	if err := c.store.SaveOrderID(ctx, orderID); err != nil {
		return "", domain.NewError(domain.KindOrderCreationFailed, op, fmt.Errorf("save order id: %w", err))
	}
	c.resetOrderLocked()
	c.order = &domain.Order{
		ID:         orderID,
		CustomerID: view.CustomerID,
		Status:     domain.OrderStatusOpen,
		Items:      []domain.LineItem{},
	}
	c.itemsLoaded = true
	c.statusKnown = true

	ctx = sessionContext(ctx, domain.SessionView{CustomerID: view.CustomerID, OrderID: orderID})
	c.publish(ctx, "order_created", func() error { return c.events.OrderCreated(ctx, orderID, view.CustomerID) })
	c.log(ctx).InfoContext(ctx, "order created")
	return orderID, nil
}

// AddItem attaches quantity units of product to the current order, creating
// the order first when needed. Quantities below 1 are raised to 1. The local
// cart changes only after the service confirms.
func (c *Coordinator) AddItem(ctx context.Context, product domain.Product, quantity int) (*domain.Order, error) {
	const op = "add_item"
	var out *domain.Order
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		qty := domain.ClampQuantity(quantity)
		view, err := c.requireIdentity(ctx, op, domain.KindItemAttachFailed)
		if err != nil {
			return err
		}
		if c.statusKnown && c.order != nil && c.order.Status != domain.OrderStatusOpen {
			return domain.NewError(domain.KindItemAttachFailed, op, domain.ErrOrderNotOpen)
		}

		orderID, err := c.ensureOrderLocked(ctx, op, view)
		if err != nil {
			return err
		}
		view.OrderID = orderID
		ctx = sessionContext(ctx, view)

		callCtx, cancel := withTimeout(ctx, c.timeouts.Item)
		item, err := c.orders.AttachItem(callCtx, view.Token, orderID, product.ID, qty)
		cancel()
		if err != nil {
			return remoteError(domain.KindItemAttachFailed, op, err)
		}

		if item != nil && c.itemsLoaded {
			if item.Product.ID == "" {
				item.Product = product
			}
			c.mergeItemLocked(ctx, *item)
		} else {
			// Without a returned item, or without the rest of the cart, the
			// server copy is the only complete view.
			if err := c.refreshOrderLocked(ctx, view); err != nil {
				c.log(ctx).WarnContext(ctx, "item attached but cart refresh failed",
					slog.String("error", err.Error()),
				)
			}
		}

		added := domain.LineItem{Product: product, Quantity: qty, UnitPrice: product.Price}
		if item != nil {
			added = *item
		}
		c.publish(ctx, "item_added", func() error { return c.events.ItemAdded(ctx, orderID, added) })
		c.log(ctx).InfoContext(ctx, "item added to order",
			slog.String("product_id", product.ID),
			slog.Int("quantity", qty),
		)
		c.notify(ctx, domain.NoticeSuccess,
			fmt.Sprintf("%s was added to your cart with %d unit(s).", displayName(product), qty), domain.RouteNone)
		out = c.order.Clone()
		return nil
	})
	return out, err
}

// RemoveItem deletes a line item that is in the current cart. The item
// leaves the local list only after the service confirms.
func (c *Coordinator) RemoveItem(ctx context.Context, itemID string) (*domain.Order, error) {
	const op = "remove_item"
	var out *domain.Order
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		view, err := c.requireIdentity(ctx, op, domain.KindItemRemoveFailed)
		if err != nil {
			return err
		}
		if !view.HasOrder() {
			return domain.NewError(domain.KindItemRemoveFailed, op, domain.ErrItemNotInCart)
		}
		ctx = sessionContext(ctx, view)

		if !c.itemsLoaded {
			if err := c.refreshOrderLocked(ctx, view); err != nil {
				return remoteError(domain.KindItemRemoveFailed, op, err)
			}
		}
		idx := c.order.IndexOf(itemID)
		if idx < 0 {
			return domain.NewError(domain.KindItemRemoveFailed, op, fmt.Errorf("%w: %s", domain.ErrItemNotInCart, itemID))
		}
		if c.statusKnown && c.order.Status != domain.OrderStatusOpen {
			return domain.NewError(domain.KindItemRemoveFailed, op, domain.ErrOrderNotOpen)
		}

		callCtx, cancel := withTimeout(ctx, c.timeouts.Item)
		err = c.orders.DeleteItem(callCtx, view.Token, itemID)
		cancel()
		if err != nil {
			return remoteError(domain.KindItemRemoveFailed, op, err)
		}

		removed := c.order.Items[idx]
		c.order.Items = append(c.order.Items[:idx:idx], c.order.Items[idx+1:]...)
		// The server order value no longer matches the item list.
		c.order.Total = 0

		c.publish(ctx, "item_removed", func() error { return c.events.ItemRemoved(ctx, view.OrderID, itemID) })
		c.log(ctx).InfoContext(ctx, "item removed from order", slog.String("item_id", itemID))
		c.notify(ctx, domain.NoticeSuccess,
			fmt.Sprintf("%s was removed from your cart.", displayName(removed.Product)), domain.RouteNone)
		out = c.order.Clone()
		return nil
	})
	return out, err
}

// LoadCart ensures an order exists and fetches its items and status from the
// service. A persisted id that the service no longer knows, or that belongs
// to an order already paid, is replaced by a fresh order.
func (c *Coordinator) LoadCart(ctx context.Context) (*domain.Order, error) {
	const op = "load_cart"
	var out *domain.Order
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		view, err := c.requireIdentity(ctx, op, domain.KindFetchFailed)
		if err != nil {
			return err
		}
		orderID, err := c.ensureOrderLocked(ctx, op, view)
		if err != nil {
			return err
		}
		view.OrderID = orderID
		ctx = sessionContext(ctx, view)

		err = c.refreshOrderLocked(ctx, view)
		stale := errors.Is(err, apperrors.ErrNotFound) ||
			(err == nil && c.order.Status == domain.OrderStatusPaid)
		if stale {
			c.log(ctx).WarnContext(ctx, "discarding stale order id")
			if err := c.store.ClearOrderID(ctx); err != nil {
				return domain.NewError(domain.KindFetchFailed, op, fmt.Errorf("clear order id: %w", err))
			}
			c.resetOrderLocked()
			view.OrderID = ""
			if _, err := c.ensureOrderLocked(ctx, op, view); err != nil {
				return err
			}
		} else if err != nil {
			return remoteError(domain.KindFetchFailed, op, err)
		}

		out = c.order.Clone()
		return nil
	})
	return out, err
}

// RefreshOrder reloads the persisted order from the service without
// creating or replacing one. It fails with OrderNotFound when no order id is
// persisted or the service no longer knows it.
func (c *Coordinator) RefreshOrder(ctx context.Context) (*domain.Order, error) {
	const op = "refresh_order"
	var out *domain.Order
	err := c.run(ctx, op, func(ctx context.Context) error {
		c.mu.Lock()
		defer c.mu.Unlock()

		view, err := c.requireIdentity(ctx, op, domain.KindFetchFailed)
		if err != nil {
			return err
		}
		if !view.HasOrder() {
			return domain.NewError(domain.KindOrderNotFound, op, nil)
		}
		ctx = sessionContext(ctx, view)

		if err := c.refreshOrderLocked(ctx, view); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return domain.NewError(domain.KindOrderNotFound, op, err)
			}
			return remoteError(domain.KindFetchFailed, op, err)
		}
		out = c.order.Clone()
		return nil
	})
	return out, err
}

// refreshOrderLocked replaces the local order with the server copy.
func (c *Coordinator) refreshOrderLocked(ctx context.Context, view domain.SessionView) error {
	callCtx, cancel := withTimeout(ctx, c.timeouts.Order)
	defer cancel()

	order, err := c.orders.GetOrder(callCtx, view.Token, view.OrderID)
	if err != nil {
		return err
	}
	if order.ID == "" {
		order.ID = view.OrderID
	}
	if order.CustomerID == "" {
		order.CustomerID = view.CustomerID
	}
	if order.Items == nil {
		order.Items = []domain.LineItem{}
	}
	reconcileTotals(ctx, c.log(ctx), order)

	c.order = order
	c.itemsLoaded = true
	c.statusKnown = true
	return nil
}

// mergeItemLocked replaces the item with the same id or appends it.
func (c *Coordinator) mergeItemLocked(ctx context.Context, item domain.LineItem) {
	reconcileItem(ctx, c.log(ctx), &item)
	if idx := c.order.IndexOf(item.ID); idx >= 0 {
		c.order.Items[idx] = item
	} else {
		c.order.Items = append(c.order.Items, item)
	}
	// The server order value no longer matches the item list.
	c.order.Total = 0
}

// reconcileTotals fills missing item totals and logs any disagreement
// between server totals and quantity * unit price. Server values win.
func reconcileTotals(ctx context.Context, log *slog.Logger, order *domain.Order) {
	for i := range order.Items {
		reconcileItem(ctx, log, &order.Items[i])
	}
	if order.Total > 0 && order.Total != order.ItemsTotal() {
		log.WarnContext(ctx, "order value differs from item totals",
			slog.String("order_id", order.ID),
			slog.Int64("order_total", order.Total),
			slog.Int64("items_total", order.ItemsTotal()),
		)
	}
}

func reconcileItem(ctx context.Context, log *slog.Logger, item *domain.LineItem) {
	computed := item.ComputedTotal()
	switch {
	case item.Total == 0:
		item.Total = computed
	case item.Total != computed:
		log.WarnContext(ctx, "line item total differs from quantity times price",
			slog.String("item_id", item.ID),
			slog.Int64("server_total", item.Total),
			slog.Int64("computed_total", computed),
		)
	}
}

func displayName(p domain.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return "Product " + p.ID
}
