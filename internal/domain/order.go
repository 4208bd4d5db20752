package domain

import (
	"strings"
)

// OrderStatus is the remote lifecycle status of an order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusFinalized OrderStatus = "finalized"
	OrderStatusPaid      OrderStatus = "paid"
)

// ParseOrderStatus normalizes the status labels the order service uses.
// Unrecognized labels are kept lower-cased so they can still be displayed.
func ParseOrderStatus(s string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open", "opened", "created", "pending", "aberto":
		return OrderStatusOpen
	case "finalized", "finalised", "awaiting_payment", "finalizado":
		return OrderStatusFinalized
	case "paid", "completed", "complete", "pago":
		return OrderStatusPaid
	default:
		return OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	}
}

// State maps the remote status onto the session state machine.
func (s OrderStatus) State() State {
	switch s {
	case OrderStatusFinalized:
		return StateFinalized
	case OrderStatusPaid:
		return StatePaid
	default:
		return StateOrderOpen
	}
}

// Product is a catalog entry. Prices are in cents.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       int64
	Stock       int
}

// LineItem is one product entry within an order. Prices are in cents.
type LineItem struct {
	ID        string
	Product   Product
	Quantity  int
	UnitPrice int64
	Total     int64
}

// ComputedTotal is quantity times unit price.
func (li LineItem) ComputedTotal() int64 {
	return int64(li.Quantity) * li.UnitPrice
}

// Order is the customer's purchase as last confirmed by the order service.
type Order struct {
	ID              string
	CustomerID      string
	Status          OrderStatus
	DeliveryAddress string
	Items           []LineItem
	// Total is the server-reported order value; zero when it was not sent.
	Total int64
}

// ItemsTotal sums the line item totals.
func (o *Order) ItemsTotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.Total
	}
	return sum
}

// DisplayTotal prefers the server order value and falls back to the item sum.
func (o *Order) DisplayTotal() int64 {
	if o.Total > 0 {
		return o.Total
	}
	return o.ItemsTotal()
}

// IndexOf returns the position of the item with the given id, or -1.
func (o *Order) IndexOf(itemID string) int {
	for i, it := range o.Items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy safe to hand to callers.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	cp := *o
	cp.Items = append([]LineItem(nil), o.Items...)
	return &cp
}

// ClampQuantity returns q, raised to 1 when lower.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
