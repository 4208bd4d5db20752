package repository

import (
	"context"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
)

// Field names of the persisted session. They are shared by every backend so
// a session written by one can be read by another.
const (
	FieldAuthToken  = "auth_token"
	FieldCustomerID = "customer_id"
	FieldOrderID    = "order_id"
)

// SessionStore persists the session identity and the current order id.
type SessionStore interface {
	// Load returns the persisted keys. Missing keys come back empty.
	Load(ctx context.Context) (domain.SessionView, error)

	// SaveIdentity stores the customer id and bearer token together.
	SaveIdentity(ctx context.Context, customerID, token string) error

	// SaveOrderID stores the id of the order being assembled.
	SaveOrderID(ctx context.Context, orderID string) error

	// ClearOrderID removes only the order id.
	ClearOrderID(ctx context.Context) error

	// Clear removes all three keys.
	Clear(ctx context.Context) error
}
