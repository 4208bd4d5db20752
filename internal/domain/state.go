package domain

// State is the phase of the current shopping session.
type State int

const (
	StateNoOrder State = iota
	StateOrderOpen
	StateFinalized
	StatePaid
)

func (s State) String() string {
	switch s {
	case StateNoOrder:
		return "no_order"
	case StateOrderOpen:
		return "order_open"
	case StateFinalized:
		return "finalized"
	case StatePaid:
		return "paid"
	default:
		return "unknown"
	}
}

// Route names a destination the caller should navigate to after an outcome.
type Route string

const (
	RouteNone    Route = ""
	RouteLogin   Route = "login"
	RouteCatalog Route = "catalog"
	RouteCart    Route = "cart"
	RoutePayment Route = "payment"
)

// SessionView is a snapshot of the persisted session keys.
type SessionView struct {
	CustomerID string
	Token      string
	OrderID    string
}

// HasIdentity reports whether a customer is logged in.
func (v SessionView) HasIdentity() bool {
	return v.CustomerID != "" && v.Token != ""
}

// HasOrder reports whether an order id is being tracked.
func (v SessionView) HasOrder() bool {
	return v.OrderID != ""
}

// Credentials are what the customer types to sign in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"pass" validate:"required"`
}

// Registration is the sign-up form.
type Registration struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"pass" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required"`
}

// Customer is the read-only profile returned by the order service.
type Customer struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	CreatedAt string
}
