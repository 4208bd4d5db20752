package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/event"
	"github.com/utafrali/EcommerceGo/storefront/internal/payment"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
	"github.com/utafrali/EcommerceGo/storefront/pkg/tracing"
)

// OrderService is the remote e-commerce API as the coordinator uses it.
// *commerce.Client satisfies it.
type OrderService interface {
	CreateOrder(ctx context.Context, token, customerID string) (string, error)
	GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error)
	AttachItem(ctx context.Context, token, orderID, productID string, quantity int) (*domain.LineItem, error)
	DeleteItem(ctx context.Context, token, itemID string) error
	FinalizeOrder(ctx context.Context, token, orderID, deliveryAddress string) error
	CompletePayment(ctx context.Context, token, orderID string) error
	GetCustomer(ctx context.Context, token, customerID string) (*domain.Customer, error)
	ListCustomerOrders(ctx context.Context, token, customerID string) ([]*domain.Order, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SignIn(ctx context.Context, creds domain.Credentials) (domain.SessionView, error)
	Register(ctx context.Context, reg domain.Registration) error
	ForgotPassword(ctx context.Context, email string) error
}

// AddressLookup resolves an eight digit postal code.
type AddressLookup interface {
	Lookup(ctx context.Context, postalCode string) (domain.ResolvedAddress, error)
}

// ArtifactGenerator renders the payment code shown after finalization.
type ArtifactGenerator interface {
	Generate() (*payment.Artifact, error)
}

// Notifier shows outcome notices to the customer.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n domain.Notice)

func (f NotifierFunc) Notify(ctx context.Context, n domain.Notice) { f(ctx, n) }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notice) {}

// Coordinator drives one customer session through
// NoOrder -> OrderOpen -> Finalized -> Paid -> NoOrder.
//
// Mutating operations hold mu for their whole duration, remote calls
// included, so two add-to-cart calls can never race to create two orders.
// Local state changes only after the remote service confirms.
type Coordinator struct {
	store     repository.SessionStore
	orders    OrderService
	postal    AddressLookup
	artifacts ArtifactGenerator
	events    event.Publisher
	notifier  Notifier
	logger    *slog.Logger
	timeouts  config.Timeouts
	tracer    trace.Tracer

	mu sync.Mutex
	// order mirrors the persisted order id; nil means NoOrder.
	order       *domain.Order
	itemsLoaded bool
	statusKnown bool
	form        domain.AddressForm
	artifact    *payment.Artifact
}

// NewCoordinator creates a coordinator. A nil publisher disables events and
// a nil notifier drops notices.
func NewCoordinator(
	store repository.SessionStore,
	orders OrderService,
	postal AddressLookup,
	artifacts ArtifactGenerator,
	events event.Publisher,
	notifier Notifier,
	logger *slog.Logger,
	timeouts config.Timeouts,
) *Coordinator {
	if events == nil {
		events = event.Nop{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Coordinator{
		store:     store,
		orders:    orders,
		postal:    postal,
		artifacts: artifacts,
		events:    events,
		notifier:  notifier,
		logger:    logger,
		timeouts:  timeouts,
		tracer:    tracing.Tracer("github.com/utafrali/EcommerceGo/storefront/internal/service"),
	}
}

// State reports the current phase of the session.
func (c *Coordinator) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Coordinator) stateLocked() domain.State {
	if c.order == nil {
		return domain.StateNoOrder
	}
	return c.order.Status.State()
}

// Artifact returns the payment code generated at finalization, if any.
func (c *Coordinator) Artifact() *payment.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// Order returns a copy of the locally known order, or nil in NoOrder.
func (c *Coordinator) Order() *domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Clone()
}

// ResolveSession reads the persisted identity and order id. It has no side
// effects on the store or the remote service.
func (c *Coordinator) ResolveSession(ctx context.Context) (domain.SessionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, err := c.resolveLocked(ctx)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("resolve session: %w", err)
	}
	return view, nil
}

// resolveLocked loads the persisted keys and drops local order state that
// no longer matches the persisted order id.
func (c *Coordinator) resolveLocked(ctx context.Context) (domain.SessionView, error) {
	view, err := c.store.Load(ctx)
	if err != nil {
		return domain.SessionView{}, err
	}
	switch {
	case !view.HasOrder():
		c.resetOrderLocked()
	case c.order == nil || c.order.ID != view.OrderID:
		c.resetOrderLocked()
		c.order = &domain.Order{
			ID:         view.OrderID,
			CustomerID: view.CustomerID,
			Status:     domain.OrderStatusOpen,
		}
	}
	return view, nil
}

func (c *Coordinator) resetOrderLocked() {
	c.order = nil
	c.itemsLoaded = false
	c.statusKnown = false
	c.artifact = nil
}

// requireIdentity resolves the session and fails with AuthenticationRequired
// when no customer is logged in. failKind classifies store errors.
func (c *Coordinator) requireIdentity(ctx context.Context, op string, failKind domain.Kind) (domain.SessionView, error) {
	view, err := c.resolveLocked(ctx)
	if err != nil {
		return view, domain.NewError(failKind, op, fmt.Errorf("load session: %w", err))
	}
	if !view.HasIdentity() {
		return view, domain.NewError(domain.KindAuthenticationRequired, op, nil)
	}
	return view, nil
}

// run wraps one public operation with a span, metrics and failure reporting.
func (c *Coordinator) run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, c.tracer, "session."+op, attribute.String("session.operation", op))

	err := fn(ctx)

	tracing.EndSpan(span, err)
	outcome := outcomeOK
	if err != nil {
		outcome = domain.KindOf(err).String()
	}
	operationsTotal.WithLabelValues(op, outcome).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		c.reportFailure(ctx, op, err)
	}
	return err
}

func (c *Coordinator) reportFailure(ctx context.Context, op string, err error) {
	log := c.log(ctx)
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindAuthenticationRequired, domain.KindAddressIncomplete:
		log.WarnContext(ctx, "session operation rejected",
			slog.String("operation", op),
			slog.String("kind", kind.String()),
		)
	default:
		log.ErrorContext(ctx, "session operation failed",
			slog.String("operation", op),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
	}
	c.notifier.Notify(ctx, domain.NoticeFor(err))
}

func (c *Coordinator) notify(ctx context.Context, level domain.NoticeLevel, msg string, route domain.Route) {
	c.notifier.Notify(ctx, domain.Notice{Level: level, Message: msg, Route: route})
}

func (c *Coordinator) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, c.logger)
}

// remoteError classifies a failed remote call. A rejected credential always
// means the customer has to log in again.
func remoteError(kind domain.Kind, op string, err error) error {
	if apperrors.IsUnauthorized(err) {
		return domain.NewError(domain.KindAuthenticationRequired, op, err)
	}
	return domain.NewError(kind, op, err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// publish logs event failures; they never fail the operation.
func (c *Coordinator) publish(ctx context.Context, name string, fn func() error) {
	if err := fn(); err != nil {
		c.log(ctx).WarnContext(ctx, "failed to publish session event",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
	}
}

func sessionContext(ctx context.Context, view domain.SessionView) context.Context {
	if view.CustomerID != "" {
		ctx = logger.WithCustomerID(ctx, view.CustomerID)
	}
	if view.OrderID != "" {
		ctx = logger.WithOrderID(ctx, view.OrderID)
	}
	return ctx
}
