package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/payment"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository/memory"
)

// --- Mock Order Service ---

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) CreateOrder(ctx context.Context, token, customerID string) (string, error) {
	args := m.Called(ctx, token, customerID)
	return args.String(0), args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	args := m.Called(ctx, token, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order).Clone(), args.Error(1)
}

func (m *mockOrderService) AttachItem(ctx context.Context, token, orderID, productID string, quantity int) (*domain.LineItem, error) {
	args := m.Called(ctx, token, orderID, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	item := *args.Get(0).(*domain.LineItem)
	return &item, args.Error(1)
}

func (m *mockOrderService) DeleteItem(ctx context.Context, token, itemID string) error {
	return m.Called(ctx, token, itemID).Error(0)
}

func (m *mockOrderService) FinalizeOrder(ctx context.Context, token, orderID, deliveryAddress string) error {
	return m.Called(ctx, token, orderID, deliveryAddress).Error(0)
}

func (m *mockOrderService) CompletePayment(ctx context.Context, token, orderID string) error {
	return m.Called(ctx, token, orderID).Error(0)
}

func (m *mockOrderService) GetCustomer(ctx context.Context, token, customerID string) (*domain.Customer, error) {
	args := m.Called(ctx, token, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}

func (m *mockOrderService) ListCustomerOrders(ctx context.Context, token, customerID string) ([]*domain.Order, error) {
	args := m.Called(ctx, token, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *mockOrderService) SignIn(ctx context.Context, creds domain.Credentials) (domain.SessionView, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(domain.SessionView), args.Error(1)
}

func (m *mockOrderService) Register(ctx context.Context, reg domain.Registration) error {
	return m.Called(ctx, reg).Error(0)
}

func (m *mockOrderService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

// --- Mock Address Lookup ---

type mockAddressLookup struct {
	mock.Mock
}

func (m *mockAddressLookup) Lookup(ctx context.Context, postalCode string) (domain.ResolvedAddress, error) {
	args := m.Called(ctx, postalCode)
	return args.Get(0).(domain.ResolvedAddress), args.Error(1)
}

// --- Recording Notifier ---

type noticeRecorder struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (r *noticeRecorder) Notify(_ context.Context, n domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *noticeRecorder) last() domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return domain.Notice{}
	}
	return r.notices[len(r.notices)-1]
}

// --- Recording Publisher ---

type publisherRecorder struct {
	mu     sync.Mutex
	events []string
}

func (p *publisherRecorder) add(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
	return nil
}

func (p *publisherRecorder) OrderCreated(context.Context, string, string) error {
	return p.add("order_created")
}

func (p *publisherRecorder) ItemAdded(context.Context, string, domain.LineItem) error {
	return p.add("item_added")
}

func (p *publisherRecorder) ItemRemoved(context.Context, string, string) error {
	return p.add("item_removed")
}

func (p *publisherRecorder) OrderFinalized(context.Context, *domain.Order) error {
	return p.add("order_finalized")
}

func (p *publisherRecorder) OrderPaid(context.Context, string, string) error {
	return p.add("order_paid")
}

func (p *publisherRecorder) LoggedOut(context.Context, string) error {
	return p.add("logged_out")
}

// --- Test Helpers ---

const (
	testCustomerID = "7"
	testToken      = "Bearer tok-7"
)

type fixture struct {
	coord   *Coordinator
	store   *memory.SessionStore
	orders  *mockOrderService
	postal  *mockAddressLookup
	events  *publisherRecorder
	notices *noticeRecorder
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewSessionStore(),
		orders:  &mockOrderService{},
		postal:  &mockAddressLookup{},
		events:  &publisherRecorder{},
		notices: &noticeRecorder{},
	}
	f.coord = NewCoordinator(
		f.store,
		f.orders,
		f.postal,
		payment.NewGenerator(payment.DefaultTarget, 64),
		f.events,
		f.notices,
		newTestLogger(),
		config.DefaultTimeouts(),
	)
	t.Cleanup(func() {
		f.orders.AssertExpectations(t)
		f.postal.AssertExpectations(t)
	})
	return f
}

// loggedIn persists an identity and, when orderID is set, an order id.
func (f *fixture) loggedIn(t *testing.T, orderID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.SaveIdentity(ctx, testCustomerID, testToken))
	if orderID != "" {
		require.NoError(t, f.store.SaveOrderID(ctx, orderID))
	}
}

func (f *fixture) persisted(t *testing.T) domain.SessionView {
	t.Helper()
	view, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return view
}

func mug() domain.Product {
	return domain.Product{ID: "3", Name: "Mug", Description: "Blue", Price: 1500, Stock: 10}
}

func pen() domain.Product {
	return domain.Product{ID: "4", Name: "Pen", Price: 250, Stock: 100}
}

func openOrder(id string, items ...domain.LineItem) *domain.Order {
	if items == nil {
		items = []domain.LineItem{}
	}
	return &domain.Order{ID: id, CustomerID: testCustomerID, Status: domain.OrderStatusOpen, Items: items}
}

func lineItem(id string, p domain.Product, qty int) domain.LineItem {
	return domain.LineItem{ID: id, Product: p, Quantity: qty, UnitPrice: p.Price, Total: int64(qty) * p.Price}
}
