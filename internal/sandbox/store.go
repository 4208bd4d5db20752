package sandbox

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
)

// Demo account seeded into every store so the CLI works out of the box.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo1234"
)

type customerRecord struct {
	domain.Customer
	password string
}

// Store is the in-memory state of the sandbox API. All ids are decimal
// integers rendered as strings, like the real service's numeric keys.
type Store struct {
	mu sync.RWMutex

	products  map[string]domain.Product
	customers map[string]*customerRecord
	byEmail   map[string]string
	tokens    map[string]string
	orders    map[string]*domain.Order
	itemOrder map[string]string
	// reserved counts units held by line items of unpaid orders.
	reserved map[string]int
	// replays maps an Idempotency-Key to the id created under it.
	replays map[string]string

	nextCustomer int64
	nextOrder    int64
	nextItem     int64
	now          func() time.Time
}

// NewStore creates a store seeded with the demo catalog and account.
func NewStore() *Store {
	s := &Store{
		products:  make(map[string]domain.Product),
		reserved:  make(map[string]int),
		customers: make(map[string]*customerRecord),
		byEmail:   make(map[string]string),
		tokens:    make(map[string]string),
		orders:    make(map[string]*domain.Order),
		itemOrder: make(map[string]string),
		replays:   make(map[string]string),
		now:       time.Now,
	}
	for _, p := range seedCatalog() {
		s.products[p.ID] = p
	}
	_, _ = s.Register(domain.Registration{
		Name:     "Demo Customer",
		Email:    DemoEmail,
		Password: DemoPassword,
		Phone:    "+55 11 99999-0000",
	})
	return s
}

func seedCatalog() []domain.Product {
	return []domain.Product{
		{ID: "1", Name: "Ceramic Mug", Description: "350ml stoneware mug", Price: 1500, Stock: 40},
		{ID: "2", Name: "Ballpoint Pen", Description: "Blue ink, medium tip", Price: 250, Stock: 500},
		{ID: "3", Name: "Notebook", Description: "A5 dotted, 120 pages", Price: 2490, Stock: 75},
		{ID: "4", Name: "Desk Lamp", Description: "LED, adjustable arm", Price: 8990, Stock: 12},
		{ID: "5", Name: "Tote Bag", Description: "Cotton canvas", Price: 3200, Stock: 0},
	}
}

// Products returns the catalog ordered by id. Stock is what remains after
// the units held by unpaid orders.
func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		p.Stock = s.available(p)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return numericLess(out[i].ID, out[j].ID) })
	return out
}

// Register creates a customer account and returns its id.
func (s *Store) Register(reg domain.Registration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(reg.Email))
	if _, ok := s.byEmail[email]; ok {
		return "", apperrors.AlreadyExists("customer", "email", email)
	}

	s.nextCustomer++
	id := strconv.FormatInt(s.nextCustomer, 10)
	s.customers[id] = &customerRecord{
		Customer: domain.Customer{
			ID:        id,
			Name:      reg.Name,
			Email:     email,
			Phone:     reg.Phone,
			CreatedAt: s.now().UTC().Format("2006-01-02"),
		},
		password: reg.Password,
	}
	s.byEmail[email] = id
	return id, nil
}

// SignIn checks the credentials and issues a new opaque token.
func (s *Store) SignIn(creds domain.Credentials) (token, customerID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok || s.customers[id].password != creds.Password {
		return "", "", apperrors.Unauthorized("invalid email or password")
	}
	token = "Bearer " + uuid.NewString()
	s.tokens[token] = id
	return token, id, nil
}

// KnowsEmail reports whether an account exists for email.
func (s *Store) KnowsEmail(email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// ResolveToken returns the customer a token was issued to.
func (s *Store) ResolveToken(token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	if !ok {
		return "", apperrors.Unauthorized("unknown token")
	}
	return id, nil
}

// Customer returns the profile of customerID.
func (s *Store) Customer(customerID string) (domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.customers[customerID]
	if !ok {
		return domain.Customer{}, apperrors.NotFound("customer", customerID)
	}
	return rec.Customer, nil
}

// CreateOrder opens an order for customerID. A repeated idempotency key
// returns the order created the first time.
func (s *Store) CreateOrder(customerID, idempotencyKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.replay("order", idempotencyKey); ok {
		return id, nil
	}
	if _, ok := s.customers[customerID]; !ok {
		return "", apperrors.NotFound("customer", customerID)
	}

	s.nextOrder++
	id := strconv.FormatInt(s.nextOrder, 10)
	s.orders[id] = &domain.Order{
		ID:         id,
		CustomerID: customerID,
		Status:     domain.OrderStatusOpen,
		Items:      []domain.LineItem{},
	}
	s.remember("order", idempotencyKey, id)
	return id, nil
}

// Order returns a copy of an order owned by customerID. Orders of other
// customers are reported as missing.
func (s *Store) Order(customerID, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, err := s.ownedOrder(customerID, orderID)
	if err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

// OrdersByCustomer lists every order of customerID ordered by id.
func (s *Store) OrdersByCustomer(customerID string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Order, 0)
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return numericLess(out[i].ID, out[j].ID) })
	return out
}

// AttachItem adds quantity units of productID to an open order as a new
// line item and reserves them until the item is deleted or the order paid.
func (s *Store) AttachItem(customerID, orderID, productID string, quantity int, idempotencyKey string) (domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if itemID, ok := s.replay("item", idempotencyKey); ok {
		if o, err := s.ownedOrder(customerID, s.itemOrder[itemID]); err == nil {
			if i := o.IndexOf(itemID); i >= 0 {
				return o.Items[i], nil
			}
		}
	}

	if quantity < 1 {
		return domain.LineItem{}, apperrors.InvalidInput("quantity must be at least 1")
	}
	o, err := s.ownedOrder(customerID, orderID)
	if err != nil {
		return domain.LineItem{}, err
	}
	if o.Status != domain.OrderStatusOpen {
		return domain.LineItem{}, apperrors.Conflict(fmt.Sprintf("order %s is %s and no longer accepts items", orderID, o.Status))
	}
	product, ok := s.products[productID]
	if !ok {
		return domain.LineItem{}, apperrors.NotFound("product", productID)
	}
	if left := s.available(product); left < quantity {
		return domain.LineItem{}, apperrors.Conflict(fmt.Sprintf("only %d unit(s) of %s in stock", left, product.Name))
	}
	s.reserved[productID] += quantity

	s.nextItem++
	item := domain.LineItem{
		ID:        strconv.FormatInt(s.nextItem, 10),
		Product:   product,
		Quantity:  quantity,
		UnitPrice: product.Price,
	}
	item.Total = item.ComputedTotal()
	o.Items = append(o.Items, item)
	o.Total = o.ItemsTotal()
	s.itemOrder[item.ID] = o.ID
	s.remember("item", idempotencyKey, item.ID)
	return item, nil
}

// DeleteItem removes a line item from its open order.
func (s *Store) DeleteItem(customerID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID, ok := s.itemOrder[itemID]
	if !ok {
		return apperrors.NotFound("item", itemID)
	}
	o, err := s.ownedOrder(customerID, orderID)
	if err != nil {
		return apperrors.NotFound("item", itemID)
	}
	if o.Status != domain.OrderStatusOpen {
		return apperrors.Conflict(fmt.Sprintf("order %s is %s and can no longer be edited", orderID, o.Status))
	}
	i := o.IndexOf(itemID)
	s.reserved[o.Items[i].Product.ID] -= o.Items[i].Quantity
	o.Items = append(o.Items[:i], o.Items[i+1:]...)
	o.Total = o.ItemsTotal()
	delete(s.itemOrder, itemID)
	return nil
}

// Finalize closes an open, non-empty order and records where it ships.
func (s *Store) Finalize(customerID, orderID, deliveryAddress string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.ownedOrder(customerID, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case o.Status != domain.OrderStatusOpen:
		return nil, apperrors.Conflict(fmt.Sprintf("order %s is already %s", orderID, o.Status))
	case len(o.Items) == 0:
		return nil, apperrors.InvalidInput("an empty order cannot be finalized")
	case strings.TrimSpace(deliveryAddress) == "":
		return nil, apperrors.InvalidInput("delivery_address is required")
	}
	o.Status = domain.OrderStatusFinalized
	o.DeliveryAddress = deliveryAddress
	return o.Clone(), nil
}

// CompletePayment marks a finalized order as paid and takes its reserved
// units out of stock.
func (s *Store) CompletePayment(customerID, orderID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.ownedOrder(customerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderStatusFinalized {
		return nil, apperrors.Conflict(fmt.Sprintf("order %s is %s; only finalized orders can be paid", orderID, o.Status))
	}
	for _, item := range o.Items {
		p := s.products[item.Product.ID]
		p.Stock -= item.Quantity
		s.products[p.ID] = p
		s.reserved[p.ID] -= item.Quantity
	}
	o.Status = domain.OrderStatusPaid
	return o.Clone(), nil
}

func (s *Store) available(p domain.Product) int {
	return p.Stock - s.reserved[p.ID]
}

func (s *Store) ownedOrder(customerID, orderID string) (*domain.Order, error) {
	o, ok := s.orders[orderID]
	if !ok || o.CustomerID != customerID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return o, nil
}

func (s *Store) replay(scope, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	id, ok := s.replays[scope+":"+key]
	return id, ok
}

func (s *Store) remember(scope, key, id string) {
	if key != "" {
		s.replays[scope+":"+key] = id
	}
}

func numericLess(a, b string) bool {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return x < y
}
