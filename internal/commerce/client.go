package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
	"github.com/utafrali/EcommerceGo/storefront/pkg/tracing"
)

// ServiceName identifies the remote e-commerce API in errors and metrics.
const ServiceName = "ecommerce-api"

// CircuitOpenFallback replaces the raw breaker error with a retry hint.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("the store is temporarily unavailable, please retry in a few seconds")
}

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the remote e-commerce API. Every method takes the bearer
// token exactly as it was issued at sign-in; an empty token sends no
// Authorization header.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates an API client rooted at baseURL, e.g.
// "http://localhost:8080/ecommerce-management/v1".
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// CreateOrder opens a new order for the customer and returns its id.
func (c *Client) CreateOrder(ctx context.Context, token, customerID string) (string, error) {
	var out CreateOrderResponse
	err := c.call(ctx, http.MethodPost, "/orders/create", token,
		CreateOrderRequest{CustomerID: ID(customerID)}, &out, withIdempotencyKey())
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	if out.OrderID == "" {
		return "", fmt.Errorf("create order: response carried no order id")
	}
	return string(out.OrderID), nil
}

// GetOrder fetches an order with its items and status.
func (c *Client) GetOrder(ctx context.Context, token, orderID string) (*domain.Order, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/orders/order/"+url.PathEscape(orderID), token, nil, &raw); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}

	orders, err := decodeOrders(raw)
	if err != nil {
		return nil, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("order", orderID)
	}
	order := orders[0].toDomain()
	if order.ID == "" {
		order.ID = orderID
	}
	return order, nil
}

// AttachItem adds a product to an order. The returned item is nil when the
// service answers without a body.
func (c *Client) AttachItem(ctx context.Context, token, orderID, productID string, quantity int) (*domain.LineItem, error) {
	req := AttachItemRequest{
		Quantity:  quantity,
		OrderID:   ID(orderID),
		ProductID: ID(productID),
	}
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/orders/items/create", token, req, &raw, withIdempotencyKey()); err != nil {
		return nil, fmt.Errorf("attach product %s to order %s: %w", productID, orderID, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var item lineItemJSON
	if err := json.Unmarshal(raw, &item); err != nil {
		c.logger.WarnContext(ctx, "ignoring undecodable attach item response",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	if item.ID == "" {
		return nil, nil
	}
	li := item.toDomain()
	return &li, nil
}

// DeleteItem removes a line item by id.
func (c *Client) DeleteItem(ctx context.Context, token, itemID string) error {
	path := "/orders/items/" + url.PathEscape(itemID) + "/delete"
	if err := c.call(ctx, http.MethodDelete, path, token, nil, nil); err != nil {
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	return nil
}

// FinalizeOrder closes the order for editing and records the delivery address.
func (c *Client) FinalizeOrder(ctx context.Context, token, orderID, deliveryAddress string) error {
	req := FinalizeRequest{OrderID: ID(orderID), DeliveryAddress: deliveryAddress}
	if err := c.call(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderID)+"/finalize", token, req, nil); err != nil {
		return fmt.Errorf("finalize order %s: %w", orderID, err)
	}
	return nil
}

// CompletePayment marks a finalized order as paid.
func (c *Client) CompletePayment(ctx context.Context, token, orderID string) error {
	req := CompletePaymentRequest{OrderID: ID(orderID)}
	if err := c.call(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID)+"/complete-payment", token, req, nil); err != nil {
		return fmt.Errorf("complete payment for order %s: %w", orderID, err)
	}
	return nil
}

// GetCustomer fetches the customer profile.
func (c *Client) GetCustomer(ctx context.Context, token, customerID string) (*domain.Customer, error) {
	var out customerJSON
	if err := c.call(ctx, http.MethodGet, "/costumers/"+url.PathEscape(customerID), token, nil, &out); err != nil {
		return nil, fmt.Errorf("get customer %s: %w", customerID, err)
	}
	customer := out.toDomain()
	if customer.ID == "" {
		customer.ID = customerID
	}
	return &customer, nil
}

// ListCustomerOrders returns every order the customer has placed.
func (c *Client) ListCustomerOrders(ctx context.Context, token, customerID string) ([]*domain.Order, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/orders/costumer/"+url.PathEscape(customerID), token, nil, &raw); err != nil {
		return nil, fmt.Errorf("list orders for customer %s: %w", customerID, err)
	}
	wire, err := decodeOrders(raw)
	if err != nil {
		return nil, fmt.Errorf("decode orders for customer %s: %w", customerID, err)
	}
	orders := make([]*domain.Order, 0, len(wire))
	for _, o := range wire {
		orders = append(orders, o.toDomain())
	}
	return orders, nil
}

// ListProducts returns the product catalog. It needs no token.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var wire []productJSON
	if err := c.call(ctx, http.MethodGet, "/products", "", nil, &wire); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := make([]domain.Product, 0, len(wire))
	for _, p := range wire {
		products = append(products, p.toDomain())
	}
	return products, nil
}

// SignIn exchanges credentials for a bearer token and the customer id.
func (c *Client) SignIn(ctx context.Context, creds domain.Credentials) (domain.SessionView, error) {
	var out SignInResponse
	if err := c.call(ctx, http.MethodPost, "/costumers/sign-in", "", creds, &out); err != nil {
		return domain.SessionView{}, fmt.Errorf("sign in: %w", err)
	}
	if out.AccessToken == "" || out.ID == "" {
		return domain.SessionView{}, fmt.Errorf("sign in: response carried no token or customer id")
	}
	return domain.SessionView{CustomerID: string(out.ID), Token: out.AccessToken}, nil
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, reg domain.Registration) error {
	if err := c.call(ctx, http.MethodPost, "/costumers/create", "", reg, nil); err != nil {
		return fmt.Errorf("register customer: %w", err)
	}
	return nil
}

// ForgotPassword asks the service to send a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	if err := c.call(ctx, http.MethodPost, "/costumers/forgot-password", "", ForgotPasswordRequest{Email: email}, nil); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// Ping checks that the API answers at all. Any HTTP response below 500
// counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", ServiceName, err)
	}
	_ = resp.Body.Close()
	return nil
}

type requestOption func(*http.Request)

func withIdempotencyKey() requestOption {
	return func(r *http.Request) {
		r.Header.Set(httpclient.HeaderIdempotencyKey, uuid.NewString())
	}
}

// call sends one request and decodes a 2xx JSON body into out when out is
// non-nil. Non-2xx responses are returned as *apperrors.AppError.
func (c *Client) call(ctx context.Context, method, path, token string, in, out any, opts ...requestOption) error {
	var body io.Reader = http.NoBody
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(httpclient.HeaderCorrelationID, id)
	}
	tracing.InjectHeaders(ctx, req.Header)
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s: %w", ServiceName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, ServiceName)
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		*raw = b
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeOrders accepts either a list of orders or a single order object.
func decodeOrders(raw json.RawMessage) ([]orderJSON, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '{' {
		var one orderJSON
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		return []orderJSON{one}, nil
	}
	var many []orderJSON
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, err
	}
	return many, nil
}
