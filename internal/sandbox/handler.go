package sandbox

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/EcommerceGo/storefront/internal/commerce"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httputil"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
	"github.com/utafrali/EcommerceGo/storefront/pkg/validator"
)

// Handler serves the e-commerce API endpoints from a Store.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a new sandbox API handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger,
	}
}

// --- Request DTOs ---

type createOrderRequest struct {
	CustomerID commerce.ID `json:"id_costumer" validate:"required"`
}

type attachItemRequest struct {
	Quantity  int         `json:"quantity" validate:"gte=1"`
	OrderID   commerce.ID `json:"id_order" validate:"required"`
	ProductID commerce.ID `json:"id_product" validate:"required"`
}

type finalizeRequest struct {
	OrderID         commerce.ID `json:"id_order"`
	DeliveryAddress string      `json:"delivery_address" validate:"required,max=500"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// --- Handlers ---

// ListProducts handles GET /products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.store.Products()
	out := make([]any, 0, len(products))
	for _, p := range products {
		out = append(out, commerce.ProductToJSON(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// SignIn handles POST /costumers/sign-in
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	token, customerID, err := h.store.SignIn(req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, commerce.SignInResponse{
		AccessToken: token,
		ID:          commerce.ID(customerID),
	})
}

// Register handles POST /costumers/create
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.Registration
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	id, err := h.store.Register(req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	customer, err := h.store.Customer(id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, commerce.CustomerToJSON(customer))
}

// ForgotPassword handles POST /costumers/forgot-password. Unknown addresses
// get the same answer as known ones.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if h.store.KnowsEmail(req.Email) {
		h.logger.InfoContext(r.Context(), "password reset requested",
			slog.String("email", req.Email),
		)
	}
	w.WriteHeader(http.StatusAccepted)
}

// GetCustomer handles GET /costumers/{id}
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownCustomerID(w, r)
	if !ok {
		return
	}

	customer, err := h.store.Customer(customerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, commerce.CustomerToJSON(customer))
}

// ListCustomerOrders handles GET /orders/costumer/{id}
func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID, ok := h.ownCustomerID(w, r)
	if !ok {
		return
	}

	orders := h.store.OrdersByCustomer(customerID)
	out := make([]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, commerce.OrderToJSON(o))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// CreateOrder handles POST /orders/create
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	customerID := middleware.CustomerIDFromContext(r.Context())
	if string(req.CustomerID) != customerID {
		httputil.WriteError(w, r, apperrors.Forbidden("orders can only be opened for the signed-in customer"), h.logger)
		return
	}

	orderID, err := h.store.CreateOrder(customerID, r.Header.Get(httpclient.HeaderIdempotencyKey))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "order created",
		slog.String("order_id", orderID),
		slog.String("customer_id", customerID),
	)
	httputil.WriteJSON(w, http.StatusCreated, commerce.CreateOrderResponse{OrderID: commerce.ID(orderID)})
}

// GetOrder handles GET /orders/order/{id}. The order comes back wrapped in a
// one-element list.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.store.Order(middleware.CustomerIDFromContext(r.Context()), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, []any{commerce.OrderToJSON(order)})
}

// AttachItem handles POST /orders/items/create
func (h *Handler) AttachItem(w http.ResponseWriter, r *http.Request) {
	var req attachItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	item, err := h.store.AttachItem(
		middleware.CustomerIDFromContext(r.Context()),
		string(req.OrderID),
		string(req.ProductID),
		req.Quantity,
		r.Header.Get(httpclient.HeaderIdempotencyKey),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, commerce.LineItemToJSON(item))
}

// DeleteItem handles DELETE /orders/items/{id}/delete
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteItem(middleware.CustomerIDFromContext(r.Context()), itemID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FinalizeOrder handles POST /orders/{id}/finalize
func (h *Handler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req finalizeRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.OrderID != "" && string(req.OrderID) != orderID {
		httputil.WriteError(w, r, apperrors.InvalidInput("id_order does not match the path"), h.logger)
		return
	}

	order, err := h.store.Finalize(middleware.CustomerIDFromContext(r.Context()), orderID, req.DeliveryAddress)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "order finalized",
		slog.String("order_id", orderID),
		slog.Int64("value_total", order.Total),
	)
	httputil.WriteJSON(w, http.StatusOK, commerce.OrderToJSON(order))
}

// CompletePayment handles PUT /orders/{id}/complete-payment
func (h *Handler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.store.CompletePayment(middleware.CustomerIDFromContext(r.Context()), orderID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "order paid", slog.String("order_id", orderID))
	httputil.WriteJSON(w, http.StatusOK, commerce.OrderToJSON(order))
}

// ownCustomerID reads the {id} path parameter and checks it against the
// token's customer.
func (h *Handler) ownCustomerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	customerID, ok := pathID(w, r)
	if !ok {
		return "", false
	}
	if customerID != middleware.CustomerIDFromContext(r.Context()) {
		httputil.WriteError(w, r, apperrors.Forbidden("access to another customer's data"), h.logger)
		return "", false
	}
	return customerID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}
