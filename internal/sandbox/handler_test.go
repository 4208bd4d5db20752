package sandbox

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type apiHarness struct {
	store  *Store
	router http.Handler
}

func newHarness() *apiHarness {
	store := NewStore()
	return &apiHarness{
		store:  store,
		router: NewRouter(store, health.NewHandler(), testLogger()),
	}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, BasePath+path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	envelope, ok := decodeBody(t, rec)["error"].(map[string]any)
	require.True(t, ok, "response carried no error envelope: %s", rec.Body.String())
	code, _ := envelope["code"].(string)
	return code
}

func TestListProducts_IsPublic(t *testing.T) {
	h := newHarness()

	rec := h.do(t, http.MethodGet, "/products", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var products []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 5)
	assert.Equal(t, float64(1), products[0]["id"])
	assert.Equal(t, "Ceramic Mug", products[0]["name"])
	assert.Equal(t, float64(1500), products[0]["price"])
	assert.Equal(t, float64(40), products[0]["stock_quantity"])
}

func TestSignIn(t *testing.T) {
	h := newHarness()

	rec := h.do(t, http.MethodPost, "/costumers/sign-in", "", map[string]string{"email": DemoEmail, "pass": DemoPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["access_token"], "Bearer ")
	assert.Equal(t, float64(1), body["id"])

	rec = h.do(t, http.MethodPost, "/costumers/sign-in", "", map[string]string{"email": DemoEmail, "pass": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(t, http.MethodPost, "/costumers/sign-in", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
}

func TestOrderRoutes_RequireToken(t *testing.T) {
	h := newHarness()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/orders/create"},
		{http.MethodGet, "/orders/order/1"},
		{http.MethodPost, "/orders/items/create"},
		{http.MethodDelete, "/orders/items/1/delete"},
		{http.MethodPost, "/orders/1/finalize"},
		{http.MethodPut, "/orders/1/complete-payment"},
		{http.MethodGet, "/orders/costumer/1"},
		{http.MethodGet, "/costumers/1"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := h.do(t, tt.method, tt.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = h.do(t, tt.method, tt.path, "Bearer forged", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestCreateOrder_OnlyForSignedInCustomer(t *testing.T) {
	h := newHarness()
	token, customerID := signedIn(t, h.store)

	rec := h.do(t, http.MethodPost, "/orders/create", token, map[string]any{"id_costumer": 999})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPost, "/orders/create", token, map[string]any{"id_costumer": customerID})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["id_order"])
}

func TestOrderFlowOverHTTP(t *testing.T) {
	h := newHarness()
	token, customerID := signedIn(t, h.store)
	orderID, err := h.store.CreateOrder(customerID, "")
	require.NoError(t, err)

	rec := h.do(t, http.MethodPost, "/orders/items/create", token, map[string]any{
		"quantity": 3, "id_order": orderID, "id_product": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decodeBody(t, rec)
	assert.Equal(t, float64(3), item["quantity"])
	assert.Equal(t, float64(750), item["total"])
	assert.NotNil(t, item["idOrderCostumer"])

	rec = h.do(t, http.MethodGet, "/orders/order/"+orderID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "open", orders[0]["status"])
	assert.Equal(t, float64(750), orders[0]["value_total"])

	rec = h.do(t, http.MethodPost, "/orders/"+orderID+"/finalize", token, map[string]any{"id_order": orderID})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "delivery address is required")

	rec = h.do(t, http.MethodPost, "/orders/"+orderID+"/finalize", token, map[string]any{
		"id_order": orderID, "delivery_address": "Rua X, 10 - , Centro, Springfield - SP",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "finalized", decodeBody(t, rec)["status"])

	rec = h.do(t, http.MethodPost, "/orders/items/create", token, map[string]any{
		"quantity": 1, "id_order": orderID, "id_product": 1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPut, "/orders/"+orderID+"/complete-payment", token, map[string]any{"id_order": orderID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", decodeBody(t, rec)["status"])

	rec = h.do(t, http.MethodGet, "/orders/costumer/"+customerID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)
}

func TestDeleteItem(t *testing.T) {
	h := newHarness()
	token, customerID := signedIn(t, h.store)
	orderID, err := h.store.CreateOrder(customerID, "")
	require.NoError(t, err)
	item, err := h.store.AttachItem(customerID, orderID, "1", 1, "")
	require.NoError(t, err)

	rec := h.do(t, http.MethodDelete, "/orders/items/"+item.ID+"/delete", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(t, http.MethodDelete, "/orders/items/"+item.ID+"/delete", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(t, http.MethodDelete, "/orders/items/abc/delete", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
}

func TestGetCustomer_OtherCustomerIsForbidden(t *testing.T) {
	h := newHarness()
	token, customerID := signedIn(t, h.store)

	rec := h.do(t, http.MethodGet, "/costumers/"+customerID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Demo Customer", body["name"])
	assert.Equal(t, DemoEmail, body["email"])
	assert.NotEmpty(t, body["create_at"])

	rec = h.do(t, http.MethodGet, "/costumers/42", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterAndForgotPassword(t *testing.T) {
	h := newHarness()
	reg := map[string]string{"name": "Ana", "email": "ana@example.com", "pass": "secret1", "phone": "+55 11 1234"}

	rec := h.do(t, http.MethodPost, "/costumers/create", "", reg)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ana@example.com", decodeBody(t, rec)["email"])

	rec = h.do(t, http.MethodPost, "/costumers/create", "", reg)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPost, "/costumers/forgot-password", "", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = h.do(t, http.MethodPost, "/costumers/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	h := newHarness()

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
