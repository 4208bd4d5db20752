package sandbox_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/commerce"
	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/payment"
	"github.com/utafrali/EcommerceGo/storefront/internal/postal"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository/memory"
	"github.com/utafrali/EcommerceGo/storefront/internal/sandbox"
	"github.com/utafrali/EcommerceGo/storefront/internal/service"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// stack runs the coordinator against the sandbox API and a canned postal
// lookup service.
type stack struct {
	api     *commerce.Client
	lookup  *postal.Client
	store   repository.SessionStore
	notices []domain.Notice
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := quietLogger()

	api := httptest.NewServer(sandbox.NewRouter(sandbox.NewStore(), health.NewHandler(), logger))
	t.Cleanup(api.Close)

	viacep := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/01001000/json/" {
			_, _ = io.WriteString(w, `{"erro": true}`)
			return
		}
		_, _ = io.WriteString(w, `{"logradouro":"Rua X","bairro":"Centro","localidade":"Springfield","uf":"SP"}`)
	}))
	t.Cleanup(viacep.Close)

	doer := httpclient.New(httpclient.DefaultConfig())
	return &stack{
		api:    commerce.NewClient(doer, api.URL+sandbox.BasePath, logger),
		lookup: postal.NewClient(doer, viacep.URL, logger),
		store:  memory.NewSessionStore(),
	}
}

// coordinator builds a fresh coordinator over the shared session store, the
// way each CLI invocation does.
func (s *stack) coordinator() *service.Coordinator {
	notify := service.NotifierFunc(func(_ context.Context, n domain.Notice) {
		s.notices = append(s.notices, n)
	})
	return service.NewCoordinator(
		s.store, s.api, s.lookup,
		payment.NewGenerator(payment.DefaultTarget, payment.DefaultSize),
		nil, notify, quietLogger(), config.DefaultTimeouts(),
	)
}

func productByName(t *testing.T, products []domain.Product, name string) domain.Product {
	t.Helper()
	for _, p := range products {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("product %q not in catalog", name)
	return domain.Product{}
}

func TestEndToEnd_PurchaseCycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	c := s.coordinator()

	_, err := c.Login(ctx, domain.Credentials{Email: sandbox.DemoEmail, Password: sandbox.DemoPassword})
	require.NoError(t, err)

	products, err := c.Products(ctx)
	require.NoError(t, err)
	mug := productByName(t, products, "Ceramic Mug")
	pen := productByName(t, products, "Ballpoint Pen")

	order, err := c.AddItem(ctx, mug, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.StateOrderOpen, c.State())
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(3000), order.Items[0].Total)

	order, err = c.AddItem(ctx, pen, 0)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[1].Quantity, "quantity is clamped to one")
	assert.Equal(t, int64(3250), order.DisplayTotal())

	order, err = c.RemoveItem(ctx, order.Items[1].ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(3000), order.DisplayTotal())

	form, resolved, err := c.LookupAddress(ctx, "01001000")
	require.NoError(t, err)
	require.True(t, resolved)
	assert.Equal(t, "Rua X", form.Address.Street)

	c.SetAddressDetails("10", "")
	art, err := c.SubmitCheckout(ctx)
	require.NoError(t, err)
	require.NotNil(t, art)
	assert.NotEmpty(t, art.PNG)
	assert.Equal(t, domain.StateFinalized, c.State())

	history, err := c.OrderHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Rua X, 10 - , Centro, Springfield - SP", history[0].DeliveryAddress)

	route, err := c.ConfirmPayment(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteCatalog, route)
	assert.Equal(t, domain.StateNoOrder, c.State())

	view, err := s.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, view.HasIdentity())
	assert.False(t, view.HasOrder())

	history, err = c.OrderHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusPaid, history[0].Status)
}

func TestEndToEnd_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	first := s.coordinator()
	_, err := first.Login(ctx, domain.Credentials{Email: sandbox.DemoEmail, Password: sandbox.DemoPassword})
	require.NoError(t, err)
	products, err := first.Products(ctx)
	require.NoError(t, err)
	order, err := first.AddItem(ctx, productByName(t, products, "Notebook"), 1)
	require.NoError(t, err)

	second := s.coordinator()
	cart, err := second.LoadCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ID, cart.ID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Notebook", cart.Items[0].Product.Name)

	cart, err = second.AddItem(ctx, productByName(t, products, "Ballpoint Pen"), 2)
	require.NoError(t, err)
	assert.Equal(t, order.ID, cart.ID)
	assert.Len(t, cart.Items, 2)
}

func TestEndToEnd_ConflictsSurfaceAsSessionErrors(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	c := s.coordinator()

	_, err := c.Login(ctx, domain.Credentials{Email: sandbox.DemoEmail, Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrLoginFailed)

	_, err = c.Login(ctx, domain.Credentials{Email: sandbox.DemoEmail, Password: sandbox.DemoPassword})
	require.NoError(t, err)

	products, err := c.Products(ctx)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, productByName(t, products, "Tote Bag"), 1)
	assert.ErrorIs(t, err, domain.ErrItemAttachFailed, "out of stock")
	assert.Equal(t, domain.NoticeError, s.notices[len(s.notices)-1].Level)

	_, err = c.FinalizeOrder(ctx, domain.Address{
		Street: "Rua X", Number: "10", Neighborhood: "Centro", City: "Springfield", State: "SP",
	})
	assert.ErrorIs(t, err, domain.ErrFinalizeFailed, "an empty order cannot be finalized")

	_, _, err = c.LookupAddress(ctx, "99999999")
	assert.ErrorIs(t, err, domain.ErrAddressLookupFailed)

	require.NoError(t, c.Logout(ctx))
	_, err = c.AddItem(ctx, productByName(t, products, "Ceramic Mug"), 1)
	assert.ErrorIs(t, err, domain.ErrAuthenticationRequired)
}
