package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/sandbox"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type harness struct {
	cfg *config.Config
	api *httptest.Server

	// creates counts order-creation requests that reached the API.
	creates atomic.Int32
}

// newHarness points the CLI at a sandbox API, a canned postal service and a
// miniredis session store so state carries over between invocations.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	router := sandbox.NewRouter(sandbox.NewStore(), health.NewHandler(), testLogger())
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/orders/create") {
			h.creates.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)
	viacep := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"logradouro":"Praça da Sé","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`)
	}))
	t.Cleanup(viacep.Close)
	mr := miniredis.RunT(t)

	cfg, err := config.LoadFrom(map[string]string{
		"STOREFRONT_API_BASE_URL":      api.URL + sandbox.BasePath,
		"STOREFRONT_POSTAL_BASE_URL":   viacep.URL,
		"STOREFRONT_SESSION_BACKEND":   config.BackendRedis,
		"STOREFRONT_SESSION_NAMESPACE": "cli-test",
		"REDIS_ADDR":                   mr.Addr(),
		"HTTP_MAX_RETRIES":             "0",
	})
	require.NoError(t, err)
	h.cfg, h.api = cfg, api
	return h
}

// run executes one storefront invocation and returns its combined output.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := NewRootCommand(h.cfg, testLogger())
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.mustRun(t, "login", "--email", sandbox.DemoEmail, "--password", sandbox.DemoPassword)
}

func TestCLI_PurchaseAcrossInvocations(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "login", "--email", sandbox.DemoEmail, "--password", sandbox.DemoPassword)
	assert.Contains(t, out, "[ok] Login successful.")

	out = h.mustRun(t, "whoami")
	assert.Contains(t, out, "Customer: 1")
	assert.Contains(t, out, "Order:    none")
	assert.Contains(t, out, "State:    no_order")

	out = h.mustRun(t, "products")
	assert.Contains(t, out, "Ceramic Mug")
	assert.Contains(t, out, "15.00")

	out = h.mustRun(t, "cart", "add", "1", "-q", "2")
	assert.Contains(t, out, "Ceramic Mug was added to your cart with 2 unit(s).")
	assert.Contains(t, out, "Total: 30.00")

	out = h.mustRun(t, "cart", "add", "2")
	assert.Contains(t, out, "Total: 32.50")

	out = h.mustRun(t, "cart", "remove", "2")
	assert.Contains(t, out, "Ballpoint Pen was removed from your cart.")
	assert.Contains(t, out, "Total: 30.00")

	out = h.mustRun(t, "cart", "show")
	assert.Contains(t, out, "Order #1 (open)")
	assert.NotContains(t, out, "Ballpoint Pen")

	qr := filepath.Join(t.TempDir(), "pay.png")
	out = h.mustRun(t, "checkout", "--cep", "01001-000", "--number", "10", "--qr-out", qr)
	assert.Contains(t, out, "Order finalized.")
	assert.Contains(t, out, "Deliver to: Praça da Sé, 10 - , Sé, São Paulo - SP")
	assert.Contains(t, out, "Run `storefront pay`")
	info, err := os.Stat(qr)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	out = h.mustRun(t, "payment-code")
	assert.Contains(t, out, "Scan to pay (https://www.example.com/pix-payment)")

	out = h.mustRun(t, "pay")
	assert.Contains(t, out, "Payment confirmed!")

	out = h.mustRun(t, "orders")
	assert.Contains(t, out, "paid")
	assert.Contains(t, out, "30.00")

	out = h.mustRun(t, "whoami")
	assert.Contains(t, out, "Order:    none")
}

func TestCLI_UnknownProduct(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, err := h.run(t, "cart", "add", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no product with id "99"`)
	assert.Equal(t, domain.KindUnknown, domain.KindOf(err))
}

func TestCLI_CheckoutRejectsMalformedPostalCode(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.mustRun(t, "cart", "add", "1")

	_, err := h.run(t, "checkout", "--cep", "123", "--number", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid postal code")

	out := h.mustRun(t, "cart", "show")
	assert.Contains(t, out, "(open)")
}

func TestCLI_PaymentCodeBeforeCheckout(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.mustRun(t, "cart", "add", "1")

	_, err := h.run(t, "payment-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOrderNotFinalized)
}

func TestCLI_PaymentCodeWithoutOrderCreatesNone(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	_, err := h.run(t, "payment-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Zero(t, h.creates.Load())

	out := h.mustRun(t, "whoami")
	assert.Contains(t, out, "Order:    none")
}

func TestCLI_PaymentCodeAfterPaymentCreatesNone(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.mustRun(t, "cart", "add", "1")
	h.mustRun(t, "checkout", "--cep", "01001-000", "--number", "10")
	out := h.mustRun(t, "payment-code")
	assert.Contains(t, out, "Scan to pay")
	h.mustRun(t, "pay")
	require.EqualValues(t, 1, h.creates.Load())

	_, err := h.run(t, "payment-code")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.EqualValues(t, 1, h.creates.Load())

	out = h.mustRun(t, "whoami")
	assert.Contains(t, out, "Order:    none")
}

func TestCLI_LoggedOutCommandsPointToLogin(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	out := h.mustRun(t, "logout")
	assert.Contains(t, out, "You have been logged out.")

	out, err := h.run(t, "cart", "show")
	require.Error(t, err)
	assert.Equal(t, domain.KindAuthenticationRequired, domain.KindOf(err))
	assert.Contains(t, out, "[error] You must be logged in to do that.")
	assert.Contains(t, out, loginHint)

	out = h.mustRun(t, "whoami")
	assert.Contains(t, out, "Not logged in.")
}

func TestCLI_LoginFailure(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "login", "--email", sandbox.DemoEmail, "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, domain.KindLoginFailed, domain.KindOf(err))
	assert.Contains(t, out, "[error] Login failed.")
}

func TestCLI_RegisterAndForgotPassword(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "register",
		"--name", "Ana", "--email", "ana@example.com", "--password", "secret1", "--phone", "+55 11 98888-0000")
	assert.Contains(t, out, "[ok] Account created.")

	out = h.mustRun(t, "login", "--email", "ana@example.com", "--password", "secret1")
	assert.Contains(t, out, "Login successful.")

	out = h.mustRun(t, "profile")
	assert.Contains(t, out, "Name:         Ana")
	assert.Contains(t, out, "Email:        ana@example.com")

	out = h.mustRun(t, "forgot-password", "--email", "ana@example.com")
	assert.Contains(t, out, "Password reset email sent.")
}

func TestCLI_Doctor(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "doctor")
	assert.Contains(t, out, "ecommerce-api")
	assert.Contains(t, out, "viacep")
	assert.Contains(t, out, "up (optional)")
	assert.Contains(t, out, "redis")
	assert.Contains(t, out, "Overall: up")

	h.api.Close()
	out, err := h.run(t, "doctor")
	require.Error(t, err)
	assert.Contains(t, out, "Overall: down")
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetErr(&buf)

	ReportError(cmd, domain.NewError(domain.KindFinalizeFailed, "finalize", nil))
	assert.Empty(t, buf.String())

	ReportError(cmd, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}
