package postal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	apperrors "github.com/utafrali/EcommerceGo/storefront/pkg/errors"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
)

// ServiceName identifies the postal lookup service in errors and metrics.
const ServiceName = "viacep"

// CircuitOpenFallback answers lookups while the breaker is open.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("postal code lookup is temporarily unavailable, fill in the address by hand")
}

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client resolves Brazilian postal codes (CEP) through a ViaCEP-compatible
// endpoint: GET {base}/{cep}/json/.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a lookup client rooted at baseURL, e.g.
// "https://viacep.com.br/ws".
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type viaCEPResponse struct {
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Erro         any    `json:"erro"`
}

// unknown reports the "erro" flag, which ViaCEP has sent both as a boolean
// and as the string "true".
func (r viaCEPResponse) unknown() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

// Lookup resolves an eight digit postal code. Unknown codes return an error
// wrapping apperrors.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, postalCode string) (domain.ResolvedAddress, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(postalCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return domain.ResolvedAddress{}, fmt.Errorf("create postal lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return domain.ResolvedAddress{}, fmt.Errorf("call %s: %w", ServiceName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ResolvedAddress{}, httpclient.ParseResponseError(resp, ServiceName)
	}
	defer resp.Body.Close()

	var out viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ResolvedAddress{}, fmt.Errorf("decode %s response: %w", ServiceName, err)
	}
	if out.unknown() {
		return domain.ResolvedAddress{}, apperrors.NotFound("postal code", postalCode)
	}

	c.logger.DebugContext(ctx, "postal code resolved",
		slog.String("postal_code", postalCode),
		slog.String("city", out.City),
	)

	return domain.ResolvedAddress{
		Street:       out.Street,
		Neighborhood: out.Neighborhood,
		City:         out.City,
		State:        out.State,
	}, nil
}

// Ping checks that the lookup service answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Lookup(ctx, "01001000")
	return err
}
