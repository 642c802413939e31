package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"telegram-pizza-shop/internal/config"
	"telegram-pizza-shop/internal/domain"
	"telegram-pizza-shop/internal/domain/ports/adapter"
	"telegram-pizza-shop/internal/infra/metrics"
)

var _ adapter.CommerceGateway = (*Client)(nil)

// Client talks to an Elastic Path-style headless commerce API. All calls are
// context-aware and fail fast through the underlying HTTP client's timeout.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	currency     string
	client       *http.Client
	now          func() time.Time
}

func New(cfg config.CommerceConfig) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		currency:     cfg.Currency,
		client:       &http.Client{Timeout: 15 * time.Second},
		now:          time.Now,
	}
}

// IssueToken requests a client-credentials token. The response may report
// either an absolute expiry or seconds-to-expiry; both normalize to absolute.
func (c *Client) IssueToken(ctx context.Context) (adapter.AccessToken, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return adapter.AccessToken{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.BackendCall("issue_token", false)
		return adapter.AccessToken{}, fmt.Errorf("%w: issue token: %v", domain.ErrBackendCall, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		metrics.BackendCall("issue_token", false)
		return adapter.AccessToken{}, fmt.Errorf("%w: issue token: status %d", domain.ErrBackendCall, resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		Expires     int64  `json:"expires"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		metrics.BackendCall("issue_token", false)
		return adapter.AccessToken{}, fmt.Errorf("%w: issue token: %v", domain.ErrBackendCall, err)
	}
	metrics.BackendCall("issue_token", true)

	expiresAt := out.Expires
	if expiresAt == 0 {
		expiresAt = c.now().Unix() + out.ExpiresIn
	}
	return adapter.AccessToken{Token: out.AccessToken, ExpiresAt: expiresAt}, nil
}

// do performs one authenticated JSON call and decodes the response into out
// when non-nil. Non-2xx responses map to domain.ErrBackendCall.
func (c *Client) do(ctx context.Context, op, method, rawURL, token string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.currency != "" {
		req.Header.Set("X-MOLTIN-CURRENCY", c.currency)
	}
	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.BackendCall(op, false)
		return fmt.Errorf("%w: %s: %v", domain.ErrBackendCall, op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		metrics.BackendCall(op, false)
		return fmt.Errorf("%w: %s: status %d", domain.ErrBackendCall, op, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			metrics.BackendCall(op, false)
			return fmt.Errorf("%w: %s: decode: %v", domain.ErrBackendCall, op, err)
		}
	}
	metrics.BackendCall(op, true)
	return nil
}

func (c *Client) endpoint(path string) string { return c.baseURL + path }

// slugify produces a URL-safe slug from a product or flow name.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
