package pipedream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/mstolarz/relay"
)

// Interface compliance check.
var _ relay.TokenSource = (*Client)(nil)

// Client exchanges client credentials for bearer tokens at the
// Pipedream token endpoint.
type Client struct {
	creds      relay.Credentials
	httpClient *http.Client
	tokenURL   string
	defaultTTL time.Duration
	now        func() time.Time
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for the exchange.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenURL overrides the token endpoint. Used by tests and as an
// escape hatch should the documented endpoint move.
func WithTokenURL(url string) Option {
	return func(c *Client) { c.tokenURL = url }
}

// WithDefaultTTL sets the lifetime assumed when the response carries
// no expires_in field.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Client) { c.defaultTTL = ttl }
}

// New creates a Client for the given credentials.
func New(creds relay.Credentials, opts ...Option) *Client {
	c := &Client{
		creds:      creds,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokenURL:   DefaultTokenURL,
		defaultTTL: DefaultTTL,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// tokenRequest is the client-credentials grant body. Pipedream accepts
// JSON rather than the form encoding most OAuth endpoints use.
type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// FetchToken performs a single client-credentials exchange and returns
// the resulting token. Missing credentials fail before any network
// call. All failure modes wrap [relay.ErrAuth] and are not retried.
func (c *Client) FetchToken(ctx context.Context) (relay.Token, error) {
	if err := c.creds.Validate(); err != nil {
		return relay.Token{}, err
	}

	body, err := json.Marshal(tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     strings.TrimSpace(c.creds.ClientID),
		ClientSecret: strings.TrimSpace(c.creds.ClientSecret),
	})
	if err != nil {
		return relay.Token{}, fmt.Errorf("pipedream: encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return relay.Token{}, fmt.Errorf("pipedream: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	clog.FromContext(ctx).With("endpoint", c.tokenURL).Debug("fetching access token")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return relay.Token{}, fmt.Errorf("pipedream: token request failed: %v: %w", err, relay.ErrAuth)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return relay.Token{}, fmt.Errorf("pipedream: token endpoint returned %s: %s: %w",
			resp.Status, strings.TrimSpace(string(detail)), relay.ErrAuth)
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return relay.Token{}, fmt.Errorf("pipedream: decode token response: %v: %w", err, relay.ErrAuth)
	}
	if payload.AccessToken == "" {
		return relay.Token{}, fmt.Errorf("pipedream: token response missing access_token: %w", relay.ErrAuth)
	}

	ttl := c.defaultTTL
	if payload.ExpiresIn > 0 {
		ttl = time.Duration(payload.ExpiresIn) * time.Second
	}

	return relay.Token{
		AccessToken: payload.AccessToken,
		ObtainedAt:  c.now(),
		TTL:         ttl,
	}, nil
}
