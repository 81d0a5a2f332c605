package relay

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Credentials identify an OAuth client to a partner token endpoint.
// They are read once at process start and are immutable for the
// process lifetime. WorkspaceID is optional and only scopes requests.
type Credentials struct {
	ClientID     string
	ClientSecret string
	WorkspaceID  string
}

// Validate checks that the required fields are present. It is called
// before any network traffic so that missing credentials fail fast.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("client id is required: %w", ErrAuth)
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return fmt.Errorf("client secret is required: %w", ErrAuth)
	}
	return nil
}

// Token is a short-lived bearer token obtained from a token endpoint.
// Tokens are never persisted; re-fetching is the refresh mechanism.
type Token struct {
	AccessToken string
	ObtainedAt  time.Time
	TTL         time.Duration
}

// ExpiresAt returns the instant the token stops being valid.
func (t Token) ExpiresAt() time.Time {
	return t.ObtainedAt.Add(t.TTL)
}

// Expired reports whether the token must not be used at the given time.
func (t Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt())
}

// TokenSource exchanges client credentials for a fresh bearer token.
// Each call is independent: implementations do not cache, refresh in
// the background, or retry.
type TokenSource interface {
	FetchToken(ctx context.Context) (Token, error)
}
