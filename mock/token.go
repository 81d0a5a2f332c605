package mock

import (
	"context"

	"github.com/mstolarz/relay"
)

// Interface compliance check.
var _ relay.TokenSource = (*TokenSource)(nil)

// TokenSource is a test double for relay.TokenSource.
// Set FetchTokenFn before calling FetchToken.
type TokenSource struct {
	FetchTokenFn func(ctx context.Context) (relay.Token, error)
}

// FetchToken delegates to FetchTokenFn.
func (s *TokenSource) FetchToken(ctx context.Context) (relay.Token, error) {
	return s.FetchTokenFn(ctx)
}
