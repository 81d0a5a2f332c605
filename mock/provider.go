// Package mock provides test doubles for relay interfaces using function fields.
package mock

import (
	"context"

	"github.com/mstolarz/relay"
)

// Interface compliance checks.
var (
	_ relay.Provider = (*Provider)(nil)
	_ relay.Stream   = (*Stream)(nil)
)

// Provider is a test double for relay.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req relay.Request) (relay.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req relay.Request) (relay.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Stream is a test double for relay.Stream.
// Set the function fields for the methods you need.
type Stream struct {
	NextFn    func() (relay.Event, error)
	StateFn   func() relay.StreamState
	MessageFn func() (relay.AssistantMessage, error)
	CloseFn   func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (relay.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn.
func (s *Stream) State() relay.StreamState {
	if s.StateFn == nil {
		return relay.StreamStateComplete
	}
	return s.StateFn()
}

// Message delegates to MessageFn.
func (s *Stream) Message() (relay.AssistantMessage, error) {
	return s.MessageFn()
}

// Close delegates to CloseFn, or is a no-op when unset.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
