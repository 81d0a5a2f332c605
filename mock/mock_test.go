package mock_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mstolarz/relay"
	"github.com/mstolarz/relay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Delegates(t *testing.T) {
	t.Parallel()

	want := &mock.Stream{}
	p := &mock.Provider{
		StreamFn: func(_ context.Context, req relay.Request) (relay.Stream, error) {
			assert.Equal(t, "gemini-2.5-flash", req.Model)
			return want, nil
		},
	}

	got, err := p.Stream(context.Background(), relay.Request{Model: "gemini-2.5-flash"})
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestToolExecutor_Delegates(t *testing.T) {
	t.Parallel()

	e := &mock.ToolExecutor{
		ExecuteFn: func(_ context.Context, name string, args json.RawMessage) (*relay.ToolResult, error) {
			assert.Equal(t, "ask_question", name)
			assert.JSONEq(t, `{"q":"?"}`, string(args))
			return &relay.ToolResult{Content: []relay.ContentBlock{relay.TextBlock{Text: "answer"}}}, nil
		},
	}

	res, err := e.Execute(context.Background(), "ask_question", json.RawMessage(`{"q":"?"}`))
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
}

func TestTokenSource_Delegates(t *testing.T) {
	t.Parallel()

	s := &mock.TokenSource{
		FetchTokenFn: func(_ context.Context) (relay.Token, error) {
			return relay.Token{AccessToken: "tok", ObtainedAt: time.Now(), TTL: time.Hour}, nil
		},
	}

	tok, err := s.FetchToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
}

func TestStream_DefaultsWhenUnset(t *testing.T) {
	t.Parallel()

	s := &mock.Stream{}
	assert.Equal(t, relay.StreamStateComplete, s.State())
	assert.NoError(t, s.Close())
}
