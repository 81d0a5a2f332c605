package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/mstolarz/relay"
	"github.com/mstolarz/relay/agent"
	"github.com/mstolarz/relay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// completedStream returns a mock stream that immediately signals completion
// and returns the given AssistantMessage.
func completedStream(msg relay.AssistantMessage) *mock.Stream {
	return &mock.Stream{
		NextFn: func() (relay.Event, error) {
			return nil, io.EOF
		},
		MessageFn: func() (relay.AssistantMessage, error) {
			return msg, nil
		},
	}
}

func TestLoop_Run(t *testing.T) {
	t.Parallel()

	t.Run("text response ends turn", func(t *testing.T) {
		t.Parallel()

		msg := relay.AssistantMessage{
			Content:    []relay.ContentBlock{relay.TextBlock{Text: "hello"}},
			StopReason: relay.StopEndTurn,
		}

		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				return completedStream(msg), nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*relay.ToolResult, error) {
				t.Fatal("executor should not be called")
				return nil, nil
			},
		}

		session := &relay.Session{SystemPrompt: "you are helpful"}
		loop := agent.New(provider, executor)

		err := loop.Run(context.Background(), session, nil)
		require.NoError(t, err)

		require.Len(t, session.Messages, 1)
		am, ok := session.Messages[0].(relay.AssistantMessage)
		require.True(t, ok)
		assert.Equal(t, relay.StopEndTurn, am.StopReason)
	})

	t.Run("single tool call then answer", func(t *testing.T) {
		t.Parallel()

		toolArgs := json.RawMessage(`{"repoName":"golang/go"}`)
		toolCallMsg := relay.AssistantMessage{
			Content: []relay.ContentBlock{
				relay.ToolCallBlock{ID: "call_1", Name: "read_wiki_structure", Arguments: toolArgs},
			},
			StopReason: relay.StopToolUse,
		}
		textMsg := relay.AssistantMessage{
			Content:    []relay.ContentBlock{relay.TextBlock{Text: "here is the structure"}},
			StopReason: relay.StopEndTurn,
		}

		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				turn++
				if turn == 1 {
					return completedStream(toolCallMsg), nil
				}
				return completedStream(textMsg), nil
			},
		}

		var executedName string
		var executedArgs json.RawMessage
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, name string, args json.RawMessage) (*relay.ToolResult, error) {
				executedName = name
				executedArgs = args
				return &relay.ToolResult{
					Content: []relay.ContentBlock{relay.TextBlock{Text: "1. Overview\n2. Internals"}},
				}, nil
			},
		}

		session := &relay.Session{SystemPrompt: "test"}
		loop := agent.New(provider, executor)

		err := loop.Run(context.Background(), session, nil)
		require.NoError(t, err)

		require.Len(t, session.Messages, 3)

		am1, ok := session.Messages[0].(relay.AssistantMessage)
		require.True(t, ok)
		assert.Equal(t, relay.StopToolUse, am1.StopReason)

		trm, ok := session.Messages[1].(relay.ToolResultMessage)
		require.True(t, ok)
		assert.Equal(t, "call_1", trm.ToolCallID)
		assert.Equal(t, "read_wiki_structure", trm.ToolName)
		assert.False(t, trm.IsError)

		am2, ok := session.Messages[2].(relay.AssistantMessage)
		require.True(t, ok)
		assert.Equal(t, relay.StopEndTurn, am2.StopReason)

		assert.Equal(t, "read_wiki_structure", executedName)
		assert.JSONEq(t, `{"repoName":"golang/go"}`, string(executedArgs))
	})

	t.Run("multiple tool calls in single response", func(t *testing.T) {
		t.Parallel()

		toolCallMsg := relay.AssistantMessage{
			Content: []relay.ContentBlock{
				relay.ToolCallBlock{ID: "call_1", Name: "ask_question", Arguments: json.RawMessage(`{"q":"a"}`)},
				relay.TextBlock{Text: "I'll ask twice"},
				relay.ToolCallBlock{ID: "call_2", Name: "ask_question", Arguments: json.RawMessage(`{"q":"b"}`)},
			},
			StopReason: relay.StopToolUse,
		}
		textMsg := relay.AssistantMessage{
			Content:    []relay.ContentBlock{relay.TextBlock{Text: "both answered"}},
			StopReason: relay.StopEndTurn,
		}

		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				turn++
				if turn == 1 {
					return completedStream(toolCallMsg), nil
				}
				return completedStream(textMsg), nil
			},
		}

		var executedNames []string
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, name string, _ json.RawMessage) (*relay.ToolResult, error) {
				executedNames = append(executedNames, name)
				return &relay.ToolResult{
					Content: []relay.ContentBlock{relay.TextBlock{Text: "answer"}},
				}, nil
			},
		}

		session := &relay.Session{}
		loop := agent.New(provider, executor)

		err := loop.Run(context.Background(), session, nil)
		require.NoError(t, err)

		// assistant (2 tool calls) + tool result 1 + tool result 2 + assistant (text)
		require.Len(t, session.Messages, 4)

		trm1, ok := session.Messages[1].(relay.ToolResultMessage)
		require.True(t, ok)
		assert.Equal(t, "call_1", trm1.ToolCallID)

		trm2, ok := session.Messages[2].(relay.ToolResultMessage)
		require.True(t, ok)
		assert.Equal(t, "call_2", trm2.ToolCallID)

		assert.Equal(t, []string{"ask_question", "ask_question"}, executedNames)
	})

	t.Run("tool infrastructure error becomes error result", func(t *testing.T) {
		t.Parallel()

		toolCallMsg := relay.AssistantMessage{
			Content: []relay.ContentBlock{
				relay.ToolCallBlock{ID: "call_1", Name: "ask_question", Arguments: json.RawMessage(`{}`)},
			},
			StopReason: relay.StopToolUse,
		}
		textMsg := relay.AssistantMessage{
			Content:    []relay.ContentBlock{relay.TextBlock{Text: "I see the error"}},
			StopReason: relay.StopEndTurn,
		}

		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				turn++
				if turn == 1 {
					return completedStream(toolCallMsg), nil
				}
				return completedStream(textMsg), nil
			},
		}

		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*relay.ToolResult, error) {
				return nil, errors.New("mcp session closed")
			},
		}

		session := &relay.Session{}
		loop := agent.New(provider, executor)

		err := loop.Run(context.Background(), session, nil)
		require.NoError(t, err)

		require.Len(t, session.Messages, 3)

		trm, ok := session.Messages[1].(relay.ToolResultMessage)
		require.True(t, ok)
		assert.True(t, trm.IsError)
		require.Len(t, trm.Content, 1)
		tb, ok := trm.Content[0].(relay.TextBlock)
		require.True(t, ok)
		assert.Equal(t, "mcp session closed", tb.Text)
	})

	t.Run("stream error preserves partial message", func(t *testing.T) {
		t.Parallel()

		streamErr := errors.New("connection reset")
		partialMsg := relay.AssistantMessage{
			Content:    []relay.ContentBlock{relay.TextBlock{Text: "partial"}},
			StopReason: relay.StopError,
		}

		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				return &mock.Stream{
					NextFn: func() (relay.Event, error) {
						return nil, streamErr
					},
					MessageFn: func() (relay.AssistantMessage, error) {
						return partialMsg, nil
					},
				}, nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*relay.ToolResult, error) {
				return nil, nil
			},
		}

		session := &relay.Session{}
		loop := agent.New(provider, executor)

		err := loop.Run(context.Background(), session, nil)
		assert.ErrorIs(t, err, streamErr)

		require.Len(t, session.Messages, 1)
		am, ok := session.Messages[0].(relay.AssistantMessage)
		require.True(t, ok)
		assert.Equal(t, relay.StopError, am.StopReason)
	})

	t.Run("provider error surfaces", func(t *testing.T) {
		t.Parallel()

		providerErr := errors.New("API rate limited")
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				return nil, providerErr
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*relay.ToolResult, error) {
				return nil, nil
			},
		}

		session := &relay.Session{}
		loop := agent.New(provider, executor)

		err := loop.Run(context.Background(), session, nil)
		assert.ErrorIs(t, err, providerErr)
		assert.Empty(t, session.Messages)
	})

	t.Run("cancelled context stops before streaming", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				t.Fatal("provider should not be called")
				return nil, nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*relay.ToolResult, error) {
				return nil, nil
			},
		}

		session := &relay.Session{}
		loop := agent.New(provider, executor)

		err := loop.Run(ctx, session, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoop_Run_Options(t *testing.T) {
	t.Parallel()

	t.Run("model flows into request", func(t *testing.T) {
		t.Parallel()

		var gotModel string
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, req relay.Request) (relay.Stream, error) {
				gotModel = req.Model
				return completedStream(relay.AssistantMessage{StopReason: relay.StopEndTurn}), nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*relay.ToolResult, error) {
				return nil, nil
			},
		}

		session := &relay.Session{}
		loop := agent.New(provider, executor)

		err := loop.Run(context.Background(), session, nil, agent.WithModel("gemini-2.5-pro"))
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.5-pro", gotModel)
	})

	t.Run("event handler receives stream and tool result events", func(t *testing.T) {
		t.Parallel()

		toolCallMsg := relay.AssistantMessage{
			Content: []relay.ContentBlock{
				relay.ToolCallBlock{ID: "call_1", Name: "ask_question", Arguments: json.RawMessage(`{}`)},
			},
			StopReason: relay.StopToolUse,
		}
		textMsg := relay.AssistantMessage{
			Content:    []relay.ContentBlock{relay.TextBlock{Text: "done"}},
			StopReason: relay.StopEndTurn,
		}

		turn := 0
		provider := &mock.Provider{
			StreamFn: func(_ context.Context, _ relay.Request) (relay.Stream, error) {
				turn++
				if turn == 1 {
					events := []relay.Event{relay.EventToolCall{Call: toolCallMsg.Content[0].(relay.ToolCallBlock)}}
					return &mock.Stream{
						NextFn: func() (relay.Event, error) {
							if len(events) == 0 {
								return nil, io.EOF
							}
							evt := events[0]
							events = events[1:]
							return evt, nil
						},
						MessageFn: func() (relay.AssistantMessage, error) {
							return toolCallMsg, nil
						},
					}, nil
				}
				return completedStream(textMsg), nil
			},
		}
		executor := &mock.ToolExecutor{
			ExecuteFn: func(_ context.Context, _ string, _ json.RawMessage) (*relay.ToolResult, error) {
				return &relay.ToolResult{
					Content: []relay.ContentBlock{relay.TextBlock{Text: "the answer"}},
				}, nil
			},
		}

		session := &relay.Session{}
		loop := agent.New(provider, executor)

		var seen []relay.Event
		err := loop.Run(context.Background(), session, nil,
			agent.WithEventHandler(func(evt relay.Event) { seen = append(seen, evt) }))
		require.NoError(t, err)

		require.Len(t, seen, 2)
		_, ok := seen[0].(relay.EventToolCall)
		assert.True(t, ok)
		tr, ok := seen[1].(relay.EventToolResult)
		require.True(t, ok)
		assert.Equal(t, "call_1", tr.ID)
		assert.Equal(t, "the answer", tr.Content)
		assert.False(t, tr.IsError)
	})
}
