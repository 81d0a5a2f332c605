package jsonfile_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mstolarz/relay"
	"github.com/mstolarz/relay/jsonfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(t *testing.T) relay.Session {
	t.Helper()
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return relay.Session{
		ID:           "sess-1",
		SystemPrompt: "you are a documentation assistant",
		CreatedAt:    created,
		UpdatedAt:    created.Add(2 * time.Minute),
		Messages: []relay.Message{
			relay.UserMessage{
				Content:   []relay.ContentBlock{relay.TextBlock{Text: "what does this repo do?"}},
				Timestamp: created,
			},
			relay.AssistantMessage{
				Content: []relay.ContentBlock{
					relay.ThinkingBlock{Thinking: "need the wiki structure", Signature: []byte{0x01, 0x02}},
					relay.ToolCallBlock{
						ID:        "call_1",
						Name:      "read_wiki_structure",
						Arguments: json.RawMessage(`{"repoName":"golang/go"}`),
					},
				},
				StopReason:    relay.StopToolUse,
				RawStopReason: "STOP",
				Usage:         relay.Usage{InputTokens: 12, OutputTokens: 34, ThoughtTokens: 5},
				Timestamp:     created.Add(time.Minute),
			},
			relay.ToolResultMessage{
				ToolCallID: "call_1",
				ToolName:   "read_wiki_structure",
				Content: []relay.ContentBlock{
					relay.TextBlock{Text: "1. Overview"},
					relay.ImageBlock{Data: []byte{0x89, 0x50}, MimeType: "image/png"},
				},
				Timestamp: created.Add(2 * time.Minute),
			},
		},
	}
}

// assertSessionEqual compares sessions structurally. Tool call arguments are
// compared as JSON values because indented marshaling reformats raw JSON.
func assertSessionEqual(t *testing.T, want, got relay.Session) {
	t.Helper()
	require.Len(t, got.Messages, len(want.Messages))
	for i := range want.Messages {
		want.Messages[i], got.Messages[i] = normalizeArgs(t, want.Messages[i], got.Messages[i])
	}
	assert.Equal(t, want, got)
}

func normalizeArgs(t *testing.T, want, got relay.Message) (relay.Message, relay.Message) {
	t.Helper()
	wm, ok := want.(relay.AssistantMessage)
	if !ok {
		return want, got
	}
	gm, ok := got.(relay.AssistantMessage)
	require.True(t, ok)
	require.Len(t, gm.Content, len(wm.Content))
	for i := range wm.Content {
		wb, ok := wm.Content[i].(relay.ToolCallBlock)
		if !ok {
			continue
		}
		gb, ok := gm.Content[i].(relay.ToolCallBlock)
		require.True(t, ok)
		assert.JSONEq(t, string(wb.Arguments), string(gb.Arguments))
		gb.Arguments = wb.Arguments
		gm.Content[i] = gb
	}
	return wm, gm
}

func TestMarshalUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("round trip preserves the session", func(t *testing.T) {
		t.Parallel()

		want := sampleSession(t)
		data, err := jsonfile.Marshal(want)
		require.NoError(t, err)

		got, err := jsonfile.Unmarshal(data)
		require.NoError(t, err)
		assertSessionEqual(t, want, got)
	})

	t.Run("envelope is versioned", func(t *testing.T) {
		t.Parallel()

		data, err := jsonfile.Marshal(sampleSession(t))
		require.NoError(t, err)

		var env map[string]any
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, float64(1), env["version"])
	})

	t.Run("unsupported version fails", func(t *testing.T) {
		t.Parallel()

		_, err := jsonfile.Unmarshal([]byte(`{"version":2,"id":"x","messages":[]}`))
		assert.ErrorContains(t, err, "unsupported envelope version")
	})

	t.Run("unknown message type fails", func(t *testing.T) {
		t.Parallel()

		_, err := jsonfile.Unmarshal([]byte(`{"version":1,"messages":[{"type":"system"}]}`))
		assert.ErrorContains(t, err, "unknown message type")
	})

	t.Run("unknown content block type fails", func(t *testing.T) {
		t.Parallel()

		_, err := jsonfile.Unmarshal([]byte(`{"version":1,"messages":[{"type":"user","content":[{"type":"audio"}]}]}`))
		assert.ErrorContains(t, err, "unknown content block type")
	})
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	t.Run("round trip through disk", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "sessions", "sess-1.json")
		want := sampleSession(t)

		require.NoError(t, jsonfile.Save(path, want))

		got, err := jsonfile.Load(path)
		require.NoError(t, err)
		assertSessionEqual(t, want, got)
	})

	t.Run("save leaves no temp file behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "sess-1.json")
		require.NoError(t, jsonfile.Save(path, sampleSession(t)))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "sess-1.json", entries[0].Name())
	})

	t.Run("load of missing file fails", func(t *testing.T) {
		t.Parallel()

		_, err := jsonfile.Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}
