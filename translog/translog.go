// Package translog writes a per-session JSONL transcript of the
// conversation: user input, assistant turns, tool calls and tool results,
// each stamped with the wall-clock time.
package translog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mstolarz/relay"
)

// DefaultDir is where transcripts go unless the caller says otherwise.
const DefaultDir = ".log"

// Log appends transcript entries to a single session file.
type Log struct {
	mu      sync.Mutex
	f       *os.File
	enc     *json.Encoder
	session string
	now     func() time.Time
}

// New creates the transcript directory if needed and opens the session's
// transcript file for appending.
func New(dir, sessionID string) (*Log, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating transcript directory: %w", err)
	}
	path := filepath.Join(dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening transcript %s: %w", path, err)
	}
	return &Log{f: f, enc: json.NewEncoder(f), session: sessionID, now: time.Now}, nil
}

// Path returns the transcript file's path.
func (l *Log) Path() string { return l.f.Name() }

type entry struct {
	Time       time.Time       `json:"time"`
	SessionID  string          `json:"session_id"`
	Kind       string          `json:"kind"`
	Text       string          `json:"text,omitempty"`
	Tool       string          `json:"tool,omitempty"`
	CallID     string          `json:"call_id,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	IsError    bool            `json:"is_error,omitempty"`
	StopReason string          `json:"stop_reason,omitempty"`
	Usage      *relay.Usage    `json:"usage,omitempty"`
}

func (l *Log) write(e entry) error {
	e.Time = l.now()
	e.SessionID = l.session
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(e)
}

// UserInput records a line typed by the user.
func (l *Log) UserInput(text string) error {
	return l.write(entry{Kind: "user_input", Text: text})
}

// AssistantMessage records a completed assistant turn: its text content,
// stop reason and token usage. Thinking blocks are omitted.
func (l *Log) AssistantMessage(msg relay.AssistantMessage) error {
	var text string
	for _, b := range msg.Content {
		if tb, ok := b.(relay.TextBlock); ok {
			if text != "" {
				text += "\n"
			}
			text += tb.Text
		}
	}
	usage := msg.Usage
	return l.write(entry{
		Kind:       "assistant",
		Text:       text,
		StopReason: string(msg.StopReason),
		Usage:      &usage,
	})
}

// Handler returns an event callback that records tool calls and tool
// results as they arrive. Text and thinking deltas are not recorded;
// the full text lands in the assistant entry instead. Write failures are
// dropped so a full disk cannot interrupt the conversation.
func (l *Log) Handler() func(relay.Event) {
	return func(evt relay.Event) {
		switch evt := evt.(type) {
		case relay.EventToolCall:
			_ = l.write(entry{
				Kind:      "tool_call",
				Tool:      evt.Call.Name,
				CallID:    evt.Call.ID,
				Arguments: evt.Call.Arguments,
			})
		case relay.EventToolResult:
			_ = l.write(entry{
				Kind:    "tool_result",
				Tool:    evt.ToolName,
				CallID:  evt.ID,
				Text:    evt.Content,
				IsError: evt.IsError,
			})
		}
	}
}

// Close flushes and closes the transcript file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
