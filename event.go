package relay

// Event is a sealed interface representing a streaming event.
// Events are purely semantic. Transport/protocol errors come from
// Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents a text content delta.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// EventThinkingDelta represents a thinking content delta.
type EventThinkingDelta struct {
	Delta string
}

func (EventThinkingDelta) event() {}

// EventToolCall signals a complete tool call requested by the model.
// Gemini delivers function calls as whole parts rather than argument
// deltas, so there is no begin/delta/end sequence.
type EventToolCall struct {
	Call ToolCallBlock
}

func (EventToolCall) event() {}

// EventToolResult carries the text outcome of an executed tool call.
// Emitted by the agent loop, not by provider streams.
type EventToolResult struct {
	ID       string
	ToolName string
	Content  string
	IsError  bool
}

func (EventToolResult) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventThinkingDelta{}
	_ Event = EventToolCall{}
	_ Event = EventToolResult{}
)
