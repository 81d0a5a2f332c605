// Package gemini implements [relay.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between relay's
// domain types and the Gemini API types. Streaming uses the SDK's
// iter.Seq2 iterator, wrapped into the pull-based [relay.Stream]
// interface. Function calls arrive as whole parts, so tool calls are
// emitted as single [relay.EventToolCall] events rather than argument
// deltas.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 65536
)
