package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/mstolarz/relay"
	"google.golang.org/genai"
)

// stream implements [relay.Stream] by wrapping the genai SDK's
// streaming iterator. Chunks are translated into semantic events as
// they are pulled; the assembled AssistantMessage grows alongside.
type stream struct {
	pull      func() (*genai.GenerateContentResponse, error, bool)
	stop      func()
	ctx       context.Context
	state     relay.StreamState
	msg       relay.AssistantMessage
	pending   []relay.Event
	err       error
	callCount int
}

// Interface compliance check.
var _ relay.Stream = (*stream)(nil)

func newStream(ctx context.Context, iterFn iter.Seq2[*genai.GenerateContentResponse, error]) *stream {
	next, stop := iter.Pull2(iterFn)
	return &stream{
		pull:  next,
		stop:  stop,
		ctx:   ctx,
		state: relay.StreamStateNew,
	}
}

// Next returns the next semantic event. Returns io.EOF when the
// stream completes normally. Events already assembled from the final
// chunk are drained before EOF is reported.
func (s *stream) Next() (relay.Event, error) {
	for {
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			return evt, nil
		}

		switch s.state {
		case relay.StreamStateComplete:
			return nil, io.EOF
		case relay.StreamStateError:
			return nil, s.err
		case relay.StreamStateClosed:
			return nil, fmt.Errorf("gemini: %w", relay.ErrStreamClosed)
		}

		resp, err, ok := s.pull()
		if !ok {
			s.complete()
			continue
		}
		if err != nil {
			s.terminate(err)
			return nil, s.err
		}

		s.state = relay.StreamStateStreaming
		s.processChunk(resp)
	}
}

// State returns the current stream state.
func (s *stream) State() relay.StreamState {
	return s.state
}

// Message returns the assembled AssistantMessage.
func (s *stream) Message() (relay.AssistantMessage, error) {
	if s.state == relay.StreamStateNew {
		return relay.AssistantMessage{}, fmt.Errorf("gemini: %w", relay.ErrStreamNotReady)
	}
	return s.msg, nil
}

// Close stops the underlying iterator.
func (s *stream) Close() error {
	if s.state != relay.StreamStateComplete && s.state != relay.StreamStateError {
		s.state = relay.StreamStateClosed
		s.pending = nil
		s.msg.StopReason = relay.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	s.stop()
	return nil
}

// complete finalizes the message after the iterator is exhausted.
func (s *stream) complete() {
	s.state = relay.StreamStateComplete
	s.msg.Timestamp = time.Now()
	switch s.msg.StopReason {
	case "", relay.StopEndTurn:
		// STOP with pending function calls means the model is waiting
		// for tool results, not ending its turn.
		if s.hasToolCalls() {
			s.msg.StopReason = relay.StopToolUse
		} else if s.msg.StopReason == "" {
			s.msg.StopReason = relay.StopUnknown
		}
	}
}

// terminate records a terminal error with the appropriate stop reason.
func (s *stream) terminate(err error) {
	s.state = relay.StreamStateError
	s.err = fmt.Errorf("gemini: %w", err)
	s.pending = nil
	s.msg.Timestamp = time.Now()
	if s.ctx.Err() != nil {
		s.msg.StopReason = relay.StopAborted
		s.msg.RawStopReason = "aborted"
	} else {
		s.msg.StopReason = relay.StopError
		s.msg.RawStopReason = "error"
	}
}

// processChunk folds one response chunk into the message and queues
// the semantic events it produced.
func (s *stream) processChunk(resp *genai.GenerateContentResponse) {
	if resp.UsageMetadata != nil {
		// Usage metadata is cumulative; the last chunk wins.
		s.msg.Usage = convertUsage(resp.UsageMetadata)
	}

	if len(resp.Candidates) == 0 {
		return
	}
	cand := resp.Candidates[0]

	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			s.processPart(part)
		}
	}

	if cand.FinishReason != "" {
		s.msg.RawStopReason = string(cand.FinishReason)
		s.msg.StopReason = convertFinishReason(cand.FinishReason)
	}
}

func (s *stream) processPart(part *genai.Part) {
	switch {
	case part.FunctionCall != nil:
		call := s.convertCall(part.FunctionCall)
		s.msg.Content = append(s.msg.Content, call)
		s.pending = append(s.pending, relay.EventToolCall{Call: call})

	case part.Thought && part.Text != "":
		s.appendThinking(part.Text, part.ThoughtSignature)
		s.pending = append(s.pending, relay.EventThinkingDelta{Delta: part.Text})

	case part.Text != "":
		s.appendText(part.Text)
		s.pending = append(s.pending, relay.EventTextDelta{Delta: part.Text})

	case part.InlineData != nil:
		s.msg.Content = append(s.msg.Content, relay.ImageBlock{
			Data:     part.InlineData.Data,
			MimeType: part.InlineData.MIMEType,
		})
	}
}

// appendText merges consecutive text deltas into a single TextBlock.
func (s *stream) appendText(text string) {
	if n := len(s.msg.Content); n > 0 {
		if tb, ok := s.msg.Content[n-1].(relay.TextBlock); ok {
			tb.Text += text
			s.msg.Content[n-1] = tb
			return
		}
	}
	s.msg.Content = append(s.msg.Content, relay.TextBlock{Text: text})
}

// appendThinking merges consecutive thought deltas. The signature
// arrives on the final delta of a thought, so the latest one sticks.
func (s *stream) appendThinking(text string, sig []byte) {
	if n := len(s.msg.Content); n > 0 {
		if tb, ok := s.msg.Content[n-1].(relay.ThinkingBlock); ok {
			tb.Thinking += text
			if sig != nil {
				tb.Signature = sig
			}
			s.msg.Content[n-1] = tb
			return
		}
	}
	s.msg.Content = append(s.msg.Content, relay.ThinkingBlock{Thinking: text, Signature: sig})
}

func (s *stream) convertCall(fc *genai.FunctionCall) relay.ToolCallBlock {
	s.callCount++
	id := fc.ID
	if id == "" {
		// The API frequently omits call IDs; synthesize stable ones so
		// tool results can be correlated.
		id = fmt.Sprintf("call_%d", s.callCount)
	}
	args := json.RawMessage(`{}`)
	if len(fc.Args) > 0 {
		if data, err := json.Marshal(fc.Args); err == nil {
			args = data
		}
	}
	return relay.ToolCallBlock{ID: id, Name: fc.Name, Arguments: args}
}

func (s *stream) hasToolCalls() bool {
	for _, b := range s.msg.Content {
		if _, ok := b.(relay.ToolCallBlock); ok {
			return true
		}
	}
	return false
}

func convertUsage(md *genai.GenerateContentResponseUsageMetadata) relay.Usage {
	return relay.Usage{
		InputTokens:   int(md.PromptTokenCount),
		OutputTokens:  int(md.CandidatesTokenCount),
		ThoughtTokens: int(md.ThoughtsTokenCount),
		CachedTokens:  int(md.CachedContentTokenCount),
	}
}

func convertFinishReason(fr genai.FinishReason) relay.StopReason {
	switch fr {
	case genai.FinishReasonStop:
		return relay.StopEndTurn
	case genai.FinishReasonMaxTokens:
		return relay.StopLength
	default:
		return relay.StopUnknown
	}
}
