package jsonfile

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mstolarz/relay"
)

// messageDTO is the JSON form of a Message, discriminated by Type.
type messageDTO struct {
	Type          string     `json:"type"`
	Content       []blockDTO `json:"content"`
	Timestamp     time.Time  `json:"timestamp"`
	StopReason    string     `json:"stop_reason,omitempty"`
	RawStopReason string     `json:"raw_stop_reason,omitempty"`
	Usage         *usageDTO  `json:"usage,omitempty"`
	ToolCallID    string     `json:"tool_call_id,omitempty"`
	ToolName      string     `json:"tool_name,omitempty"`
	IsError       bool       `json:"is_error,omitempty"`
}

// blockDTO is the JSON form of a ContentBlock, discriminated by Type.
// Binary fields (image data, thought signatures) are base64 encoded.
type blockDTO struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	Data      string          `json:"data,omitempty"`
	MimeType  string          `json:"mime_type,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type usageDTO struct {
	InputTokens   int `json:"input_tokens"`
	OutputTokens  int `json:"output_tokens"`
	ThoughtTokens int `json:"thought_tokens,omitempty"`
	CachedTokens  int `json:"cached_tokens,omitempty"`
}

func encodeMessage(msg relay.Message) (messageDTO, error) {
	switch m := msg.(type) {
	case relay.UserMessage:
		blocks, err := encodeBlocks(m.Content)
		if err != nil {
			return messageDTO{}, err
		}
		return messageDTO{Type: "user", Content: blocks, Timestamp: m.Timestamp}, nil
	case relay.AssistantMessage:
		blocks, err := encodeBlocks(m.Content)
		if err != nil {
			return messageDTO{}, err
		}
		return messageDTO{
			Type:          "assistant",
			Content:       blocks,
			Timestamp:     m.Timestamp,
			StopReason:    string(m.StopReason),
			RawStopReason: m.RawStopReason,
			Usage: &usageDTO{
				InputTokens:   m.Usage.InputTokens,
				OutputTokens:  m.Usage.OutputTokens,
				ThoughtTokens: m.Usage.ThoughtTokens,
				CachedTokens:  m.Usage.CachedTokens,
			},
		}, nil
	case relay.ToolResultMessage:
		blocks, err := encodeBlocks(m.Content)
		if err != nil {
			return messageDTO{}, err
		}
		return messageDTO{
			Type:       "tool_result",
			Content:    blocks,
			Timestamp:  m.Timestamp,
			ToolCallID: m.ToolCallID,
			ToolName:   m.ToolName,
			IsError:    m.IsError,
		}, nil
	default:
		return messageDTO{}, fmt.Errorf("unknown message type: %T", msg)
	}
}

func decodeMessage(dto messageDTO) (relay.Message, error) {
	blocks, err := decodeBlocks(dto.Content)
	if err != nil {
		return nil, err
	}
	switch dto.Type {
	case "user":
		return relay.UserMessage{Content: blocks, Timestamp: dto.Timestamp}, nil
	case "assistant":
		var usage relay.Usage
		if dto.Usage != nil {
			usage = relay.Usage{
				InputTokens:   dto.Usage.InputTokens,
				OutputTokens:  dto.Usage.OutputTokens,
				ThoughtTokens: dto.Usage.ThoughtTokens,
				CachedTokens:  dto.Usage.CachedTokens,
			}
		}
		return relay.AssistantMessage{
			Content:       blocks,
			StopReason:    relay.StopReason(dto.StopReason),
			RawStopReason: dto.RawStopReason,
			Usage:         usage,
			Timestamp:     dto.Timestamp,
		}, nil
	case "tool_result":
		return relay.ToolResultMessage{
			ToolCallID: dto.ToolCallID,
			ToolName:   dto.ToolName,
			Content:    blocks,
			IsError:    dto.IsError,
			Timestamp:  dto.Timestamp,
		}, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", dto.Type)
	}
}

func encodeBlocks(blocks []relay.ContentBlock) ([]blockDTO, error) {
	dtos := make([]blockDTO, len(blocks))
	for i, b := range blocks {
		dto, err := encodeBlock(b)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		dtos[i] = dto
	}
	return dtos, nil
}

func encodeBlock(b relay.ContentBlock) (blockDTO, error) {
	switch v := b.(type) {
	case relay.TextBlock:
		return blockDTO{Type: "text", Text: v.Text}, nil
	case relay.ThinkingBlock:
		dto := blockDTO{Type: "thinking", Thinking: v.Thinking}
		if len(v.Signature) > 0 {
			dto.Signature = base64.StdEncoding.EncodeToString(v.Signature)
		}
		return dto, nil
	case relay.ImageBlock:
		return blockDTO{
			Type:     "image",
			Data:     base64.StdEncoding.EncodeToString(v.Data),
			MimeType: v.MimeType,
		}, nil
	case relay.ToolCallBlock:
		return blockDTO{Type: "tool_call", ID: v.ID, Name: v.Name, Arguments: v.Arguments}, nil
	default:
		return blockDTO{}, fmt.Errorf("unknown content block type: %T", b)
	}
}

func decodeBlocks(dtos []blockDTO) ([]relay.ContentBlock, error) {
	blocks := make([]relay.ContentBlock, len(dtos))
	for i, dto := range dtos {
		b, err := decodeBlock(dto)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		blocks[i] = b
	}
	return blocks, nil
}

func decodeBlock(dto blockDTO) (relay.ContentBlock, error) {
	switch dto.Type {
	case "text":
		return relay.TextBlock{Text: dto.Text}, nil
	case "thinking":
		block := relay.ThinkingBlock{Thinking: dto.Thinking}
		if dto.Signature != "" {
			sig, err := base64.StdEncoding.DecodeString(dto.Signature)
			if err != nil {
				return nil, fmt.Errorf("decode thought signature: %w", err)
			}
			block.Signature = sig
		}
		return block, nil
	case "image":
		data, err := base64.StdEncoding.DecodeString(dto.Data)
		if err != nil {
			return nil, fmt.Errorf("decode image data: %w", err)
		}
		return relay.ImageBlock{Data: data, MimeType: dto.MimeType}, nil
	case "tool_call":
		return relay.ToolCallBlock{ID: dto.ID, Name: dto.Name, Arguments: dto.Arguments}, nil
	default:
		return nil, fmt.Errorf("unknown content block type: %q", dto.Type)
	}
}
