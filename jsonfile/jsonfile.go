// Package jsonfile persists sessions as versioned JSON files.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mstolarz/relay"
)

// envelope is the v1 on-disk format for a persisted session.
type envelope struct {
	Version      int          `json:"version"`
	ID           string       `json:"id"`
	SystemPrompt string       `json:"system_prompt"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Messages     []messageDTO `json:"messages"`
}

// Marshal serializes a session to the v1 envelope format.
func Marshal(s relay.Session) ([]byte, error) {
	env := envelope{
		Version:      1,
		ID:           s.ID,
		SystemPrompt: s.SystemPrompt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Messages:     make([]messageDTO, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		dto, err := encodeMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// Unmarshal deserializes a session from the v1 envelope format.
func Unmarshal(data []byte) (relay.Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return relay.Session{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return relay.Session{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]relay.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := decodeMessage(dto)
		if err != nil {
			return relay.Session{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return relay.Session{
		ID:           env.ID,
		SystemPrompt: env.SystemPrompt,
		CreatedAt:    env.CreatedAt,
		UpdatedAt:    env.UpdatedAt,
		Messages:     msgs,
	}, nil
}

// Save writes the session to path atomically, creating parent directories
// as needed. A crash mid-write leaves the previous file intact.
func Save(path string, s relay.Session) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a session from path.
func Load(path string) (relay.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return relay.Session{}, fmt.Errorf("read file: %w", err)
	}
	return Unmarshal(data)
}
