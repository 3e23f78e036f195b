// Package json implements JSON persistence for chat sessions.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/livelens/lens"
)

// envelope is the v1 wire format for a persisted chat session.
type envelope struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	VideoID   string       `json:"video_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

// messageDTO is the JSON representation of a Message with a type discriminator.
type messageDTO struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// MarshalSession serializes a ChatSession to JSON in v1 envelope format.
func MarshalSession(s lens.ChatSession) ([]byte, error) {
	env := envelope{
		Version:   1,
		ID:        s.ID,
		VideoID:   s.VideoID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Messages:  make([]messageDTO, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		dto, err := marshalMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		env.Messages[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSession deserializes a ChatSession from JSON in v1 envelope format.
func UnmarshalSession(data []byte) (lens.ChatSession, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return lens.ChatSession{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return lens.ChatSession{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	msgs := make([]lens.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return lens.ChatSession{}, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return lens.ChatSession{
		ID:        env.ID,
		VideoID:   env.VideoID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Messages:  msgs,
	}, nil
}

// Save writes a ChatSession to a JSON file, creating parent directories as
// needed. The write goes through a temp file so a crash never leaves a
// half-written session behind.
func Save(path string, s lens.ChatSession) error {
	data, err := MarshalSession(s)
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
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a ChatSession from a JSON file.
func Load(path string) (lens.ChatSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lens.ChatSession{}, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSession(data)
}

func marshalMessage(msg lens.Message) (messageDTO, error) {
	switch m := msg.(type) {
	case lens.UserMessage:
		return messageDTO{Type: "user", Text: m.Text, Timestamp: m.Timestamp}, nil
	case lens.AssistantMessage:
		return messageDTO{Type: "assistant", Text: m.Text, Timestamp: m.Timestamp}, nil
	default:
		return messageDTO{}, fmt.Errorf("unknown message type: %T", msg)
	}
}

func unmarshalMessage(dto messageDTO) (lens.Message, error) {
	switch dto.Type {
	case "user":
		return lens.UserMessage{Text: dto.Text, Timestamp: dto.Timestamp}, nil
	case "assistant":
		return lens.AssistantMessage{Text: dto.Text, Timestamp: dto.Timestamp}, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", dto.Type)
	}
}
