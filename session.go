package lens

import "time"

// ChatSession represents a persisted assistant conversation.
type ChatSession struct {
	ID        string
	Messages  []Message
	VideoID   string // video the conversation is about, if any
	CreatedAt time.Time
	UpdatedAt time.Time
}
