package lens

import (
	"context"
	"fmt"
)

// ChatRequest carries the conversation to send to the assistant backend.
type ChatRequest struct {
	Messages []Message
}

// Validate checks universal constraints on ChatRequest.
// Providers may apply additional provider-specific validation.
func (r ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages must not be empty: %w", ErrValidation)
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role() != RoleUser {
		return fmt.Errorf("last message must be from the user, got %s: %w", last.Role(), ErrValidation)
	}
	return nil
}

// ChatStreamer is a strategy pattern interface for chat providers.
//
// StreamChat blocks until the answer stream reaches a terminal state,
// invoking onToken for each incremental answer token in arrival order.
// It returns nil on normal completion and the terminal error otherwise.
// Cancellation flows through ctx; a cancelled stream returns ctx.Err()
// without surfacing a separate stream error.
type ChatStreamer interface {
	StreamChat(ctx context.Context, req ChatRequest, onToken func(string)) error
}
