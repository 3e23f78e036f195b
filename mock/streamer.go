// Package mock provides test doubles for lens interfaces using function fields.
package mock

import (
	"context"

	"github.com/livelens/lens"
)

// Interface compliance check.
var _ lens.ChatStreamer = (*ChatStreamer)(nil)

// ChatStreamer is a test double for lens.ChatStreamer.
// Set StreamChatFn before calling StreamChat.
type ChatStreamer struct {
	StreamChatFn func(ctx context.Context, req lens.ChatRequest, onToken func(string)) error
}

// StreamChat delegates to StreamChatFn.
func (s *ChatStreamer) StreamChat(ctx context.Context, req lens.ChatRequest, onToken func(string)) error {
	return s.StreamChatFn(ctx, req, onToken)
}

// TokenStreamer returns a ChatStreamer that emits the given tokens in order
// and completes, the common fixture for UI tests.
func TokenStreamer(tokens ...string) *ChatStreamer {
	return &ChatStreamer{
		StreamChatFn: func(ctx context.Context, _ lens.ChatRequest, onToken func(string)) error {
			for _, tok := range tokens {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				onToken(tok)
			}
			return nil
		},
	}
}
