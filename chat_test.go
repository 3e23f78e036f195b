package lens_test

import (
	"testing"
	"time"

	"github.com/livelens/lens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequestValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()

	tests := []struct {
		name    string
		req     lens.ChatRequest
		wantErr bool
	}{
		{
			name: "single user message is valid",
			req: lens.ChatRequest{Messages: []lens.Message{
				lens.UserMessage{Text: "why did GMV dip at 12:30?", Timestamp: now},
			}},
		},
		{
			name: "alternating conversation ending with user is valid",
			req: lens.ChatRequest{Messages: []lens.Message{
				lens.UserMessage{Text: "hi", Timestamp: now},
				lens.AssistantMessage{Text: "hello", Timestamp: now},
				lens.UserMessage{Text: "thanks", Timestamp: now},
			}},
		},
		{
			name:    "empty messages is invalid",
			req:     lens.ChatRequest{},
			wantErr: true,
		},
		{
			name: "assistant message last is invalid",
			req: lens.ChatRequest{Messages: []lens.Message{
				lens.UserMessage{Text: "hi", Timestamp: now},
				lens.AssistantMessage{Text: "hello", Timestamp: now},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, lens.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMessageRoles(t *testing.T) {
	t.Parallel()

	assert.Equal(t, lens.RoleUser, lens.UserMessage{}.Role())
	assert.Equal(t, lens.RoleAssistant, lens.AssistantMessage{}.Role())
}
