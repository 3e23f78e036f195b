package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/livelens/lens"
	"github.com/livelens/lens/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStreamer_StreamChat(t *testing.T) {
	t.Parallel()
	t.Run("delegates to StreamChatFn", func(t *testing.T) {
		t.Parallel()
		var gotReq lens.ChatRequest
		s := mock.ChatStreamer{
			StreamChatFn: func(ctx context.Context, req lens.ChatRequest, onToken func(string)) error {
				gotReq = req
				onToken("hi")
				return nil
			},
		}
		var tokens []string
		req := lens.ChatRequest{Messages: []lens.Message{lens.UserMessage{Text: "q"}}}
		err := s.StreamChat(context.Background(), req, func(tok string) {
			tokens = append(tokens, tok)
		})
		require.NoError(t, err)
		assert.Equal(t, req, gotReq)
		assert.Equal(t, []string{"hi"}, tokens)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("backend down")
		s := mock.ChatStreamer{
			StreamChatFn: func(context.Context, lens.ChatRequest, func(string)) error {
				return wantErr
			},
		}
		err := s.StreamChat(context.Background(), lens.ChatRequest{}, func(string) {})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("panics when StreamChatFn not set", func(t *testing.T) {
		t.Parallel()
		var s mock.ChatStreamer
		assert.Panics(t, func() {
			_ = s.StreamChat(context.Background(), lens.ChatRequest{}, func(string) {})
		})
	})
}

func TestTokenStreamer(t *testing.T) {
	t.Parallel()
	t.Run("emits tokens in order", func(t *testing.T) {
		t.Parallel()
		s := mock.TokenStreamer("Hello ", "world!")
		var got string
		err := s.StreamChat(context.Background(), lens.ChatRequest{}, func(tok string) {
			got += tok
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello world!", got)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := mock.TokenStreamer("never")
		var called bool
		err := s.StreamChat(ctx, lens.ChatRequest{}, func(string) { called = true })
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}
