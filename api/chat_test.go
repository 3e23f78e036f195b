package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/livelens/lens"
	"github.com/livelens/lens/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMsg(text string) lens.Message { return lens.UserMessage{Text: text} }

// tokenSink accumulates onToken calls under a lock; onToken runs on the
// session's reader goroutine while the test asserts on its own.
type tokenSink struct {
	mu     sync.Mutex
	tokens []string
}

func (s *tokenSink) add(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, tok)
}

func (s *tokenSink) joined() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out string
	for _, t := range s.tokens {
		out += t
	}
	return out
}

func TestStreamChatAccumulatesTokens(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: Hello \n\ndata: world!\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	c := api.New(srv.URL)
	var sink tokenSink
	err := c.StreamChat(context.Background(), lens.ChatRequest{Messages: []lens.Message{userMsg("hi")}}, sink.add)
	require.NoError(t, err)
	assert.Equal(t, "Hello world!", sink.joined())
}

func TestStreamChatSendsConversation(t *testing.T) {
	t.Parallel()

	type wireMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	var got struct {
		Messages []wireMsg `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/stream", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, "data: ok\n\ndata: [DONE]\n\n")
	}))
	defer srv.Close()

	c := api.New(srv.URL)
	req := lens.ChatRequest{Messages: []lens.Message{
		lens.UserMessage{Text: "how did GMV trend?"},
		lens.AssistantMessage{Text: "GMV peaked at minute 42."},
		lens.UserMessage{Text: "and viewers?"},
	}}
	require.NoError(t, c.StreamChat(context.Background(), req, func(string) {}))

	require.Len(t, got.Messages, 3)
	assert.Equal(t, wireMsg{Role: "user", Content: "how did GMV trend?"}, got.Messages[0])
	assert.Equal(t, wireMsg{Role: "assistant", Content: "GMV peaked at minute 42."}, got.Messages[1])
	assert.Equal(t, wireMsg{Role: "user", Content: "and viewers?"}, got.Messages[2])
}

func TestStreamChatValidatesRequest(t *testing.T) {
	t.Parallel()

	c := api.New("http://example.invalid")

	err := c.StreamChat(context.Background(), lens.ChatRequest{}, func(string) {})
	require.ErrorIs(t, err, lens.ErrValidation)

	err = c.StreamChat(context.Background(), lens.ChatRequest{Messages: []lens.Message{
		lens.AssistantMessage{Text: "unprompted"},
	}}, func(string) {})
	require.ErrorIs(t, err, lens.ErrValidation)
}

func TestStreamChatDoesNotRetry(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		// Promise more bytes than are sent so the client's read fails
		// mid-stream instead of seeing a clean EOF.
		body := "data: partial answ"
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)+1000))
		fmt.Fprint(w, body)
	}))
	defer srv.Close()

	c := api.New(srv.URL)
	err := c.StreamChat(context.Background(), lens.ChatRequest{Messages: []lens.Message{userMsg("hi")}}, func(string) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, lens.ErrRetriesExhausted)
	assert.Equal(t, int32(1), hits.Load(), "chat must not reconnect")
}

func TestStreamChatCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: first\n\n")
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := api.New(srv.URL)
	err := c.StreamChat(ctx, lens.ChatRequest{Messages: []lens.Message{userMsg("hi")}}, func(string) {
		cancel()
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"escaped newline", `line one\nline two`, "line one\nline two"},
		{"escaped paragraph", `para one\n\npara two`, "para one\n\npara two"},
		{"sentence boundary", "GMV rose.Viewers fell", "GMV rose.\n\nViewers fell"},
		{"question boundary", "Really?Yes", "Really?\n\nYes"},
		{"lowercase after period kept", "e.g. lowercase", "e.g. lowercase"},
		{"trailing punctuation", "The end.", "The end."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, api.NormalizeToken(tt.in))
		})
	}
}
