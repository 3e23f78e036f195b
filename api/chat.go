package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/livelens/lens"
	"github.com/livelens/lens/stream"
)

// Wire shape of the chat endpoint request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestBody struct {
	Messages []chatMessage `json:"messages"`
}

// StreamChat implements [lens.ChatStreamer] against the backend assistant.
// Answer tokens arrive as raw SSE text payloads, not JSON; each one is
// passed through the token normalizer and handed to onToken in arrival
// order. Chat never reconnects: losing the stream mid-answer surfaces
// immediately as the returned error. Cancelling ctx stops the stream
// silently and returns ctx.Err().
func (c *Client) StreamChat(ctx context.Context, req lens.ChatRequest, onToken func(string)) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	body := chatRequestBody{Messages: make([]chatMessage, 0, len(req.Messages))}
	for _, m := range req.Messages {
		switch msg := m.(type) {
		case lens.UserMessage:
			body.Messages = append(body.Messages, chatMessage{Role: string(lens.RoleUser), Content: msg.Text})
		case lens.AssistantMessage:
			body.Messages = append(body.Messages, chatMessage{Role: string(lens.RoleAssistant), Content: msg.Text})
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("api: encode chat request: %w", err)
	}

	var streamErr error
	handler := stream.Handler{
		OnPayload: func(p lens.Payload) (bool, error) {
			switch v := p.(type) {
			case lens.RawText:
				onToken(c.normalize(v.Text))
			case lens.JSONEvent:
				// The chat backend is not expected to emit JSON, but if it
				// does the payload is still answer text to this call site.
				onToken(c.normalize(string(v.Raw)))
			}
			return false, nil
		},
		OnError: func(err error) { streamErr = err },
	}

	s, err := stream.Open(ctx, stream.Config{
		URL:    c.baseURL + "/api/chat/stream",
		Method: http.MethodPost,
		Token:  c.token,
		Body:   payload,
		Client: c.httpClient,
		Logger: c.logger,
		Retry:  chatRetryPolicy,
	}, handler)
	if err != nil {
		return err
	}

	<-s.Done()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return streamErr
}

// NormalizeToken is the default chat token post-processor: escaped newline
// sequences collapse into real newlines, and a paragraph break is inserted
// between sentence-ending punctuation and an immediately following
// uppercase letter. A formatting heuristic only — swap it out with
// [WithTokenNormalizer] if the backend starts emitting clean text.
func NormalizeToken(s string) string {
	s = strings.ReplaceAll(s, `\n\n`, "\n\n")
	s = strings.ReplaceAll(s, `\n`, "\n")

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		b.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsUpper(runes[i+1]) {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
