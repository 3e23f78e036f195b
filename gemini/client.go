package gemini

import (
	"context"
	"fmt"

	"github.com/livelens/lens"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ lens.ChatStreamer = (*Client)(nil)

// Client implements [lens.ChatStreamer] for the Google Gemini API.
type Client struct {
	client *genai.Client
	model  string
	prompt string
}

// Option configures a [Client].
type Option func(*Client)

// WithModel sets the model ID. Default is gemini-3.1-pro-preview.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithSystemPrompt replaces the default analytics-assistant system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.prompt = prompt }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c := &Client{
		client: gc,
		model:  defaultModel,
		prompt: systemPrompt,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// StreamChat sends the conversation to the Gemini API and forwards streamed
// text deltas to onToken in arrival order. It blocks until the answer
// completes or fails.
func (c *Client) StreamChat(ctx context.Context, req lens.ChatRequest, onToken func(string)) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("gemini: %w", err)
	}

	contents := ConvertMessages(req.Messages)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: defaultMaxTokens,
	}
	if c.prompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: c.prompt}},
		}
	}

	iter := c.client.Models.GenerateContentStream(ctx, c.model, contents, config)
	return streamTokens(iter, onToken)
}

// ConvertMessages converts lens Messages to genai Contents.
// Exported for testing.
func ConvertMessages(msgs []lens.Message) []*genai.Content {
	var result []*genai.Content
	for _, msg := range msgs {
		switch m := msg.(type) {
		case lens.UserMessage:
			result = append(result, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: m.Text}},
			})
		case lens.AssistantMessage:
			result = append(result, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: m.Text}},
			})
		}
	}
	return result
}
