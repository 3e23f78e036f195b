// Package gemini implements [lens.ChatStreamer] directly against the Google
// Gemini API, for running the dashboard assistant without the analytics
// backend's chat endpoint.
//
// It wraps the google.golang.org/genai SDK, translating between lens chat
// messages and the Gemini API types. Streaming consumes the SDK's iter.Seq2
// iterator and forwards text deltas as answer tokens.
package gemini

const (
	defaultModel     = "gemini-3.1-pro-preview"
	defaultMaxTokens = 65536
)

// systemPrompt frames the assistant for livestream commerce analysis when no
// custom prompt is configured.
const systemPrompt = "You are an analytics assistant for livestream commerce. " +
	"Answer questions about video performance, GMV, viewer engagement, and " +
	"product exposure concisely and with concrete numbers when available."
