package gemini

import (
	"iter"

	"google.golang.org/genai"
)

// StreamTokens exposes the iterator drain for tests.
var StreamTokens = func(iterFn iter.Seq2[*genai.GenerateContentResponse, error], onToken func(string)) error {
	return streamTokens(iterFn, onToken)
}
