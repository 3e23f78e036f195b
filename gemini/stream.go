package gemini

import (
	"fmt"
	"iter"

	"google.golang.org/genai"
)

// streamTokens drains the SDK's streaming iterator, forwarding the text of
// every non-thought part. Thought parts are internal model reasoning and
// never belong in the answer.
func streamTokens(iterFn iter.Seq2[*genai.GenerateContentResponse, error], onToken func(string)) error {
	for resp, err := range iterFn {
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.Thought || part.Text == "" {
					continue
				}
				onToken(part.Text)
			}
		}
	}
	return nil
}
