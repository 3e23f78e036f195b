package main

import (
	"context"
	"fmt"

	"github.com/livelens/lens"
	"github.com/livelens/lens/api"
	"github.com/livelens/lens/gemini"
)

// resolveStreamer selects the chat provider. The analytics backend answers
// chat by default; Gemini is opt-in via flag or env var. All env var values
// are passed in as parameters — env is only read in main().
func resolveStreamer(ctx context.Context, providerFlag, apiKeyFlag, geminiEnvKey string, backend *api.Client) (lens.ChatStreamer, error) {
	provider := providerFlag

	// Auto-detect from env if no flag.
	if provider == "" {
		if geminiEnvKey != "" || apiKeyFlag != "" {
			provider = "gemini"
		} else {
			provider = "backend"
		}
	}

	switch provider {
	case "backend":
		return backend, nil
	case "gemini":
		// Explicit flag overrides env var.
		key := apiKeyFlag
		if key == "" {
			key = geminiEnvKey
		}
		if key == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY not set (use -api-key flag or environment variable)")
		}
		client, err := gemini.New(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("gemini: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown provider %q: must be \"backend\" or \"gemini\"", provider)
	}
}
