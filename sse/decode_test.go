package sse_test

import (
	"encoding/json"
	"testing"

	"github.com/livelens/lens"
	"github.com/livelens/lens/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDoneSentinel(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"[DONE]",
		" [DONE] ",
		`"[DONE]"`,
		`'[DONE]'`,
		` "[DONE]" `,
		"DONE",
	} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, lens.Done{}, sse.Decode(raw))
		})
	}
}

func TestDecodeErrorMarker(t *testing.T) {
	t.Parallel()

	got := sse.Decode("[ERROR] backend failure")
	marker, ok := got.(lens.ErrorMarker)
	require.True(t, ok, "expected ErrorMarker, got %T", got)
	assert.Contains(t, marker.Message, "backend failure")
	assert.Contains(t, marker.Message, "[ERROR]")
}

func TestDecodeJSONEventRoundTrip(t *testing.T) {
	t.Parallel()

	raw := `{"status":"STEP_1","progress":10,"message":"extracting frames","nested":{"k":[1,2,3]}}`
	got := sse.Decode(raw)
	evt, ok := got.(lens.JSONEvent)
	require.True(t, ok, "expected JSONEvent, got %T", got)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(evt.Raw, &decoded))

	var want map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &want))
	assert.Equal(t, want, decoded)
}

func TestDecodeRawTextFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"plain token", "Hello "},
		{"bare number stays a token", "123"},
		{"json array stays a token", "[1,2]"},
		{"malformed json object", `{"status": oops`},
		{"quoted token", `"Hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := sse.Decode(tt.raw)
			text, ok := got.(lens.RawText)
			require.True(t, ok, "expected RawText, got %T", got)
			// RawText carries the original payload untouched.
			assert.Equal(t, tt.raw, text.Text)
		})
	}
}

// Sentinel and error checks must precede the JSON attempt: "[DONE]" and
// "[ERROR] ..." are not valid JSON and must never land in RawText.
func TestDecodeOrderingPrecedence(t *testing.T) {
	t.Parallel()

	assert.IsType(t, lens.Done{}, sse.Decode("[DONE]"))
	assert.IsType(t, lens.ErrorMarker{}, sse.Decode("[ERROR] boom"))
	assert.IsType(t, lens.JSONEvent{}, sse.Decode(`{"heartbeat":true}`))
}
