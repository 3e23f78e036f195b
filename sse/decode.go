package sse

import (
	"encoding/json"
	"strings"

	"github.com/livelens/lens"
)

// errorTag prefixes in-band error payloads.
const errorTag = "[ERROR]"

// Decode classifies one raw payload string (already stripped of the "data:"
// prefix). The order of checks is significant: the done sentinel and the
// error tag are not valid JSON, so they must be recognized before the JSON
// parse attempt or they would fall through to RawText and non-chat adapters
// would misread them as garbage events.
func Decode(raw string) lens.Payload {
	v := strings.TrimSpace(raw)
	v = strings.TrimSpace(stripQuotes(v))

	if v == "[DONE]" || v == "DONE" {
		return lens.Done{}
	}
	if strings.HasPrefix(v, errorTag) {
		return lens.ErrorMarker{Message: v}
	}
	// Only objects count as JSON events. Every adapter schema is an object,
	// and a bare scalar chat token like "123" must stay a token.
	if strings.HasPrefix(v, "{") && json.Valid([]byte(v)) {
		return lens.JSONEvent{Raw: json.RawMessage(v)}
	}
	return lens.RawText{Text: raw}
}

// stripQuotes removes one pair of matching surrounding quotes (" or ').
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
