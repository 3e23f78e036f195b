package lens

import "encoding/json"

// Payload is a sealed interface representing one decoded SSE data payload.
// Classification happens once, in sse.Decode; adapters type-switch on the
// result instead of re-inspecting raw strings. The unexported marker method
// prevents external implementations.
type Payload interface {
	payload()
}

// Done is the stream-complete sentinel ("[DONE]" or "DONE" on the wire).
type Done struct{}

func (Done) payload() {}

// ErrorMarker is an in-band error payload (a string prefixed with
// "[ERROR]"). Message carries the full string including the tag.
type ErrorMarker struct {
	Message string
}

func (ErrorMarker) payload() {}

// JSONEvent is a payload that parsed as a JSON object. Raw holds the
// original bytes; adapters unmarshal into their own schema.
type JSONEvent struct {
	Raw json.RawMessage
}

func (JSONEvent) payload() {}

// RawText is the fallback for payloads that are neither sentinels nor JSON
// objects. The chat token stream emits these for normal answer tokens;
// other adapters log and skip them.
type RawText struct {
	Text string
}

func (RawText) payload() {}

// Interface compliance checks.
var (
	_ Payload = Done{}
	_ Payload = ErrorMarker{}
	_ Payload = JSONEvent{}
	_ Payload = RawText{}
)
