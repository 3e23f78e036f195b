// Package sse implements the consuming half of the text/event-stream wire
// format: incremental frame extraction and payload classification. Only
// "data:" lines are significant; every other field is discarded.
package sse

import (
	"bytes"
	"strings"
)

// delimiter separates frames after CR/LF normalization.
const delimiter = "\n\n"

// FrameParser incrementally splits a byte stream into the payloads of
// "data:"-prefixed lines. Bytes are buffered until a full two-newline
// delimiter is observed, so feeding the same input in arbitrary chunk
// splits yields the same payload sequence. Frame boundaries are newline
// bytes, which never occur inside a multi-byte UTF-8 sequence, so runes
// cannot split across frames.
//
// The zero value is ready to use. Not safe for concurrent use.
type FrameParser struct {
	buf []byte
	// pendingCR holds back a trailing '\r' until the next byte arrives,
	// so a CRLF split across two chunks still collapses to one '\n'.
	pendingCR bool
}

// Feed appends a chunk to the internal buffer and returns the payloads of
// every complete frame found, in arrival order. CRLF and lone CR line
// endings are normalized to LF before frame extraction.
func (p *FrameParser) Feed(chunk []byte) []string {
	for _, b := range chunk {
		if p.pendingCR {
			p.pendingCR = false
			p.buf = append(p.buf, '\n')
			if b == '\n' {
				continue
			}
		}
		if b == '\r' {
			p.pendingCR = true
			continue
		}
		p.buf = append(p.buf, b)
	}
	return p.drain()
}

// Flush processes any buffered remainder as a final partial frame. Called
// at stream end so a trailing event without a closing delimiter is not
// silently dropped. If the server closed mid-line the truncated payload is
// returned as-is; that is an accepted risk, not an error.
func (p *FrameParser) Flush() []string {
	if p.pendingCR {
		p.pendingCR = false
		p.buf = append(p.buf, '\n')
	}
	payloads := p.drain()
	if len(p.buf) > 0 {
		payloads = append(payloads, parseFrame(string(p.buf))...)
		p.buf = nil
	}
	return payloads
}

// drain extracts every complete frame currently in the buffer.
func (p *FrameParser) drain() []string {
	var payloads []string
	for {
		idx := bytes.Index(p.buf, []byte(delimiter))
		if idx < 0 {
			return payloads
		}
		frame := string(p.buf[:idx])
		p.buf = p.buf[idx+len(delimiter):]
		payloads = append(payloads, parseFrame(frame)...)
	}
}

// parseFrame splits a frame into lines and returns the payloads of the
// "data:" lines. Per SSE convention at most one space immediately after
// the colon is stripped; further whitespace belongs to the payload.
func parseFrame(frame string) []string {
	var payloads []string
	for _, line := range strings.Split(frame, "\n") {
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payloads = append(payloads, strings.TrimPrefix(data, " "))
	}
	return payloads
}
