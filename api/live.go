package api

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/livelens/lens"
	"github.com/livelens/lens/stream"
)

// LiveHandler is the callback table for WatchLive. Any field may be nil.
type LiveHandler struct {
	OnMetrics   func(lens.LiveMetrics)
	OnAdvice    func(lens.Advice)
	OnStreamURL func(string)
	// OnDone fires once when the live session ends (stream_ended event or
	// clean stream end).
	OnDone func()
	// OnError fires once when the watch fails for good.
	OnError func(error)
	// OnRetry fires before each reconnect attempt.
	OnRetry func(attempt int, delay time.Duration)
}

// liveEvent is the wire envelope of the live stream: a discriminator plus
// an event-specific payload.
type liveEvent struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// WatchLive follows the real-time event stream of an in-progress live
// session: metrics updates, advisory messages, the playback URL, and the
// end-of-session marker. Unknown event types are logged and ignored —
// the backend adds event types faster than clients update. Live sessions
// are long-running, so this call site carries the largest reconnect
// budget.
func (c *Client) WatchLive(ctx context.Context, liveID string, h LiveHandler) (*Watch, error) {
	wctx, cancel := context.WithCancel(ctx)
	w := newWatch(cancel)

	handler := stream.Handler{
		OnPayload: func(p lens.Payload) (bool, error) {
			evt, ok := p.(lens.JSONEvent)
			if !ok {
				c.logger.Warn("live stream: non-JSON payload skipped", "live_id", liveID)
				return false, nil
			}
			var le liveEvent
			if err := json.Unmarshal(evt.Raw, &le); err != nil {
				c.logger.Warn("live stream: undecodable payload skipped",
					"live_id", liveID, "error", err)
				return false, nil
			}
			return c.dispatchLive(liveID, le, h)
		},
		OnDone: func() {
			if h.OnDone != nil {
				h.OnDone()
			}
		},
		OnError: func(err error) {
			if h.OnError != nil {
				h.OnError(err)
			}
		},
		OnRetry: h.OnRetry,
	}

	s, err := stream.Open(wctx, stream.Config{
		URL:    c.baseURL + "/api/live/" + url.PathEscape(liveID) + "/events",
		Token:  c.token,
		Client: c.httpClient,
		Logger: c.logger,
		Retry:  c.liveRetry,
		IsHeartbeat: func(evt lens.JSONEvent) bool {
			var le liveEvent
			return json.Unmarshal(evt.Raw, &le) == nil && le.EventType == lens.LiveEventHeartbeat
		},
	}, handler)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		<-s.Done()
		close(w.done)
	}()
	return w, nil
}

// dispatchLive routes one live event to its typed callback. Payloads that
// fail to decode are skipped, never fatal: after a reconnect the backend
// may replay or drop events and consumers already tolerate gaps.
func (c *Client) dispatchLive(liveID string, le liveEvent, h LiveHandler) (bool, error) {
	switch le.EventType {
	case lens.LiveEventMetrics:
		var m lens.LiveMetrics
		if err := json.Unmarshal(le.Payload, &m); err != nil {
			c.logger.Warn("live stream: bad metrics payload", "live_id", liveID, "error", err)
			return false, nil
		}
		if h.OnMetrics != nil {
			h.OnMetrics(m)
		}
	case lens.LiveEventAdvice:
		var a lens.Advice
		if err := json.Unmarshal(le.Payload, &a); err != nil {
			c.logger.Warn("live stream: bad advice payload", "live_id", liveID, "error", err)
			return false, nil
		}
		if h.OnAdvice != nil {
			h.OnAdvice(a)
		}
	case lens.LiveEventStreamURL:
		var u struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(le.Payload, &u); err != nil {
			c.logger.Warn("live stream: bad stream_url payload", "live_id", liveID, "error", err)
			return false, nil
		}
		if h.OnStreamURL != nil {
			h.OnStreamURL(u.URL)
		}
	case lens.LiveEventStreamEnded:
		return true, nil
	default:
		c.logger.Warn("live stream: unknown event type ignored",
			"live_id", liveID, "event_type", le.EventType)
	}
	return false, nil
}
