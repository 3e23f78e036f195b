package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/livelens/lens"
	"github.com/livelens/lens/stream"
)

// ProcessingHandler is the callback table for WatchProcessing. Callbacks
// are invoked from the watch's reader goroutine in event order. Any field
// may be nil.
type ProcessingHandler struct {
	// OnUpdate receives every status update, including repeats and
	// regressions after a reconnect. Updates are idempotent overwrites.
	OnUpdate func(lens.ProcessingStatus)
	// OnDone fires once when processing reaches DONE.
	OnDone func()
	// OnError fires once when processing reaches ERROR (with the server's
	// message verbatim) or the watch fails for good.
	OnError func(error)
	// OnRetry fires before each stream reconnect, so UIs can show
	// "retrying" as distinct from "giving up".
	OnRetry func(attempt int, delay time.Duration)
}

// WatchProcessing follows the processing pipeline for one uploaded video.
// It consumes the status SSE stream and, if the stream exhausts its
// reconnect budget, falls back to polling the status endpoint every 5s
// through the same classification until a terminal status arrives. The
// ERROR status ends the watch normally — the failure is inside the
// payload, so it is surfaced through OnError without any reconnect.
func (c *Client) WatchProcessing(ctx context.Context, videoID string, h ProcessingHandler) (*Watch, error) {
	wctx, cancel := context.WithCancel(ctx)
	w := newWatch(cancel)

	handler := stream.Handler{
		OnPayload: func(p lens.Payload) (bool, error) {
			evt, ok := p.(lens.JSONEvent)
			if !ok {
				c.logger.Warn("status stream: non-JSON payload skipped", "video_id", videoID)
				return false, nil
			}
			var status lens.ProcessingStatus
			if err := json.Unmarshal(evt.Raw, &status); err != nil {
				c.logger.Warn("status stream: undecodable payload skipped",
					"video_id", videoID, "error", err)
				return false, nil
			}
			return classifyStatus(status, h)
		},
		OnDone: func() {
			if h.OnDone != nil {
				h.OnDone()
			}
		},
		OnError: func(err error) {
			if errors.Is(err, lens.ErrRetriesExhausted) {
				c.logger.Warn("status stream exhausted, falling back to polling",
					"video_id", videoID, "interval", c.pollInterval)
				w.polling.Store(true)
				go c.pollProcessing(wctx, videoID, h, w)
				return
			}
			if h.OnError != nil {
				h.OnError(err)
			}
		},
		OnRetry: h.OnRetry,
	}

	s, err := stream.Open(wctx, stream.Config{
		URL:         c.baseURL + "/api/videos/" + url.PathEscape(videoID) + "/status/stream",
		Token:       c.token,
		Client:      c.httpClient,
		Logger:      c.logger,
		Retry:       c.statusRetry,
		IsHeartbeat: jsonHeartbeat,
		StaleAfter:  statusStaleAfter,
		// Staleness is observed, not acted on, unless opted in.
		ReconnectOnStale: c.staleReconn,
	}, handler)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		<-s.Done()
		if !w.polling.Load() {
			close(w.done)
		}
	}()
	return w, nil
}

// classifyStatus forwards an update and resolves terminality. Shared
// verbatim between the stream path and the polling fallback so both paths
// classify identically.
func classifyStatus(status lens.ProcessingStatus, h ProcessingHandler) (bool, error) {
	if h.OnUpdate != nil {
		h.OnUpdate(status)
	}
	if !status.Terminal() {
		return false, nil
	}
	if status.Failed() {
		return true, fmt.Errorf("api: %w: %s", lens.ErrStreamFailed, statusFailureMessage(status))
	}
	return true, nil
}

// statusFailureMessage prefers the server-provided message verbatim.
func statusFailureMessage(status lens.ProcessingStatus) string {
	if status.Error != "" {
		return status.Error
	}
	if status.Message != "" {
		return status.Message
	}
	return "processing failed"
}

// pollProcessing is the fallback after stream retry exhaustion. It keeps
// polling until a terminal status, cancellation, or the end of time.
func (c *Client) pollProcessing(ctx context.Context, videoID string, h ProcessingHandler, w *Watch) {
	defer close(w.done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	polls := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			polls++
			status, err := c.ProcessingStatus(ctx, videoID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Warn("status poll failed", "video_id", videoID, "poll", polls, "error", err)
				continue
			}
			status.PollCount = polls

			terminal, terr := classifyStatus(status, h)
			if !terminal {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			if terr != nil {
				if h.OnError != nil {
					h.OnError(terr)
				}
			} else if h.OnDone != nil {
				h.OnDone()
			}
			return
		}
	}
}

// jsonHeartbeat recognizes the status stream's heartbeat-only payloads.
func jsonHeartbeat(evt lens.JSONEvent) bool {
	var hb struct {
		Heartbeat bool `json:"heartbeat"`
	}
	return json.Unmarshal(evt.Raw, &hb) == nil && hb.Heartbeat
}
