// Package stream implements the generic SSE streaming engine: one
// parameterized session type that owns connection lifecycle, ordered
// payload dispatch, retry with fixed delay, heartbeat tracking, and
// idempotent cancellation. Call sites supply only data — URL, method,
// body, policy constants, and a callback table — never control flow.
package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livelens/lens"
	"github.com/livelens/lens/sse"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosedNormal
	StateClosedCancelled
	StateClosedFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosedNormal:
		return "closed"
	case StateClosedCancelled:
		return "cancelled"
	case StateClosedFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == StateClosedNormal || s == StateClosedCancelled || s == StateClosedFailed
}

// Config parameterizes one logical streaming connection.
type Config struct {
	// URL is the stream endpoint, identifiers already percent-encoded.
	URL string
	// Method defaults to GET. The chat call site POSTs a JSON body.
	Method string
	// Token, when non-empty, is attached as an Authorization bearer header.
	Token string
	// Body is sent verbatim on every (re)connect and implies a
	// Content-Type: application/json header.
	Body []byte
	// Client defaults to http.DefaultClient. SSE connections are
	// long-lived, so any injected client must not carry a total timeout.
	Client *http.Client
	// Logger defaults to a discard logger.
	Logger *slog.Logger
	// Retry bounds reconnection after transport failures.
	Retry RetryPolicy
	// IsHeartbeat reports whether a JSON payload is a heartbeat-only
	// event. Heartbeats refresh the monitor and are consumed silently,
	// never forwarded to OnPayload. Nil means no payload is a heartbeat.
	IsHeartbeat func(lens.JSONEvent) bool
	// StaleAfter enables staleness monitoring: when no payload (heartbeats
	// included) arrives for this long, the condition is logged. Zero
	// disables monitoring.
	StaleAfter time.Duration
	// ReconnectOnStale promotes staleness from a logged observation to a
	// forced reconnect that consumes a retry attempt.
	ReconnectOnStale bool
}

// Handler is the callback table a call site registers with a Session.
// Callbacks are invoked from the session's single reader goroutine in
// arrival order. A panic in any callback is recovered and logged; it never
// aborts the read loop.
type Handler struct {
	// OnPayload receives every decoded payload except sentinels and
	// heartbeats. Returning terminal=true closes the session normally:
	// with a nil error OnDone fires, otherwise OnError fires with err.
	// Terminal payloads never trigger a retry — the failure is inside the
	// payload, not the transport.
	OnPayload func(p lens.Payload) (terminal bool, err error)
	// OnDone fires exactly once on normal completion.
	OnDone func()
	// OnError fires exactly once when the session ends abnormally or with
	// an in-band error. OnDone and OnError are mutually exclusive, and
	// neither fires after cancellation.
	OnError func(err error)
	// OnRetry fires before each reconnect wait, letting call sites
	// distinguish "retrying" from "giving up". Optional.
	OnRetry func(attempt int, delay time.Duration)
}

// Session owns one logical streaming connection, possibly spanning several
// physical connections across reconnects. At most one reader goroutine is
// active per Session; payload order within a connection is preserved.
// Across a reconnect no ordering guarantee exists — duplicates and gaps are
// possible and consumers must treat updates as idempotent overwrites.
type Session struct {
	cfg     Config
	handler Handler
	client  *http.Client
	logger  *slog.Logger
	monitor *HeartbeatMonitor

	ctx        context.Context
	cancel     context.CancelFunc
	cancelOnce sync.Once
	cancelled  atomic.Bool

	state atomic.Int32
	done  chan struct{}
}

// Open validates cfg and starts the session's reader goroutine. Validation
// failures are the only synchronous errors: once Open returns a Session,
// every outcome is delivered through the handler callbacks.
func Open(ctx context.Context, cfg Config, h Handler) (*Session, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("stream: URL is required: %w", lens.ErrValidation)
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("stream: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("stream: unsupported URL scheme %q: %w", u.Scheme, lens.ErrValidation)
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if _, err := http.NewRequest(cfg.Method, cfg.URL, nil); err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		cfg:     cfg,
		handler: h,
		client:  cfg.Client,
		logger:  cfg.Logger,
		monitor: NewHeartbeatMonitor(),
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.state.Store(int32(StateConnecting))
	go s.run()
	return s, nil
}

// Cancel stops the session: it aborts in-flight network operations and
// suppresses all further callbacks, including OnDone and OnError.
// Cancellation is idempotent, and calling it after natural completion is a
// no-op.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		s.cancelled.Store(true)
		s.transition(StateClosedCancelled)
		s.cancel()
	})
}

// Done is closed when the session reaches a terminal state and no further
// callbacks will be invoked.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Heartbeat exposes the staleness monitor for external policy decisions.
func (s *Session) Heartbeat() *HeartbeatMonitor { return s.monitor }

// isCancelled reports user-initiated cancellation: an explicit Cancel call
// or cancellation of the context passed to Open. Both are silent stops.
func (s *Session) isCancelled() bool {
	return s.cancelled.Load() || s.ctx.Err() != nil
}

// transition moves to st unless a terminal state was already reached.
func (s *Session) transition(st State) {
	for {
		cur := State(s.state.Load())
		if cur.terminal() {
			return
		}
		if s.state.CompareAndSwap(int32(cur), int32(st)) {
			return
		}
	}
}

// run drives connect attempts until a terminal state. It is the only
// goroutine that invokes handler callbacks.
func (s *Session) run() {
	defer close(s.done)

	attempt := 0
	for {
		gotPayload, err := s.connect()
		if s.isCancelled() {
			s.transition(StateClosedCancelled)
			return
		}
		if err == nil {
			// Closed normally; completion callbacks already fired.
			return
		}

		// A connection that yielded at least one parsed payload does not
		// inherit exhaustion from a prior unrelated outage.
		if gotPayload {
			attempt = 0
		}
		if !s.cfg.Retry.ShouldRetry(attempt) {
			s.transition(StateClosedFailed)
			s.logger.Error("stream giving up",
				"url", s.cfg.URL,
				"attempts", attempt,
				"error", err,
			)
			s.safeError(fmt.Errorf("stream: %w after %d reconnect attempts: %w",
				lens.ErrRetriesExhausted, attempt, err))
			return
		}

		attempt++
		s.logger.Warn("stream reconnecting",
			"url", s.cfg.URL,
			"attempt", attempt,
			"max_attempts", s.cfg.Retry.MaxAttempts,
			"delay", s.cfg.Retry.Delay,
			"error", err,
		)
		s.safeRetry(attempt, s.cfg.Retry.Delay)

		select {
		case <-time.After(s.cfg.Retry.Delay):
		case <-s.ctx.Done():
			s.transition(StateClosedCancelled)
			return
		}
	}
}

// connect performs one physical connection lifecycle. A nil error means the
// session closed normally (or was cancelled — run checks). gotPayload
// reports whether at least one payload was parsed, which resets the retry
// budget.
func (s *Session) connect() (gotPayload bool, err error) {
	// Connection-scoped context so the staleness watchdog can abort a
	// single connection without looking like user cancellation.
	connCtx, connCancel := context.WithCancel(s.ctx)
	defer connCancel()

	s.transition(StateConnecting)

	var body io.Reader
	if len(s.cfg.Body) > 0 {
		body = bytes.NewReader(s.cfg.Body)
	}
	req, err := http.NewRequestWithContext(connCtx, s.cfg.Method, s.cfg.URL, body)
	if err != nil {
		return false, fmt.Errorf("stream: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	}
	if len(s.cfg.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("stream: connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("stream: unexpected status %d", resp.StatusCode)
	}

	s.transition(StateOpen)
	s.monitor.Touch()
	if s.cfg.StaleAfter > 0 {
		go s.watchStaleness(connCtx, connCancel)
	}

	parser := &sse.FrameParser{}
	buf := make([]byte, 4096)
	for {
		n, readErr := resp.Body.Read(buf)
		if s.isCancelled() {
			// A read that completes after cancellation discards its result.
			return gotPayload, nil
		}
		if n > 0 {
			payloads := parser.Feed(buf[:n])
			if len(payloads) > 0 {
				gotPayload = true
			}
			if s.dispatchAll(payloads) {
				s.transition(StateClosedNormal)
				return gotPayload, nil
			}
			if s.isCancelled() {
				return gotPayload, nil
			}
		}
		if readErr == io.EOF {
			// Best-effort final frame: a trailing event without its
			// delimiter is still delivered.
			payloads := parser.Flush()
			if len(payloads) > 0 {
				gotPayload = true
			}
			terminal := s.dispatchAll(payloads)
			if s.isCancelled() {
				return gotPayload, nil
			}
			if !terminal {
				s.safeDone()
			}
			s.transition(StateClosedNormal)
			return gotPayload, nil
		}
		if readErr != nil {
			return gotPayload, fmt.Errorf("stream: read: %w", readErr)
		}
	}
}

// dispatchAll delivers payloads in arrival order. Returns true when a
// terminal payload closed the session.
func (s *Session) dispatchAll(payloads []string) bool {
	for _, raw := range payloads {
		if s.isCancelled() {
			return false
		}
		if s.dispatch(raw) {
			return true
		}
	}
	return false
}

// dispatch classifies one payload and routes it. Every payload, heartbeats
// included, refreshes the staleness monitor.
func (s *Session) dispatch(raw string) (terminal bool) {
	payload := sse.Decode(raw)
	s.monitor.Touch()

	switch p := payload.(type) {
	case lens.Done:
		s.safeDone()
		return true
	case lens.ErrorMarker:
		s.safeError(fmt.Errorf("stream: %w: %s", lens.ErrStreamFailed, p.Message))
		return true
	case lens.JSONEvent:
		if s.cfg.IsHeartbeat != nil && s.isHeartbeat(p) {
			s.logger.Debug("stream heartbeat", "url", s.cfg.URL)
			return false
		}
		return s.forward(p)
	case lens.RawText:
		return s.forward(p)
	default:
		return false
	}
}

// forward hands a payload to OnPayload and resolves a terminal signal into
// exactly one completion callback.
func (s *Session) forward(p lens.Payload) bool {
	terminal, err := s.safePayload(p)
	if !terminal {
		return false
	}
	if err != nil {
		s.safeError(err)
	} else {
		s.safeDone()
	}
	return true
}

// watchStaleness periodically checks the monitor for one connection.
// Log-only by default; with ReconnectOnStale it aborts the connection so
// the normal retry path takes over.
func (s *Session) watchStaleness(ctx context.Context, force context.CancelFunc) {
	interval := s.cfg.StaleAfter / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.monitor.Stale(s.cfg.StaleAfter) {
				continue
			}
			if s.cfg.ReconnectOnStale {
				s.logger.Warn("stream stale, forcing reconnect",
					"url", s.cfg.URL,
					"last_event", s.monitor.LastSeen(),
					"threshold", s.cfg.StaleAfter,
				)
				force()
				return
			}
			s.logger.Warn("stream stale",
				"url", s.cfg.URL,
				"last_event", s.monitor.LastSeen(),
				"threshold", s.cfg.StaleAfter,
			)
		}
	}
}

// Callback wrappers: panics are contained at the dispatch boundary.

func (s *Session) safePayload(p lens.Payload) (terminal bool, err error) {
	if s.handler.OnPayload == nil {
		return false, nil
	}
	defer s.recoverCallback("payload")
	return s.handler.OnPayload(p)
}

func (s *Session) isHeartbeat(p lens.JSONEvent) (hb bool) {
	defer s.recoverCallback("heartbeat check")
	return s.cfg.IsHeartbeat(p)
}

func (s *Session) safeDone() {
	if s.handler.OnDone == nil {
		return
	}
	defer s.recoverCallback("done")
	s.handler.OnDone()
}

func (s *Session) safeError(err error) {
	if s.handler.OnError == nil {
		return
	}
	defer s.recoverCallback("error")
	s.handler.OnError(err)
}

func (s *Session) safeRetry(attempt int, delay time.Duration) {
	if s.handler.OnRetry == nil {
		return
	}
	defer s.recoverCallback("retry")
	s.handler.OnRetry(attempt, delay)
}

func (s *Session) recoverCallback(name string) {
	if r := recover(); r != nil {
		s.logger.Error("stream callback panicked", "callback", name, "panic", r)
	}
}
