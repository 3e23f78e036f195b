package api_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/livelens/lens"
	"github.com/livelens/lens/api"
	"github.com/livelens/lens/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// statusRecorder collects ProcessingHandler callbacks for assertions.
type statusRecorder struct {
	mu      sync.Mutex
	updates []lens.ProcessingStatus
	dones   int
	errs    []error
}

func (r *statusRecorder) handler() api.ProcessingHandler {
	return api.ProcessingHandler{
		OnUpdate: func(s lens.ProcessingStatus) {
			r.mu.Lock()
			r.updates = append(r.updates, s)
			r.mu.Unlock()
		},
		OnDone: func() {
			r.mu.Lock()
			r.dones++
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	}
}

func (r *statusRecorder) snapshot() ([]lens.ProcessingStatus, int, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]lens.ProcessingStatus(nil), r.updates...), r.dones,
		append([]error(nil), r.errs...)
}

func waitWatch(t *testing.T, w *api.Watch) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not finish")
	}
}

func TestWatchProcessingCompletes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/videos/v1/status/stream", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w,
			"data: {\"status\":\"COMPUTING\",\"progress\":0.3,\"message\":\"detecting products\"}\n\n",
			"data: {\"status\":\"COMPUTING\",\"progress\":0.8}\n\n",
			"data: {\"status\":\"DONE\",\"progress\":1}\n\n",
		)
	}))
	defer srv.Close()

	var rec statusRecorder
	c := api.New(srv.URL)
	w, err := c.WatchProcessing(context.Background(), "v1", rec.handler())
	require.NoError(t, err)
	waitWatch(t, w)

	updates, dones, errs := rec.snapshot()
	require.Len(t, updates, 3)
	assert.Equal(t, 0.3, updates[0].Progress)
	assert.Equal(t, "DONE", updates[2].Status)
	assert.Equal(t, 1, dones)
	assert.Empty(t, errs)
}

func TestWatchProcessingErrorStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"status\":\"ERROR\",\"error\":\"transcription model unavailable\"}\n\n")
	}))
	defer srv.Close()

	var rec statusRecorder
	c := api.New(srv.URL)
	w, err := c.WatchProcessing(context.Background(), "v1", rec.handler())
	require.NoError(t, err)
	waitWatch(t, w)

	updates, dones, errs := rec.snapshot()
	require.Len(t, updates, 1)
	assert.Equal(t, 0, dones)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], lens.ErrStreamFailed)
	assert.Contains(t, errs[0].Error(), "transcription model unavailable")
	assert.Equal(t, int32(1), hits.Load(), "an ERROR status is not a transport failure")
}

func TestWatchProcessingSkipsHeartbeats(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w,
			"data: {\"heartbeat\":true}\n\n",
			"data: {\"status\":\"COMPUTING\",\"progress\":0.5}\n\n",
			"data: {\"heartbeat\":true}\n\n",
			"data: {\"status\":\"DONE\",\"progress\":1}\n\n",
		)
	}))
	defer srv.Close()

	var rec statusRecorder
	c := api.New(srv.URL)
	w, err := c.WatchProcessing(context.Background(), "v1", rec.handler())
	require.NoError(t, err)
	waitWatch(t, w)

	updates, dones, _ := rec.snapshot()
	require.Len(t, updates, 2)
	assert.Equal(t, 0.5, updates[0].Progress)
	assert.Equal(t, 1, dones)
}

func TestWatchProcessingFallsBackToPolling(t *testing.T) {
	t.Parallel()

	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/videos/v1/status/stream":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/api/videos/v1/status":
			if polls.Add(1) < 2 {
				fmt.Fprint(w, `{"status":"COMPUTING","progress":0.9}`)
				return
			}
			fmt.Fprint(w, `{"status":"DONE","progress":1}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	var rec statusRecorder
	c := api.New(srv.URL, api.WithStatusRetry(stream.RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond}))
	c.SetPollInterval(10 * time.Millisecond)

	w, err := c.WatchProcessing(context.Background(), "v1", rec.handler())
	require.NoError(t, err)
	waitWatch(t, w)

	updates, dones, errs := rec.snapshot()
	require.Len(t, updates, 2, "poll updates flow through the same classification")
	assert.Equal(t, 1, updates[0].PollCount)
	assert.Equal(t, 2, updates[1].PollCount)
	assert.Equal(t, "DONE", updates[1].Status)
	assert.Equal(t, 1, dones)
	assert.Empty(t, errs, "retry exhaustion is absorbed by the polling fallback")
}

func TestWatchProcessingCancel(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"status\":\"COMPUTING\",\"progress\":0.1}\n\n")
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	var rec statusRecorder
	c := api.New(srv.URL)
	w, err := c.WatchProcessing(context.Background(), "v1", rec.handler())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		updates, _, _ := rec.snapshot()
		return len(updates) == 1
	}, 5*time.Second, 10*time.Millisecond)

	w.Cancel()
	w.Cancel() // idempotent
	waitWatch(t, w)

	_, dones, errs := rec.snapshot()
	assert.Equal(t, 0, dones, "cancellation is silent")
	assert.Empty(t, errs)
}
