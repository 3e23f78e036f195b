package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livelens/lens"
	"github.com/livelens/lens/api"
	"github.com/livelens/lens/stream"
)

func TestStartWatchesDeliversStatusThenAnalytics(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/videos/vid_1/status/stream", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"status\":\"COMPUTING\",\"progress\":0.8}\n\n" +
				"data: {\"status\":\"DONE\",\"progress\":1.0}\n\n"))
	})
	mux.HandleFunc("/api/videos/vid_1/analytics", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(lens.VideoAnalytics{VideoID: "vid_1", GMV: 500})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	events, err := startWatches(context.Background(), api.New(srv.URL), "vid_1", "")
	require.NoError(t, err)

	var statuses []lens.ProcessingStatus
	var analytics *lens.VideoAnalytics
	deadline := time.After(5 * time.Second)
	for analytics == nil {
		select {
		case e := <-events:
			switch evt := e.(type) {
			case lens.EventStatus:
				statuses = append(statuses, evt.Status)
			case lens.EventAnalytics:
				a := evt.Analytics
				analytics = &a
			}
		case <-deadline:
			t.Fatal("timed out waiting for analytics event")
		}
	}

	require.Len(t, statuses, 2)
	assert.Equal(t, "DONE", statuses[1].Status)
	assert.Equal(t, 500.0, analytics.GMV)
}

func TestStartWatchesSurfacesLiveFailureAsAdvice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := api.New(srv.URL,
		api.WithLiveRetry(stream.RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond}))

	events, err := startWatches(context.Background(), client, "", "live_9")
	require.NoError(t, err)

	select {
	case e := <-events:
		advice, ok := e.(lens.EventAdvice)
		require.True(t, ok, "expected advice event, got %T", e)
		assert.Equal(t, "critical", advice.Advice.Severity)
		assert.Equal(t, "Live updates unavailable", advice.Advice.Title)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for failure advice")
	}
}
