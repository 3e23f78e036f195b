package main

import (
	"context"
	"time"

	"github.com/livelens/lens"
	"github.com/livelens/lens/api"
)

// eventBuffer absorbs bursts from the live stream so watch callbacks never
// block behind a slow TUI frame.
const eventBuffer = 256

// startWatches opens the processing and live watches requested by flags and
// funnels their callbacks into a single event channel for the TUI. The
// channel stays open for the lifetime of the program; a watch that ends
// simply stops sending. Watch failures surface in the feed as critical
// advice so the dashboard keeps running on whatever streams remain.
func startWatches(ctx context.Context, client *api.Client, videoID, liveID string) (<-chan lens.Event, error) {
	events := make(chan lens.Event, eventBuffer)

	send := func(e lens.Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}
	fail := func(title string) func(error) {
		return func(err error) {
			send(lens.EventAdvice{Advice: lens.Advice{
				Severity:  "critical",
				Title:     title,
				Body:      err.Error(),
				Timestamp: time.Now(),
			}})
		}
	}

	if videoID != "" {
		_, err := client.WatchProcessing(ctx, videoID, api.ProcessingHandler{
			OnUpdate: func(st lens.ProcessingStatus) { send(lens.EventStatus{Status: st}) },
			OnDone: func() {
				// Fetch off the dispatch goroutine; the report can be large.
				go func() {
					a, err := client.GetAnalytics(ctx, videoID)
					if err != nil {
						fail("Analytics unavailable")(err)
						return
					}
					send(lens.EventAnalytics{Analytics: a})
				}()
			},
			OnError: fail("Processing updates unavailable"),
		})
		if err != nil {
			return nil, err
		}
	}

	if liveID != "" {
		_, err := client.WatchLive(ctx, liveID, api.LiveHandler{
			OnMetrics:   func(m lens.LiveMetrics) { send(lens.EventMetrics{Metrics: m}) },
			OnAdvice:    func(a lens.Advice) { send(lens.EventAdvice{Advice: a}) },
			OnStreamURL: func(url string) { send(lens.EventStreamURL{URL: url}) },
			OnDone:      func() { send(lens.EventStreamEnded{}) },
			OnError:     fail("Live updates unavailable"),
		})
		if err != nil {
			return nil, err
		}
	}

	return events, nil
}
