package api

import (
	"context"
	"sync"
	"sync/atomic"
)

// Watch is a cancellable handle on a server event stream.
type Watch struct {
	cancelOnce sync.Once
	cancelFn   context.CancelFunc
	done       chan struct{}
	// polling flips when the status watcher hands off to its polling
	// fallback; the poller then owns closing done.
	polling atomic.Bool
}

func newWatch(cancel context.CancelFunc) *Watch {
	return &Watch{cancelFn: cancel, done: make(chan struct{})}
}

// Cancel stops the watch promptly and suppresses further callbacks.
// Idempotent; cancelling a finished watch is a no-op.
func (w *Watch) Cancel() {
	w.cancelOnce.Do(w.cancelFn)
}

// Done is closed when the watch has fully stopped and no further callbacks
// will be invoked.
func (w *Watch) Done() <-chan struct{} { return w.done }
