// Package watcher turns DOM snapshots into navigation events. A navigation
// is a change of the (video element, title text) pair; the URL is never
// consulted because the page swaps videos without a full load.
package watcher

import (
	"context"
	"sync"

	"github.com/videogate/videogate/internal/dom"
	"github.com/videogate/videogate/internal/gate"
)

// Binder resolves a video handle from a snapshot to a live element.
type Binder interface {
	Bind(handle string) gate.Video
}

type Listener interface {
	NavigationChanged(ctx context.Context, video gate.Video, title string)
}

type Watcher struct {
	binder   Binder
	listener Listener

	mu     sync.Mutex
	handle string
	title  string
	seen   bool
}

func New(binder Binder, listener Listener) *Watcher {
	return &Watcher{binder: binder, listener: listener}
}

// Observe handles one mutation batch and reports whether it raised a
// navigation event.
func (w *Watcher) Observe(ctx context.Context, s dom.Snapshot) bool {
	if !s.HasVideo() || !s.HasTitle {
		return false
	}

	w.mu.Lock()
	if w.seen && w.handle == s.VideoHandle && w.title == s.Title {
		w.mu.Unlock()
		return false
	}
	w.seen = true
	w.handle = s.VideoHandle
	w.title = s.Title
	w.mu.Unlock()

	w.listener.NavigationChanged(ctx, w.binder.Bind(s.VideoHandle), s.Title)
	return true
}

// Run observes snapshots in arrival order until ctx is done or the channel
// is closed.
func (w *Watcher) Run(ctx context.Context, snapshots <-chan dom.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			w.Observe(ctx, s)
		}
	}
}
