package watcher

import (
	"context"
	"testing"
	"time"

	"github.com/videogate/videogate/internal/dom"
	"github.com/videogate/videogate/internal/gate"
)

type stubVideo string

func (v stubVideo) Handle() string          { return string(v) }
func (v stubVideo) Pause() error            { return nil }
func (v stubVideo) Intercept(func()) func() { return func() {} }

type stubBinder struct{}

func (stubBinder) Bind(handle string) gate.Video { return stubVideo(handle) }

type navigation struct {
	handle string
	title  string
}

type recorder struct {
	events []navigation
	done   chan struct{}
}

func (r *recorder) NavigationChanged(_ context.Context, video gate.Video, title string) {
	r.events = append(r.events, navigation{video.Handle(), title})
	if r.done != nil {
		r.done <- struct{}{}
	}
}

func snap(handle, title string) dom.Snapshot {
	return dom.Snapshot{VideoHandle: handle, Title: title, HasTitle: true}
}

func TestObserve(t *testing.T) {
	tests := []struct {
		name      string
		snapshots []dom.Snapshot
		expected  []navigation
	}{
		{
			name:      "first video",
			snapshots: []dom.Snapshot{snap("1", "a")},
			expected:  []navigation{{"1", "a"}},
		},
		{
			name:      "repeated mutations do not re-trigger",
			snapshots: []dom.Snapshot{snap("1", "a"), snap("1", "a"), snap("1", "a")},
			expected:  []navigation{{"1", "a"}},
		},
		{
			name:      "title change on the same element",
			snapshots: []dom.Snapshot{snap("1", "a"), snap("1", "b")},
			expected:  []navigation{{"1", "a"}, {"1", "b"}},
		},
		{
			name:      "element swap with the same title",
			snapshots: []dom.Snapshot{snap("1", "a"), snap("2", "a")},
			expected:  []navigation{{"1", "a"}, {"2", "a"}},
		},
		{
			name:      "missing video is ignored",
			snapshots: []dom.Snapshot{{Title: "a", HasTitle: true}},
			expected:  nil,
		},
		{
			name:      "missing title is ignored",
			snapshots: []dom.Snapshot{{VideoHandle: "1"}, snap("1", "a")},
			expected:  []navigation{{"1", "a"}},
		},
		{
			name:      "empty title is still a title",
			snapshots: []dom.Snapshot{snap("1", "")},
			expected:  []navigation{{"1", ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			w := New(stubBinder{}, rec)
			for _, s := range tt.snapshots {
				w.Observe(context.Background(), s)
			}
			if len(rec.events) != len(tt.expected) {
				t.Fatalf("expected %d events, got %v", len(tt.expected), rec.events)
			}
			for i := range tt.expected {
				if rec.events[i] != tt.expected[i] {
					t.Errorf("event %d: expected %v, got %v", i, tt.expected[i], rec.events[i])
				}
			}
		})
	}
}

func TestRunStopsOnClose(t *testing.T) {
	rec := &recorder{done: make(chan struct{}, 1)}
	w := New(stubBinder{}, rec)
	ch := make(chan dom.Snapshot)
	finished := make(chan struct{})

	go func() {
		w.Run(context.Background(), ch)
		close(finished)
	}()

	ch <- snap("1", "a")
	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("expected a navigation event")
	}
	close(ch)

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("expected Run to return")
	}
}
