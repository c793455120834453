// Package chrome drives a watch page in a running Chrome over the DevTools
// protocol. It reports DOM snapshots to the navigation watcher, controls
// video elements for the gate and runs player commands in the page.
package chrome

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/videogate/videogate/internal/dom"
	"github.com/videogate/videogate/internal/gate"
	"github.com/videogate/videogate/internal/player"
)

const (
	attachTimeout = 15 * time.Second
	evalTimeout   = 5 * time.Second
)

type Host struct {
	ctx    context.Context
	cancel context.CancelFunc
	tabID  string

	// capture returns the serialized document; swapped in tests.
	capture func(ctx context.Context) (string, error)
	eval    func(ctx context.Context, expr string) (bool, error)

	dirty     chan struct{}
	snapshots chan dom.Snapshot

	mu           sync.Mutex
	interceptors map[string]map[int]func()
	nextID       int
}

func newHost(ctx context.Context, cancel context.CancelFunc, tabID string) *Host {
	h := &Host{
		ctx:          ctx,
		cancel:       cancel,
		tabID:        tabID,
		dirty:        make(chan struct{}, 1),
		snapshots:    make(chan dom.Snapshot),
		interceptors: make(map[string]map[int]func()),
	}
	h.capture = h.outerHTML
	h.eval = h.evaluate
	return h
}

// Attach connects to the browser at cdpURL, opens watchURL in a new tab and
// installs the page observer.
func Attach(parent context.Context, cdpURL, watchURL string) (*Host, error) {
	slog.Info("connecting to Chrome", "url", cdpURL)
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(parent, cdpURL)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	h := newHost(tabCtx, cancel, "")
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == bindingName {
			h.handleBinding(e.Payload)
		}
	})

	// The first Run creates the tab and ties it to tabCtx, so it must not
	// run under the attach timeout.
	errCh := make(chan error, 1)
	go func() {
		errCh <- chromedp.Run(tabCtx,
			chromedp.ActionFunc(func(ctx context.Context) error {
				return runtime.AddBinding(bindingName).Do(ctx)
			}),
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, err := page.AddScriptToEvaluateOnNewDocument(observerScript()).Do(ctx)
				return err
			}),
			chromedp.Navigate(watchURL),
		)
	}()

	timer := time.NewTimer(attachTimeout)
	defer timer.Stop()
	select {
	case err := <-errCh:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("open watch page: %w", err)
		}
	case <-timer.C:
		cancel()
		return nil, fmt.Errorf("attach to chrome: timed out after %s", attachTimeout)
	}
	h.tabID = string(chromedp.FromContext(tabCtx).Target.TargetID)

	slog.Info("chrome host attached", "tab", h.tabID, "url", watchURL)
	return h, nil
}

func (h *Host) TabID() string { return h.tabID }

// Snapshots delivers page snapshots in mutation order until Run returns.
func (h *Host) Snapshots() <-chan dom.Snapshot { return h.snapshots }

// Run turns mutation notifications into snapshots. Notifications that
// arrive while a snapshot is being taken collapse into one more snapshot.
func (h *Host) Run(ctx context.Context) {
	defer close(h.snapshots)
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.dirty:
			s, err := h.Current(ctx)
			if err != nil {
				slog.Debug("chrome: snapshot failed", "error", err)
				continue
			}
			select {
			case h.snapshots <- s:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *Host) Close() {
	if h.cancel != nil {
		h.cancel()
	}
}

// Current reads the page's serialized document.
func (h *Host) Current(ctx context.Context) (dom.Snapshot, error) {
	doc, err := h.capture(ctx)
	if err != nil {
		return dom.Snapshot{}, err
	}
	return dom.Parse(strings.NewReader(doc))
}

func (h *Host) Bind(handle string) gate.Video {
	return &video{host: h, handle: handle}
}

// Execute runs cmd on the player of the host's tab.
func (h *Host) Execute(ctx context.Context, tabID string, cmd player.Command) (bool, error) {
	if tabID != h.tabID {
		return false, fmt.Errorf("unknown tab %q", tabID)
	}
	return h.eval(ctx, commandScript(cmd))
}

// handleBinding runs on the CDP event goroutine and must not block on the
// browser.
func (h *Host) handleBinding(payload string) {
	ev, err := parseBindingEvent(payload)
	if err != nil {
		slog.Debug("chrome: ignoring binding call", "error", err)
		return
	}

	switch ev.Kind {
	case kindMutation:
		select {
		case h.dirty <- struct{}{}:
		default:
		}
	case kindPlay:
		h.mu.Lock()
		fns := make([]func(), 0, len(h.interceptors[ev.Handle]))
		for _, fn := range h.interceptors[ev.Handle] {
			fns = append(fns, fn)
		}
		h.mu.Unlock()
		for _, fn := range fns {
			go fn()
		}
	}
}

func (h *Host) intercept(handle string, fn func()) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	if h.interceptors[handle] == nil {
		h.interceptors[handle] = make(map[int]func())
	}
	h.interceptors[handle][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.interceptors[handle], id)
		if len(h.interceptors[handle]) == 0 {
			delete(h.interceptors, handle)
		}
	}
}

func (h *Host) outerHTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	runCtx, cancel := context.WithTimeout(h.ctx, evalTimeout)
	defer cancel()

	var doc string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &doc, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return doc, nil
}

func (h *Host) evaluate(ctx context.Context, expr string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	runCtx, cancel := context.WithTimeout(h.ctx, evalTimeout)
	defer cancel()

	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &ok)); err != nil {
		return false, fmt.Errorf("evaluate: %w", err)
	}
	return ok, nil
}

type video struct {
	host   *Host
	handle string
}

func (v *video) Handle() string { return v.handle }

func (v *video) Pause() error {
	found, err := v.host.eval(context.Background(), pauseScript(v.handle))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("video %s is gone", v.handle)
	}
	return nil
}

func (v *video) Intercept(fn func()) func() {
	return v.host.intercept(v.handle, fn)
}
