// Package gate holds playback suppression for one tab while a newly
// navigated video is checked against the blocklist.
//
// Every navigation starts a new cycle: the video is paused and muted at
// once, an interceptor keeps it that way if the page tries to resume, and
// the blocklist is evaluated after a short delay. Cycles are numbered; a
// cycle whose number is no longer current never touches playback.
package gate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/videogate/videogate/internal/blocklist"
	"github.com/videogate/videogate/internal/dom"
	"github.com/videogate/videogate/internal/player"
)

const DefaultDelay = 250 * time.Millisecond

type State int

const (
	Unblocked State = iota
	BlockedPending
	BlockedConfirmed
)

func (s State) String() string {
	switch s {
	case Unblocked:
		return "unblocked"
	case BlockedPending:
		return "blocked_pending"
	case BlockedConfirmed:
		return "blocked_confirmed"
	}
	return "unknown"
}

// Video is a handle to the page's playing video element.
type Video interface {
	Handle() string
	Pause() error
	// Intercept calls fn whenever the page starts or resumes playback and
	// returns a function that removes the interceptor.
	Intercept(fn func()) (detach func())
}

// Page reads the current state of the watch page.
type Page interface {
	Current(ctx context.Context) (dom.Snapshot, error)
}

// Source provides the stored blocklist and the debug flag.
type Source interface {
	Blocklist(ctx context.Context) (blocklist.Blocklist, bool, error)
	DebugMode(ctx context.Context) bool
}

type Timer interface {
	Stop() bool
}

// Observer receives state transitions and command outcomes.
type Observer interface {
	StateChanged(s State)
	CommandSent(cmd player.Command, ok bool)
}

type Config struct {
	// Delay between a navigation and its blocklist evaluation.
	Delay time.Duration
	// AfterFunc schedules evaluation. Defaults to time.AfterFunc.
	AfterFunc func(d time.Duration, f func()) Timer
	Observer  Observer
	Logger    *slog.Logger
}

type Controller struct {
	page    Page
	source  Source
	channel player.Channel
	cfg     Config
	log     *slog.Logger

	mu     sync.Mutex
	state  State
	video  Video
	title  string
	seq    uint64
	timer  Timer
	detach func()
	closed bool
}

func New(page Page, source Source, channel player.Channel, cfg Config) *Controller {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		page:    page,
		source:  source,
		channel: channel,
		cfg:     cfg,
		log:     logger,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NavigationChanged starts a new gating cycle for video. Playback is
// suppressed before it returns.
func (c *Controller) NavigationChanged(ctx context.Context, video Video, title string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.seq++
	seq := c.seq
	c.video = video
	c.title = title
	c.setStateLocked(BlockedPending)
	c.mu.Unlock()

	detach := video.Intercept(func() { c.reapply(ctx, seq) })
	c.suppress(ctx, video)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || seq != c.seq {
		detach()
		return
	}
	c.detach = detach
	c.timer = c.cfg.AfterFunc(c.cfg.Delay, func() { c.evaluate(ctx, seq) })
}

// Close stops the pending evaluation and removes interceptors. Later
// navigations are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.detach != nil {
		c.detach()
		c.detach = nil
	}
}

func (c *Controller) setStateLocked(s State) {
	c.state = s
	if c.cfg.Observer != nil {
		c.cfg.Observer.StateChanged(s)
	}
}

func (c *Controller) current(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && seq == c.seq
}

// reapply runs when the page resumes playback during a blocked cycle.
func (c *Controller) reapply(ctx context.Context, seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.seq || c.state == Unblocked {
		c.mu.Unlock()
		return
	}
	video := c.video
	c.mu.Unlock()

	c.suppress(ctx, video)
}

func (c *Controller) suppress(ctx context.Context, video Video) {
	if err := video.Pause(); err != nil {
		c.debug(ctx, "gate: pause failed", "video", video.Handle(), "error", err)
	}
	c.send(ctx, player.Mute)
}

func (c *Controller) evaluate(ctx context.Context, seq uint64) {
	if !c.current(seq) {
		return
	}

	bl, _, err := c.source.Blocklist(ctx)
	if err != nil {
		c.log.Warn("gate: failed to read blocklist, keeping playback blocked", "error", err)
		return
	}
	var snap dom.Snapshot
	if c.page != nil {
		snap, err = c.page.Current(ctx)
		if err != nil {
			c.log.Warn("gate: failed to read page, keeping playback blocked", "error", err)
			return
		}
	}

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		return
	}
	title := c.title
	if snap.HasTitle {
		title = snap.Title
	}
	verdict := blocklist.Explain(title, snap.ChannelID, bl)
	c.timer = nil
	if verdict.Blocked {
		c.setStateLocked(BlockedConfirmed)
		c.mu.Unlock()
		c.debug(ctx, "gate: video blocked", "title", title, "match", verdict.Reason)
		return
	}
	detach := c.detach
	c.detach = nil
	c.setStateLocked(Unblocked)
	c.mu.Unlock()

	if detach != nil {
		detach()
	}
	c.debug(ctx, "gate: video allowed", "title", title, "checked", verdict.Reason)
	// A navigation may land once the lock is released; its mute must win.
	for _, cmd := range []player.Command{player.UnMute, player.PlayVideo} {
		if !c.current(seq) {
			return
		}
		c.send(ctx, cmd)
	}
}

func (c *Controller) send(ctx context.Context, cmd player.Command) {
	ok := c.channel.Send(ctx, cmd)
	if c.cfg.Observer != nil {
		c.cfg.Observer.CommandSent(cmd, ok)
	}
	if !ok {
		c.debug(ctx, "gate: player command failed", "command", string(cmd))
	}
}

// debug logs only while the stored debug flag is on.
func (c *Controller) debug(ctx context.Context, msg string, args ...any) {
	if c.source.DebugMode(ctx) {
		c.log.Info(msg, args...)
	}
}
