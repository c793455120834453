package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/videogate/videogate/internal/blocklist"
)

// Store is the part of blocklist.Repository the updater writes through.
type Store interface {
	Remote(ctx context.Context) (blocklist.RemoteConfig, bool, error)
	SaveRemote(ctx context.Context, rc blocklist.RemoteConfig) error
	Save(ctx context.Context, bl blocklist.Blocklist, rc blocklist.RemoteConfig) error
}

// Observer is told about every completed fetch attempt.
type Observer interface {
	RefreshCompleted(err error)
}

// Updater refreshes the stored blocklist from the stored remote config.
type Updater struct {
	store    Store
	fetcher  *Fetcher
	observer Observer
	group    singleflight.Group
}

func NewUpdater(store Store, fetcher *Fetcher, observer Observer) *Updater {
	return &Updater{store: store, fetcher: fetcher, observer: observer}
}

// Refresh fetches the remote document and stores the outcome. A failed
// fetch only records lastError and lastFetchedAt; the blocklist is kept.
// Overlapping calls share a single fetch. ErrNotConfigured is returned
// when the remote is disabled or has no URL.
func (u *Updater) Refresh(ctx context.Context) (Result, error) {
	v, err, _ := u.group.Do("refresh", func() (any, error) {
		return u.refresh(ctx)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (u *Updater) refresh(ctx context.Context) (Result, error) {
	rc, _, err := u.store.Remote(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load remote config: %w", err)
	}
	if !rc.Usable() {
		return Result{}, ErrNotConfigured
	}

	res := u.fetcher.Result(ctx, rc)
	if u.observer != nil {
		var fetchErr error
		if !res.OK() {
			fetchErr = errors.New(res.Error)
		}
		u.observer.RefreshCompleted(fetchErr)
	}

	if !res.OK() {
		slog.Warn("remote: fetch failed", "url", rc.URL, "error", res.Error)
		msg := res.Error
		rc.LastFetchedAt = res.FetchedAt
		rc.LastError = &msg
		if err := u.store.SaveRemote(ctx, rc); err != nil {
			return Result{}, fmt.Errorf("save remote config: %w", err)
		}
		return res, nil
	}

	if err := u.store.Save(ctx, *res.Blocklist, *res.Remote); err != nil {
		return Result{}, fmt.Errorf("save remote blocklist: %w", err)
	}
	slog.Info("remote: blocklist updated",
		"url", rc.URL,
		"keywords", len(res.Blocklist.Keywords),
		"channels", len(res.Blocklist.Channels),
	)
	return res, nil
}

// StartRefreshWorker refreshes once immediately and then every interval
// until ctx is done.
func StartRefreshWorker(ctx context.Context, u *Updater, interval time.Duration) {
	go func() {
		slog.Info("refresh-worker: started", "interval", interval)
		runRefresh(ctx, u)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("refresh-worker: shutting down")
				return
			case <-ticker.C:
				runRefresh(ctx, u)
			}
		}
	}()
}

func runRefresh(ctx context.Context, u *Updater) {
	if _, err := u.Refresh(ctx); err != nil && !errors.Is(err, ErrNotConfigured) {
		slog.Error("refresh-worker: refresh failed", "error", err)
	}
}
