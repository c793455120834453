// Package localfile keeps the blocklist in sync with a JSON document on
// disk. The file is imported at start and again after every write.
package localfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/videogate/videogate/internal/blocklist"
	"github.com/videogate/videogate/internal/options"
)

const DefaultDebounce = 200 * time.Millisecond

// Importer replaces the blocklist from a document.
type Importer interface {
	Import(ctx context.Context, data []byte) (blocklist.Blocklist, error)
}

type Syncer struct {
	path     string
	importer Importer
	debounce time.Duration
}

func New(path string, importer Importer) (*Syncer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve blocklist file: %w", err)
	}
	return &Syncer{path: abs, importer: importer, debounce: DefaultDebounce}, nil
}

// Load imports the file once. A missing file is not an error.
func (s *Syncer) Load(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read blocklist file: %w", err)
	}

	bl, err := s.importer.Import(ctx, data)
	if err != nil {
		if errors.Is(err, options.ErrRemoteEnabled) {
			slog.Info("localfile: remote blocklist enabled, file ignored", "path", s.path)
			return nil
		}
		return fmt.Errorf("import blocklist file: %w", err)
	}
	slog.Info("localfile: blocklist imported",
		"path", s.path,
		"keywords", len(bl.Keywords),
		"channels", len(bl.Channels),
	)
	return nil
}

// Watch loads the file and reloads it after changes until ctx is done.
// The parent directory is watched so editors that replace the file are
// picked up.
func (s *Syncer) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	if err := s.Load(ctx); err != nil {
		slog.Error("localfile: initial load failed", "error", err)
	}

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	target := filepath.Base(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case <-reload:
			if err := s.Load(ctx); err != nil {
				slog.Error("localfile: reload failed", "error", err)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("localfile: watcher error", "error", err)
		}
	}
}
