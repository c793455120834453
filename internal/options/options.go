// Package options implements the user-facing settings operations: editing
// the local blocklist, configuring the remote list, import/export and the
// debug flag.
package options

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/videogate/videogate/internal/blocklist"
	"github.com/videogate/videogate/internal/remote"
	"github.com/videogate/videogate/internal/validate"
)

var (
	ErrRemoteEnabled = errors.New("blocklist is managed by the remote url")
	ErrEmpty         = errors.New("blocklist is empty")
)

// ValidationError carries a user-facing message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type Service struct {
	repo *blocklist.Repository
	now  func() time.Time
}

func NewService(repo *blocklist.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Blocklist returns the stored blocklist, or an empty one.
func (s *Service) Blocklist(ctx context.Context) (blocklist.Blocklist, error) {
	bl, ok, err := s.repo.Blocklist(ctx)
	if err != nil {
		return blocklist.Blocklist{}, err
	}
	if !ok {
		return blocklist.Blocklist{Keywords: []string{}, Channels: []string{}}, nil
	}
	return bl, nil
}

// ReplaceBlocklist stores new entries. Empty entries are dropped.
func (s *Service) ReplaceBlocklist(ctx context.Context, keywords, channels []string) (blocklist.Blocklist, error) {
	if err := s.ensureLocal(ctx); err != nil {
		return blocklist.Blocklist{}, err
	}
	return s.store(ctx, keywords, channels)
}

// Remote returns the stored remote config, or the disabled default.
func (s *Service) Remote(ctx context.Context) (blocklist.RemoteConfig, error) {
	rc, _, err := s.repo.Remote(ctx)
	return rc, err
}

// UpdateRemote changes the enabled flag and URL, keeping the fetch
// bookkeeping. Enabling requires a valid URL.
func (s *Service) UpdateRemote(ctx context.Context, enabled bool, url string) (blocklist.RemoteConfig, error) {
	url = strings.TrimSpace(url)
	if enabled {
		if msg := validate.RemoteURL(url); msg != "" {
			return blocklist.RemoteConfig{}, &ValidationError{Message: msg}
		}
	}

	rc, _, err := s.repo.Remote(ctx)
	if err != nil {
		return blocklist.RemoteConfig{}, err
	}
	rc.Enabled = enabled
	rc.URL = url
	if err := s.repo.SaveRemote(ctx, rc); err != nil {
		return blocklist.RemoteConfig{}, err
	}
	return rc, nil
}

type exportDocument struct {
	Keywords []string `json:"keywords"`
	Channels []string `json:"channels"`
}

// Export returns the blocklist as a document Import and the remote
// fetcher both accept.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	bl, err := s.Blocklist(ctx)
	if err != nil {
		return nil, err
	}
	if bl.IsEmpty() {
		return nil, ErrEmpty
	}
	data, err := json.MarshalIndent(exportDocument{Keywords: bl.Keywords, Channels: bl.Channels}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// Import replaces the blocklist with a document. It is refused while the
// remote list is enabled.
func (s *Service) Import(ctx context.Context, data []byte) (blocklist.Blocklist, error) {
	if err := s.ensureLocal(ctx); err != nil {
		return blocklist.Blocklist{}, err
	}
	bl, err := remote.Decode(data, s.now())
	if err != nil {
		return blocklist.Blocklist{}, &ValidationError{Message: err.Error()}
	}
	return s.store(ctx, bl.Keywords, bl.Channels)
}

func (s *Service) DebugMode(ctx context.Context) bool {
	return s.repo.DebugMode(ctx)
}

func (s *Service) SetDebugMode(ctx context.Context, on bool) error {
	return s.repo.SetDebugMode(ctx, on)
}

func (s *Service) ensureLocal(ctx context.Context) error {
	rc, _, err := s.repo.Remote(ctx)
	if err != nil {
		return err
	}
	if rc.Enabled {
		return ErrRemoteEnabled
	}
	return nil
}

func (s *Service) store(ctx context.Context, keywords, channels []string) (blocklist.Blocklist, error) {
	keywords, channels = dropEmpty(keywords), dropEmpty(channels)
	if msg := validate.Keywords(keywords); msg != "" {
		return blocklist.Blocklist{}, &ValidationError{Message: msg}
	}
	if msg := validate.Channels(channels); msg != "" {
		return blocklist.Blocklist{}, &ValidationError{Message: msg}
	}

	bl := blocklist.New(keywords, channels, s.now().UTC())
	if err := s.repo.SaveBlocklist(ctx, bl); err != nil {
		return blocklist.Blocklist{}, err
	}
	return bl, nil
}

func dropEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
