// Package remote keeps the blocklist in sync with a document published at a
// URL. Documents have the shape {"keywords": [...], "channels": [...]}.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/videogate/videogate/internal/blocklist"
	"github.com/videogate/videogate/internal/storage"
)

const maxDocumentBytes = 5 << 20

var (
	ErrNotConfigured = errors.New("remote blocklist is not configured")
	ErrStatus        = errors.New("unable to fetch json from the remote url")
	ErrMalformed     = errors.New("unable to parse json, the response is null or misconfigured")
)

// ObjectReader serves s3:// documents.
type ObjectReader interface {
	ReadObject(ctx context.Context, rawURL string) ([]byte, error)
}

// Result is the reply to a fetch request: either a blocklist and the
// updated remote config, or an error and the time of the attempt.
type Result struct {
	Blocklist *blocklist.Blocklist    `json:"blocklist,omitempty"`
	Remote    *blocklist.RemoteConfig `json:"remote,omitempty"`
	Error     string                  `json:"error,omitempty"`
	FetchedAt *time.Time              `json:"fetchedAt,omitempty"`
}

func (r Result) OK() bool { return r.Error == "" }

type Fetcher struct {
	http    *http.Client
	objects ObjectReader
	now     func() time.Time
}

// NewFetcher creates a fetcher. objects may be nil, in which case s3://
// URLs fail.
func NewFetcher(objects ObjectReader) *Fetcher {
	return &Fetcher{
		http:    &http.Client{Timeout: 10 * time.Second},
		objects: objects,
		now:     time.Now,
	}
}

// Fetch downloads and decodes the document at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (blocklist.Blocklist, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(url, storage.Scheme+"://") {
		data, err = f.readObject(ctx, url)
	} else {
		data, err = f.get(ctx, url)
	}
	if err != nil {
		return blocklist.Blocklist{}, err
	}
	return Decode(data, f.now())
}

// Result fetches the document for rc without storing anything.
func (f *Fetcher) Result(ctx context.Context, rc blocklist.RemoteConfig) Result {
	now := f.now().UTC()
	if !rc.Usable() {
		return Result{Error: ErrNotConfigured.Error()}
	}

	bl, err := f.Fetch(ctx, rc.URL)
	if err != nil {
		return Result{Error: err.Error(), FetchedAt: &now}
	}

	rc.LastFetchedAt = &now
	rc.LastError = nil
	return Result{Blocklist: &bl, Remote: &rc}
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create remote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("read remote body: %w", err)
	}
	return data, nil
}

func (f *Fetcher) readObject(ctx context.Context, url string) ([]byte, error) {
	if f.objects == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrStatus)
	}
	data, err := f.objects.ReadObject(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatus, err)
	}
	return data, nil
}

type document struct {
	Keywords *[]*string `json:"keywords"`
	Channels *[]*string `json:"channels"`
}

// Decode parses a blocklist document. Both arrays must be present; entries
// are lowercased and the result is stamped with now.
func Decode(data []byte, now time.Time) (blocklist.Blocklist, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return blocklist.Blocklist{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Keywords == nil || doc.Channels == nil {
		return blocklist.Blocklist{}, ErrMalformed
	}
	keywords, err := entries("keywords", *doc.Keywords)
	if err != nil {
		return blocklist.Blocklist{}, err
	}
	channels, err := entries("channels", *doc.Channels)
	if err != nil {
		return blocklist.Blocklist{}, err
	}
	return blocklist.New(keywords, channels, now.UTC()), nil
}

// entries rejects null elements; an empty keyword would match every title.
func entries(field string, in []*string) ([]string, error) {
	out := make([]string, len(in))
	for i, e := range in {
		if e == nil {
			return nil, fmt.Errorf("%w: %s[%d] is null", ErrMalformed, field, i)
		}
		out[i] = *e
	}
	return out, nil
}
