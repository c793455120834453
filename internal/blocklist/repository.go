package blocklist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"github.com/videogate/videogate/internal/kv"
)

// Storage keys shared with every process that reads the store.
const (
	KeyBlocklist = "blocklist"
	KeyRemote    = "remote"
	KeyDebugMode = "isDebugMode"
)

// Repository reads and replaces the typed documents kept in a kv.Store.
type Repository struct {
	store kv.Store
}

func NewRepository(store kv.Store) *Repository {
	return &Repository{store: store}
}

// Blocklist returns the stored blocklist. ok is false when none was saved.
func (r *Repository) Blocklist(ctx context.Context) (bl Blocklist, ok bool, err error) {
	ok, err = r.load(ctx, KeyBlocklist, &bl)
	return bl, ok, err
}

// Remote returns the stored remote config, or the zero config if none.
func (r *Repository) Remote(ctx context.Context) (rc RemoteConfig, ok bool, err error) {
	ok, err = r.load(ctx, KeyRemote, &rc)
	return rc, ok, err
}

// DebugMode reports the stored debug flag. Read failures count as off.
func (r *Repository) DebugMode(ctx context.Context) bool {
	var on bool
	if _, err := r.load(ctx, KeyDebugMode, &on); err != nil {
		slog.Warn("blocklist: failed to read debug flag", "error", err)
		return false
	}
	return on
}

func (r *Repository) SetDebugMode(ctx context.Context, on bool) error {
	return r.set(ctx, map[string]any{KeyDebugMode: on})
}

func (r *Repository) SaveBlocklist(ctx context.Context, bl Blocklist) error {
	return r.set(ctx, map[string]any{KeyBlocklist: Normalize(bl)})
}

func (r *Repository) SaveRemote(ctx context.Context, rc RemoteConfig) error {
	return r.set(ctx, map[string]any{KeyRemote: rc})
}

// Save replaces the blocklist and remote config in a single store write.
func (r *Repository) Save(ctx context.Context, bl Blocklist, rc RemoteConfig) error {
	return r.set(ctx, map[string]any{
		KeyBlocklist: Normalize(bl),
		KeyRemote:    rc,
	})
}

func (r *Repository) load(ctx context.Context, key string, dst any) (bool, error) {
	values, err := r.store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	raw, ok := values[key]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) set(ctx context.Context, docs map[string]any) error {
	values := make(kv.Values, len(docs))
	for k, v := range docs {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		values[k] = b
	}
	if err := r.store.Set(ctx, values); err != nil {
		return fmt.Errorf("set: %w", err)
	}
	return nil
}
