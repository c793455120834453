// Package kv adapts flat key-value engines to the whole-object get/set
// contract the blocklist state is stored under.
package kv

import (
	"context"
	"errors"
)

// Values maps keys to raw JSON documents. A key missing from a Get result
// has never been set.
type Values map[string][]byte

// Store is a flat key-value store. Set replaces each given key wholesale;
// there are no partial or transactional updates across calls.
type Store interface {
	Get(ctx context.Context, keys ...string) (Values, error)
	Set(ctx context.Context, values Values) error
}

var ErrUnsupported = errors.New("unsupported store url")
