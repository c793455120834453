package kv

import (
	"context"
	"fmt"

	"github.com/videogate/videogate/internal/database"
)

// Postgres stores values in the jsonb kv table created by database.Migrate.
type Postgres struct {
	db database.DBTX
}

func NewPostgres(db database.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, keys ...string) (Values, error) {
	out := make(Values, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	rows, err := p.db.Query(ctx,
		`SELECT key, value FROM kv WHERE key = ANY($1)`,
		keys,
	)
	if err != nil {
		return nil, fmt.Errorf("query kv: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan kv: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kv: %w", err)
	}
	return out, nil
}

func (p *Postgres) Set(ctx context.Context, values Values) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	docs := make([]string, 0, len(values))
	for k, v := range values {
		keys = append(keys, k)
		docs = append(docs, string(v))
	}

	if _, err := p.db.Exec(ctx,
		`INSERT INTO kv (key, value)
		 SELECT k, v::jsonb FROM unnest($1::text[], $2::text[]) AS t(k, v)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		keys, docs,
	); err != nil {
		return fmt.Errorf("upsert kv: %w", err)
	}
	return nil
}
