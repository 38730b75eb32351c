package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore keeps every document as a JSONB row keyed by its path.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the tables used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	path        TEXT PRIMARY KEY,
	collection  TEXT NOT NULL,
	grp         TEXT NOT NULL,
	data        JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection);
CREATE INDEX IF NOT EXISTS documents_grp_idx ON documents (grp);
CREATE TABLE IF NOT EXISTS reservations (
	path        TEXT PRIMARY KEY,
	owner       TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("docstore migrate: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *PostgresStore) Get(ctx context.Context, path string) (Snapshot, error) {
	if _, err := parseDocPath(path); err != nil {
		return Snapshot{}, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = $1`, path).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("docstore get %s: %w", path, err)
	}
	return Snapshot{Path: path, Data: data}, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	return s.query(ctx, `SELECT path, data FROM documents WHERE collection = $1 ORDER BY path`, collection)
}

func (s *PostgresStore) ListGroup(ctx context.Context, group string) ([]Snapshot, error) {
	return s.query(ctx, `SELECT path, data FROM documents WHERE grp = $1 ORDER BY path`, group)
}

func (s *PostgresStore) Where(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	want, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("docstore where %s.%s: %w", collection, field, err)
	}
	return s.query(ctx,
		`SELECT path, data FROM documents WHERE collection = $1 AND data -> $2 = $3::jsonb ORDER BY path`,
		collection, field, string(want))
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore query: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var data []byte
		if err := rows.Scan(&snap.Path, &data); err != nil {
			return nil, fmt.Errorf("docstore scan: %w", err)
		}
		snap.Data = data
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docstore rows: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

const upsertReplace = `
INSERT INTO documents (path, collection, grp, data)
VALUES ($1, $2, $3, $4::jsonb)
ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

const upsertMerge = `
INSERT INTO documents (path, collection, grp, data)
VALUES ($1, $2, $3, $4::jsonb)
ON CONFLICT (path) DO UPDATE SET data = documents.data || EXCLUDED.data, updated_at = now()`

func (s *PostgresStore) Set(ctx context.Context, path string, doc any) error {
	return s.write(ctx, upsertReplace, path, doc)
}

func (s *PostgresStore) Merge(ctx context.Context, path string, doc any) error {
	return s.write(ctx, upsertMerge, path, doc)
}

func (s *PostgresStore) write(ctx context.Context, q, path string, doc any) error {
	dp, err := parseDocPath(path)
	if err != nil {
		return err
	}
	fields, err := encodeFields(doc)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore write %s: %w", path, err)
	}
	if _, err := s.db.ExecContext(ctx, q, dp.full, dp.collection, dp.group, string(data)); err != nil {
		return fmt.Errorf("docstore write %s: %w", path, err)
	}
	return nil
}

const incrementField = `
INSERT INTO documents (path, collection, grp, data)
VALUES ($1, $2, $3, jsonb_build_object($4::text, $5::bigint))
ON CONFLICT (path) DO UPDATE SET
	data = documents.data || jsonb_build_object($4::text, COALESCE((documents.data ->> $4)::bigint, 0) + $5::bigint),
	updated_at = now()
RETURNING (data ->> $4)::bigint`

func (s *PostgresStore) Increment(ctx context.Context, path, field string, delta int64) (int64, error) {
	dp, err := parseDocPath(path)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.db.QueryRowContext(ctx, incrementField, dp.full, dp.collection, dp.group, field, delta).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("docstore increment %s.%s: %w", path, field, err)
	}
	return n, nil
}

const incrementWithin = `
UPDATE documents SET
	data = data || jsonb_build_object($2::text, COALESCE((data ->> $2)::bigint, 0) + 1),
	updated_at = now()
WHERE path = $1
  AND (COALESCE((data ->> $3)::bigint, 0) <= 0 OR COALESCE((data ->> $2)::bigint, 0) < (data ->> $3)::bigint)
RETURNING (data ->> $2)::bigint`

func (s *PostgresStore) IncrementWithin(ctx context.Context, path, field, limitField string) (int64, error) {
	if _, err := parseDocPath(path); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.QueryRowContext(ctx, incrementWithin, path, field, limitField).Scan(&n)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("docstore bounded increment %s.%s: %w", path, field, err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE path = $1)`, path).Scan(&exists); err != nil {
		return 0, fmt.Errorf("docstore bounded increment %s.%s: %w", path, field, err)
	}
	if !exists {
		return 0, ErrNotFound
	}
	return 0, ErrLimitReached
}

// ---------------------------------------------------------------------------
// Reservations
// ---------------------------------------------------------------------------

const reserve = `
INSERT INTO reservations (path, owner) VALUES ($1, $2)
ON CONFLICT (path) DO UPDATE SET owner = reservations.owner
RETURNING owner`

func (s *PostgresStore) Reserve(ctx context.Context, path, owner string) (bool, error) {
	if _, err := parseDocPath(path); err != nil {
		return false, err
	}
	var holder string
	if err := s.db.QueryRowContext(ctx, reserve, path, owner).Scan(&holder); err != nil {
		return false, fmt.Errorf("docstore reserve %s: %w", path, err)
	}
	return holder == owner, nil
}

func (s *PostgresStore) Release(ctx context.Context, path, owner string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE path = $1 AND owner = $2`, path, owner); err != nil {
		return fmt.Errorf("docstore release %s: %w", path, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
