package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS records (
	user_id      TEXT NOT NULL,
	record_type  TEXT NOT NULL,
	sort_key     TEXT NOT NULL DEFAULT '',
	payload      TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (user_id, record_type, sort_key)
);

CREATE TABLE IF NOT EXISTS interventions (
	intervention_id  TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	risk_level       TEXT NOT NULL,
	risk_score       REAL NOT NULL,
	risk_factors     TEXT,
	actions          TEXT,
	message          TEXT,
	created_at       TEXT NOT NULL,
	expires_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_interventions_user
ON interventions(user_id, created_at);
`

// #endregion schema

// #region store-struct
// Store is a key-value record store over SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region put
// Put upserts a single record.
func (s *Store) Put(ctx context.Context, rec Record) error {
	return s.PutBatch(ctx, []Record{rec})
}

// PutBatch upserts records atomically.
func (s *Store) PutBatch(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (user_id, record_type, sort_key, payload, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, record_type, sort_key)
		 DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now().Format(time.RFC3339Nano)
	for _, rec := range recs {
		if rec.Key.UserID == "" || rec.Key.Type == "" {
			return fmt.Errorf("put %s: user and record type are required", rec.Key)
		}
		payload, err := json.Marshal(rec.Payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", rec.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.Key.UserID, string(rec.Key.Type), rec.Key.SortKey, string(payload), now); err != nil {
			return fmt.Errorf("upsert %s: %w", rec.Key, err)
		}
	}
	return tx.Commit()
}

// #endregion put

// #region get
// Get decodes the payload at key into dst.
func (s *Store) Get(ctx context.Context, key Key, dst any) error {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE user_id = ? AND record_type = ? AND sort_key = ?`,
		key.UserID, string(key.Type), key.SortKey,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

// #endregion get

// #region query
// QueryOptions narrows a range query over one record type.
type QueryOptions struct {
	After      string // exclusive lower bound on sort key
	Limit      int    // 0 = unlimited
	Descending bool
}

// Query returns raw payloads for (user, type) ordered by sort key.
func (s *Store) Query(ctx context.Context, userID string, typ RecordType, opts QueryOptions) ([]json.RawMessage, error) {
	q := `SELECT payload FROM records WHERE user_id = ? AND record_type = ? AND sort_key > ?`
	if opts.Descending {
		q += ` ORDER BY sort_key DESC`
	} else {
		q += ` ORDER BY sort_key ASC`
	}
	args := []any{userID, string(typ), opts.After}
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s/%s: %w", userID, typ, err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, json.RawMessage(payload))
	}
	return out, rows.Err()
}

// #endregion query

// #region helpers
func sortKeyAt(t time.Time) string {
	return t.UTC().Format(sortLayout)
}

func decodeAll[T any](raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
