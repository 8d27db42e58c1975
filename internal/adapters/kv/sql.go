package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// dialect holds the statements that differ between SQL backends.
type dialect struct {
	driver Driver
	create string
	get    string
	upsert string
	remove string
}

var sqliteDialect = dialect{
	driver: DriverSQLite,
	create: `CREATE TABLE IF NOT EXISTS handball_kv (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`,
	get:    `SELECT payload FROM handball_kv WHERE id = ?`,
	upsert: `INSERT INTO handball_kv (id, payload) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET payload = excluded.payload`,
	remove: `DELETE FROM handball_kv WHERE id = ?`,
}

var postgresDialect = dialect{
	driver: DriverPostgres,
	create: `CREATE TABLE IF NOT EXISTS handball_kv (
		id TEXT PRIMARY KEY,
		payload BYTEA NOT NULL
	)`,
	get:    `SELECT payload FROM handball_kv WHERE id = $1`,
	upsert: `INSERT INTO handball_kv (id, payload) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`,
	remove: `DELETE FROM handball_kv WHERE id = $1`,
}

// sqlStore keeps every key as one row of a two-column table.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*sqlStore, error) {
	if _, err := db.ExecContext(ctx, d.create); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &sqlStore{db: db, d: d}, nil
}

// Get implements Store.
func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(ctx, key); err != nil {
		return nil, false, err
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.d.get, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, true, nil
}

// Set implements Store.
func (s *sqlStore) Set(ctx context.Context, key string, value []byte) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, s.d.upsert, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Remove implements Store.
func (s *sqlStore) Remove(ctx context.Context, key string) error {
	if err := checkKey(ctx, key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.d.remove, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Driver implements Store.
func (s *sqlStore) Driver() Driver { return s.d.driver }

// Close implements Store.
func (s *sqlStore) Close() error { return s.db.Close() }

// DB exposes the underlying connection pool.
func (s *sqlStore) DB() *sql.DB { return s.db }
