// Package kv provides the string-keyed byte store that file payloads and the
// file catalog are persisted in, with memory, filesystem, SQLite, Postgres and
// S3 backends.
package kv

import "context"

// Driver names a backend.
type Driver string

// Supported backends.
const (
	DriverMemory   Driver = "memory"
	DriverFS       Driver = "fs"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
)

// Store is a string-keyed byte store. Implementations are safe for concurrent use.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Driver reports the backend kind.
	Driver() Driver
	// Close releases backend resources.
	Close() error
}
