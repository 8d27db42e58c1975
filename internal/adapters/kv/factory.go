package kv

import (
	"context"
	"fmt"
	"strings"
)

// Config selects and parameterises a backend.
type Config struct {
	Driver      string
	Path        string // fs directory or sqlite file
	PostgresDSN string
	S3          S3Config
}

// Open constructs the backend named by cfg.Driver, wrapped with metrics.
// An empty driver selects the in-memory store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch Driver(strings.ToLower(strings.TrimSpace(cfg.Driver))) {
	case "", DriverMemory:
		s = NewMemory()
	case DriverFS:
		s, err = NewFS(cfg.Path)
	case DriverSQLite:
		s, err = NewSQLite(ctx, cfg.Path)
	case DriverPostgres:
		s, err = NewPostgres(ctx, cfg.PostgresDSN)
	case DriverS3:
		s, err = NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}
