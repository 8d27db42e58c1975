// Package repository keeps the catalog of named score files and their payloads
// on top of a key/value store.
package repository

import (
	"time"

	"github.com/okian/handball/pkg/logger"
)

// Default storage keys.
const (
	DefaultCatalogKey    = "handball-files-index"
	DefaultPayloadPrefix = "handball-file-"
)

// Option applies a configuration option to the Catalog.
type Option func(*Catalog)

// WithCatalogKey sets the key the file list is stored under.
func WithCatalogKey(key string) Option {
	return func(c *Catalog) {
		if key != "" {
			c.catalogKey = key
		}
	}
}

// WithPayloadPrefix sets the key prefix of file payloads.
func WithPayloadPrefix(prefix string) Option {
	return func(c *Catalog) {
		if prefix != "" {
			c.payloadPrefix = prefix
		}
	}
}

// WithClock sets the time source used for lastModified stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator sets the file id generator.
func WithIDGenerator(gen func() string) Option {
	return func(c *Catalog) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// WithLogger sets the catalog logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.log = l
		}
	}
}
