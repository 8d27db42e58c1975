// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and HANDBALL_* env vars.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store drivers accepted by store_driver.
var storeDrivers = map[string]bool{
	"memory":   true,
	"fs":       true,
	"sqlite":   true,
	"postgres": true,
	"s3":       true,
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver picks the key/value backend: memory, fs, sqlite, postgres or s3.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the directory of the fs backend or the database file of sqlite.
	StorePath string `koanf:"store_path"`

	// PostgresDSN is the connection string of the postgres backend.
	PostgresDSN string `koanf:"postgres_dsn"`

	// S3 backend settings. Credentials come from the AWS default chain.
	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3PathStyle bool   `koanf:"s3_path_style"`
	S3Prefix    string `koanf:"s3_prefix"`

	// CatalogKey and PayloadPrefix name the stored catalog and file payloads.
	CatalogKey    string `koanf:"catalog_key"`
	PayloadPrefix string `koanf:"payload_prefix"`

	// AutosaveQuietMS is the auto-save debounce window in milliseconds.
	AutosaveQuietMS int `koanf:"autosave_quiet_ms"`

	// MaxUploadBytes caps imported workbooks.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		StoreDriver:     "fs",
		StorePath:       "data",
		CatalogKey:      "handball-files-index",
		PayloadPrefix:   "handball-file-",
		AutosaveQuietMS: 300,
		MaxUploadBytes:  10 << 20,
	}
}

// QuietWindow returns the auto-save debounce window.
func (c *Config) QuietWindow() time.Duration {
	return time.Duration(c.AutosaveQuietMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	driver := strings.ToLower(c.StoreDriver)
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case !storeDrivers[driver]:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case (driver == "fs" || driver == "sqlite") && strings.TrimSpace(c.StorePath) == "":
		return fmt.Errorf("%w: store_path is required for %s", ErrInvalidConfig, driver)
	case driver == "s3" && strings.TrimSpace(c.S3Bucket) == "":
		return fmt.Errorf("%w: s3_bucket is required for s3", ErrInvalidConfig)
	case strings.TrimSpace(c.CatalogKey) == "":
		return fmt.Errorf("%w: catalog_key must not be empty", ErrInvalidConfig)
	case c.AutosaveQuietMS <= 0:
		return fmt.Errorf("%w: autosave_quiet_ms must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	return nil
}
