package api

import "github.com/okian/handball/pkg/logger"

type serverConfig struct {
	maxUploadBytes int64
	log            logger.Logger
}

// Option configures the API server.
type Option func(*serverConfig)

// WithMaxUploadBytes caps the size of an imported workbook.
func WithMaxUploadBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxUploadBytes = n
		}
	}
}

// WithLogger sets a custom logger for the API.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.log = l
		}
	}
}
