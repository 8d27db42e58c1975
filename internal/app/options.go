package service

import (
	"time"

	"github.com/okian/handball/internal/adapters/repository"
	"github.com/okian/handball/internal/adapters/spreadsheet"
	"github.com/okian/handball/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithQuietWindow sets the auto-save debounce window.
func WithQuietWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.quietWindow = d
		}
	}
}

// WithCatalogOptions passes options to the file catalog.
func WithCatalogOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.catalogOpts = append(s.catalogOpts, opts...)
	}
}

// WithCodec sets the spreadsheet codec.
func WithCodec(c *spreadsheet.Codec) Option {
	return func(s *Service) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithClock sets the time source used for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
