package spreadsheet

import "github.com/okian/handball/pkg/logger"

// Option applies a configuration option to the Codec.
type Option func(*Codec)

// WithLogger sets the codec logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRowHeight sets the height, in points, of every written row.
func WithRowHeight(points float64) Option {
	return func(c *Codec) {
		if points > 0 {
			c.rowHeight = points
		}
	}
}
