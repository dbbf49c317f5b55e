/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package crud

// DefaultPaginationLimit is the page size used when none is configured.
const DefaultPaginationLimit = 20

// Config holds the controller settings. It is fixed once New returns.
type Config struct {
	// PaginationLimit is the page size used by paginated reads without an
	// explicit limit when OffsetAsLimit is disabled.
	PaginationLimit int64

	// OffsetAsLimit makes paginated reads use the offset value as the limit
	// when no limit parameter is given.
	OffsetAsLimit bool
}

// DefaultConfig returns the settings a controller starts from.
func DefaultConfig() Config {
	return Config{
		PaginationLimit: DefaultPaginationLimit,
		OffsetAsLimit:   true,
	}
}

// Option overrides part of the controller configuration.
type Option func(*Config)

// WithPaginationLimit sets the default page size. Non-positive values are ignored.
func WithPaginationLimit(limit int64) Option {
	return func(c *Config) {
		if limit > 0 {
			c.PaginationLimit = limit
		}
	}
}

// WithOffsetAsLimit toggles the offset-as-limit behaviour of paginated reads.
func WithOffsetAsLimit(enabled bool) Option {
	return func(c *Config) {
		c.OffsetAsLimit = enabled
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
		if c.PaginationLimit <= 0 {
			c.PaginationLimit = DefaultPaginationLimit
		}
	}
}

func buildConfig(overrides []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range overrides {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
