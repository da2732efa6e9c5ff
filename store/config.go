package store

import "log/slog"

// Config holds configuration for the Store.
type Config struct {
	// TTLAttribute is the stored name of the attribute soft deletes set.
	// Default: "ttl"
	TTLAttribute string

	// Logger receives debug output for every command. Default: slog.Default()
	Logger *slog.Logger

	// Metrics is optional. When nil nothing is recorded.
	Metrics *Metrics
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		TTLAttribute: "ttl",
		Logger:       slog.Default(),
	}
}

// validate ensures config values are usable.
func (c *Config) validate() {
	if c.TTLAttribute == "" {
		c.TTLAttribute = "ttl"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
