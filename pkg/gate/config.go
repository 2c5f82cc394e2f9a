package gate

import (
	"fmt"
	"time"
)

// Config controls concurrency and timeouts of an evaluation pass.
type Config struct {
	// ComparatorTimeout bounds a single comparator evaluation.
	// Default: 5s.
	ComparatorTimeout time.Duration

	// PassTimeout bounds a whole evaluation pass.
	// Default: 30s.
	PassTimeout time.Duration

	// MaxConcurrency caps the number of comparators running at once.
	// Default: 8.
	MaxConcurrency int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		ComparatorTimeout: 5 * time.Second,
		PassTimeout:       30 * time.Second,
		MaxConcurrency:    8,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ComparatorTimeout <= 0 {
		return fmt.Errorf("%w: comparator timeout must be positive", ErrInvalidConfig)
	}
	if c.PassTimeout <= 0 {
		return fmt.Errorf("%w: pass timeout must be positive", ErrInvalidConfig)
	}
	if c.ComparatorTimeout > c.PassTimeout {
		return fmt.Errorf("%w: comparator timeout cannot exceed pass timeout", ErrInvalidConfig)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: max concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}

// WithComparatorTimeout returns a copy with the comparator timeout set.
func (c Config) WithComparatorTimeout(d time.Duration) *Config {
	c.ComparatorTimeout = d
	return &c
}

// WithPassTimeout returns a copy with the pass timeout set.
func (c Config) WithPassTimeout(d time.Duration) *Config {
	c.PassTimeout = d
	return &c
}

// WithMaxConcurrency returns a copy with the concurrency cap set.
func (c Config) WithMaxConcurrency(n int) *Config {
	c.MaxConcurrency = n
	return &c
}
