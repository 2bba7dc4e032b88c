package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks config values for correctness.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Manifest) == "" {
		errs = append(errs, "manifest must not be empty")
	}
	if strings.TrimSpace(c.Sandbox) == "" {
		errs = append(errs, "sandbox must not be empty")
	}
	if c.Watch.DebounceMs < 0 {
		errs = append(errs, "watch.debounce_ms must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}

// Debounce returns the watch debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}
