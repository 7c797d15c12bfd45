package watchmux

import (
	"fmt"
	"time"
)

// Config is the configuration for the Mux.
type Config struct {
	// OpenTimeout bounds how long establishing a live watch against the
	// remote store may take. Registration itself never blocks on this; the
	// watch attaches in the background and the timeout only limits that
	// background establishment.
	//
	// Default: 5 seconds.
	OpenTimeout time.Duration `yaml:"openTimeout"`
}

// DefaultOpenTimeout is the default bound on establishing a live watch.
const DefaultOpenTimeout = 5 * time.Second

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() Config {
	return Config{
		OpenTimeout: DefaultOpenTimeout,
	}
}

// SetDefaults fills in zero-valued fields with defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
}

// Validate checks the configuration for invalid values.
//
// Returns:
//   - error: ErrInvalidConfig (wrapped with detail) if any field is invalid
func (cfg *Config) Validate() error {
	if cfg.OpenTimeout < 0 {
		return fmt.Errorf("%w: OpenTimeout must not be negative, got %v", ErrInvalidConfig, cfg.OpenTimeout)
	}

	return nil
}
