package session

import "fmt"

// BackendMemory keeps the session in process memory.
const BackendMemory = "memory"

// Config holds session initialization parameters.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{Backend: BackendMemory}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
}

// New creates a Session from configuration.
func New(cfg *Config) (Session, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemorySession(), nil
	default:
		return nil, fmt.Errorf("unknown session backend: %q", cfg.Backend)
	}
}
