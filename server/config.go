package server

import (
	"fmt"
	"time"
)

// Config configures the RPC listener. Timeouts are Go duration strings
// ("5s", "250ms").
//
// Example YAML:
//
//	addr: 127.0.0.1:8080
//	read_header_timeout: 5s
//	shutdown_timeout: 10s
type Config struct {
	Addr              string `json:"addr" yaml:"addr"`
	ReadHeaderTimeout string `json:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   string `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Addr:              "127.0.0.1:8080",
		ReadHeaderTimeout: "5s",
		ShutdownTimeout:   "10s",
	}
}

func (c *Config) Merge(source *Config) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}

	if source.ReadHeaderTimeout != "" {
		c.ReadHeaderTimeout = source.ReadHeaderTimeout
	}

	if source.ShutdownTimeout != "" {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}

type timeouts struct {
	readHeader time.Duration
	shutdown   time.Duration
}

func (c *Config) timeouts() (timeouts, error) {
	var t timeouts

	readHeader, err := time.ParseDuration(c.ReadHeaderTimeout)
	if err != nil {
		return t, fmt.Errorf("invalid read_header_timeout: %w", err)
	}

	shutdown, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return t, fmt.Errorf("invalid shutdown_timeout: %w", err)
	}

	if readHeader <= 0 || shutdown <= 0 {
		return t, fmt.Errorf("timeouts must be positive")
	}

	t.readHeader = readHeader
	t.shutdown = shutdown
	return t, nil
}

// Validate checks the address and timeouts.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	_, err := c.timeouts()
	return err
}
