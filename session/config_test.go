package session_test

import (
	"testing"

	"github.com/tailored-agentic-units/statekit/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := session.DefaultConfig()

	if cfg.Backend != session.BackendMemory {
		t.Errorf("Backend = %q, want %q", cfg.Backend, session.BackendMemory)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := session.DefaultConfig()

	cfg.Merge(&session.Config{})
	if cfg.Backend != session.BackendMemory {
		t.Errorf("empty source changed Backend to %q", cfg.Backend)
	}

	cfg.Merge(&session.Config{Backend: "redis"})
	if cfg.Backend != "redis" {
		t.Errorf("Backend = %q, want redis", cfg.Backend)
	}
}

func TestNew_FromConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfg         session.Config
		expectError bool
	}{
		{name: "default", cfg: session.DefaultConfig()},
		{name: "empty backend", cfg: session.Config{}},
		{name: "unknown backend", cfg: session.Config{Backend: "redis"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := session.New(&tt.cfg)
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			if s.ID() == "" {
				t.Error("session ID is empty")
			}
		})
	}
}
