package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/tailored-agentic-units/statekit/orchestrate/config"
)

func TestDefaultGraphConfig(t *testing.T) {
	cfg := config.DefaultGraphConfig("test-graph")

	if cfg.Name != "test-graph" {
		t.Errorf("Name = %v, want test-graph", cfg.Name)
	}
	if cfg.Observer != "slog" {
		t.Errorf("Observer = %v, want slog", cfg.Observer)
	}
	if cfg.MaxIterations != 1000 {
		t.Errorf("MaxIterations = %v, want 1000", cfg.MaxIterations)
	}
	if cfg.Checkpoint.Interval != 0 {
		t.Errorf("Checkpoint.Interval = %v, want 0", cfg.Checkpoint.Interval)
	}
	if cfg.Checkpoint.Codec != "json" {
		t.Errorf("Checkpoint.Codec = %v, want json", cfg.Checkpoint.Codec)
	}
}

func TestGraphConfig_Merge(t *testing.T) {
	tests := []struct {
		name   string
		source config.GraphConfig
		check  func(t *testing.T, cfg config.GraphConfig)
	}{
		{
			name:   "empty source keeps defaults",
			source: config.GraphConfig{},
			check: func(t *testing.T, cfg config.GraphConfig) {
				if cfg.Observer != "slog" || cfg.MaxIterations != 1000 {
					t.Errorf("defaults changed: %+v", cfg)
				}
			},
		},
		{
			name:   "observer and iterations override",
			source: config.GraphConfig{Observer: "noop", MaxIterations: 3},
			check: func(t *testing.T, cfg config.GraphConfig) {
				if cfg.Observer != "noop" || cfg.MaxIterations != 3 {
					t.Errorf("override not applied: %+v", cfg)
				}
			},
		},
		{
			name: "checkpoint merges recursively",
			source: config.GraphConfig{Checkpoint: config.CheckpointConfig{
				Store: "file", Path: "/tmp/cp", Interval: 1, Preserve: true, Codec: "msgpack",
			}},
			check: func(t *testing.T, cfg config.GraphConfig) {
				cp := cfg.Checkpoint
				if cp.Store != "file" || cp.Path != "/tmp/cp" || cp.Interval != 1 || !cp.Preserve || cp.Codec != "msgpack" {
					t.Errorf("checkpoint merge = %+v", cp)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultGraphConfig("graph")
			cfg.Merge(&tt.source)
			tt.check(t, cfg)
		})
	}
}

func TestGraphConfig_JSONUnmarshal(t *testing.T) {
	data := `{"name":"complex","observer":"noop","max_iterations":3,"checkpoint":{"store":"memory","interval":1}}`

	var cfg config.GraphConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	if cfg.Name != "complex" || cfg.Observer != "noop" || cfg.MaxIterations != 3 {
		t.Errorf("unmarshaled = %+v", cfg)
	}
	if cfg.Checkpoint.Interval != 1 {
		t.Errorf("Checkpoint.Interval = %d, want 1", cfg.Checkpoint.Interval)
	}
}

func TestWorkflowConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.WorkflowConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*config.WorkflowConfig) {}, wantErr: false},
		{name: "flowgraph engine", mutate: func(c *config.WorkflowConfig) { c.Engine = config.EngineFlowgraph }, wantErr: false},
		{name: "unknown engine", mutate: func(c *config.WorkflowConfig) { c.Engine = "langgraph" }, wantErr: true},
		{name: "zero iterations", mutate: func(c *config.WorkflowConfig) { c.Graph.MaxIterations = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultWorkflowConfig("basic")
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWorkflowConfig(t *testing.T) {
	dir := t.TempDir()

	files := map[string]string{
		"workflow.json": `{"engine":"flowgraph","graph":{"name":"complex","observer":"noop","max_iterations":7}}`,
		"workflow.yaml": "engine: flowgraph\ngraph:\n  name: complex\n  observer: noop\n  max_iterations: 7\n",
		"workflow.yml":  "engine: flowgraph\ngraph:\n  name: complex\n  observer: noop\n  max_iterations: 7\n",
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			loaded, err := config.LoadWorkflowConfig(path)
			if err != nil {
				t.Fatalf("LoadWorkflowConfig() error = %v", err)
			}

			cfg := config.DefaultWorkflowConfig("default")
			cfg.Merge(loaded)

			if cfg.Engine != config.EngineFlowgraph {
				t.Errorf("Engine = %q, want flowgraph", cfg.Engine)
			}
			if cfg.Graph.Name != "complex" || cfg.Graph.Observer != "noop" || cfg.Graph.MaxIterations != 7 {
				t.Errorf("Graph = %+v", cfg.Graph)
			}
			if cfg.Graph.Checkpoint.Store != "memory" {
				t.Errorf("Checkpoint.Store = %q, want default memory", cfg.Graph.Checkpoint.Store)
			}
		})
	}
}

func TestLoadWorkflowConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	toml := filepath.Join(dir, "workflow.toml")
	os.WriteFile(toml, []byte("engine = 'state'"), 0o644)

	broken := filepath.Join(dir, "broken.json")
	os.WriteFile(broken, []byte("{"), 0o644)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.json")},
		{name: "unsupported extension", path: toml},
		{name: "malformed json", path: broken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := config.LoadWorkflowConfig(tt.path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
