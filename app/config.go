package app

import (
	"fmt"

	"github.com/tailored-agentic-units/statekit/orchestrate/config"
	"github.com/tailored-agentic-units/statekit/server"
	"github.com/tailored-agentic-units/statekit/session"
)

// WorkflowsConfig configures both workflows and the helpers that drive them.
type WorkflowsConfig struct {
	Basic   config.WorkflowConfig `json:"basic" yaml:"basic"`
	Complex config.WorkflowConfig `json:"complex" yaml:"complex"`
	Repeat  config.RepeatConfig   `json:"repeat" yaml:"repeat"`
	Batch   config.BatchConfig    `json:"batch" yaml:"batch"`
}

// Config holds initialization parameters for every runtime subsystem.
// Each section delegates to that subsystem's config-driven constructor.
//
// Example YAML:
//
//	workflow:
//	  basic:
//	    engine: flowgraph
//	  complex:
//	    graph:
//	      checkpoint: {store: file, path: ./checkpoints, codec: msgpack, interval: 1}
//	session:
//	  backend: memory
//	server:
//	  addr: 127.0.0.1:8080
type Config struct {
	Workflow WorkflowsConfig `json:"workflow" yaml:"workflow"`
	Session  session.Config  `json:"session" yaml:"session"`
	Server   server.Config   `json:"server" yaml:"server"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Workflow: WorkflowsConfig{
			Basic:   config.DefaultWorkflowConfig("basic"),
			Complex: config.DefaultWorkflowConfig("complex"),
			Repeat:  config.DefaultRepeatConfig(),
			Batch:   config.DefaultBatchConfig(),
		},
		Session: session.DefaultConfig(),
		Server:  server.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Workflow.Basic.Merge(&source.Workflow.Basic)
	c.Workflow.Complex.Merge(&source.Workflow.Complex)
	c.Workflow.Repeat.Merge(&source.Workflow.Repeat)
	c.Workflow.Batch.Merge(&source.Workflow.Batch)
	c.Session.Merge(&source.Session)
	c.Server.Merge(&source.Server)
}

// SetEngine selects engine for both workflows.
func (c *Config) SetEngine(engine string) {
	c.Workflow.Basic.Engine = engine
	c.Workflow.Complex.Engine = engine
}

// SetObserver selects the named observer for every subsystem that resolves
// one by name.
func (c *Config) SetObserver(name string) {
	c.Workflow.Basic.Graph.Observer = name
	c.Workflow.Complex.Graph.Observer = name
	c.Workflow.Repeat.Observer = name
	c.Workflow.Batch.Observer = name
}

// LoadConfig reads a JSON or YAML config file (chosen by extension), merges
// it over the defaults, and returns the result.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	var loaded Config
	if err := config.LoadFile(filename, &loaded); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
