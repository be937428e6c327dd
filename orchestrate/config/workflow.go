package config

import (
	"fmt"
	"slices"
)

// Engines that can run a workflow.
const (
	// EngineState runs on the in-repo orchestrate/state graph.
	EngineState = "state"

	// EngineFlowgraph runs on github.com/randalmurphal/flowgraph.
	EngineFlowgraph = "flowgraph"
)

// Engines lists the recognized engine names.
func Engines() []string {
	return []string{EngineState, EngineFlowgraph}
}

// WorkflowConfig selects the engine for a workflow and configures the graph
// it compiles into.
//
// Example YAML:
//
//	engine: state
//	graph:
//	  name: basic
//	  observer: noop
//	  max_iterations: 5
type WorkflowConfig struct {
	Engine string      `json:"engine" yaml:"engine"`
	Graph  GraphConfig `json:"graph" yaml:"graph"`
}

// DefaultWorkflowConfig returns a workflow named name on the state engine.
func DefaultWorkflowConfig(name string) WorkflowConfig {
	return WorkflowConfig{
		Engine: EngineState,
		Graph:  DefaultGraphConfig(name),
	}
}

func (c *WorkflowConfig) Merge(source *WorkflowConfig) {
	if source.Engine != "" {
		c.Engine = source.Engine
	}

	c.Graph.Merge(&source.Graph)
}

// Validate rejects unknown engines and non-positive iteration limits.
func (c *WorkflowConfig) Validate() error {
	if !slices.Contains(Engines(), c.Engine) {
		return fmt.Errorf("unknown engine %q (want one of %v)", c.Engine, Engines())
	}
	if c.Graph.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive, got %d", c.Graph.MaxIterations)
	}
	return nil
}
