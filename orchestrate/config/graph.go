package config

// CheckpointConfig controls state persistence during graph execution.
//
//	cfg := config.DefaultGraphConfig("complex")
//	cfg.Checkpoint.Store = "file"
//	cfg.Checkpoint.Path = "/var/lib/statekit/checkpoints"
//	cfg.Checkpoint.Codec = "msgpack"
//	cfg.Checkpoint.Interval = 1
type CheckpointConfig struct {
	// Store names a registered CheckpointStore, or "file" to build a
	// file-backed store rooted at Path.
	Store string `json:"store" yaml:"store"`

	// Interval saves a checkpoint every N node executions (0 = disabled).
	Interval int `json:"interval" yaml:"interval"`

	// Preserve keeps checkpoints after a successful run.
	Preserve bool `json:"preserve" yaml:"preserve"`

	// Path is the root directory of the "file" store.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Codec names the encoding used by the "file" store ("json", "msgpack",
	// "proto").
	Codec string `json:"codec,omitempty" yaml:"codec,omitempty"`
}

// DefaultCheckpointConfig returns a disabled in-memory checkpoint setup.
func DefaultCheckpointConfig() CheckpointConfig {
	return CheckpointConfig{
		Store:    "memory",
		Interval: 0,
		Preserve: false,
		Codec:    "json",
	}
}

func (c *CheckpointConfig) Merge(source *CheckpointConfig) {
	if source.Store != "" {
		c.Store = source.Store
	}

	if source.Interval > 0 {
		c.Interval = source.Interval
	}

	if source.Preserve {
		c.Preserve = source.Preserve
	}

	if source.Path != "" {
		c.Path = source.Path
	}

	if source.Codec != "" {
		c.Codec = source.Codec
	}
}

// GraphConfig configures a state graph.
//
// Example JSON:
//
//	{
//	  "name": "complex",
//	  "observer": "slog",
//	  "max_iterations": 10,
//	  "checkpoint": {"store": "memory", "interval": 1, "preserve": true}
//	}
type GraphConfig struct {
	// Name identifies the graph in events.
	Name string `json:"name" yaml:"name"`

	// Observer names a registered observer ("noop", "slog", ...).
	Observer string `json:"observer" yaml:"observer"`

	// MaxIterations bounds the number of node executions per run.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
}

// DefaultGraphConfig returns the defaults for a graph called name: slog
// observer, 1000 iterations, checkpointing disabled.
func DefaultGraphConfig(name string) GraphConfig {
	return GraphConfig{
		Name:          name,
		Observer:      "slog",
		MaxIterations: 1000,
		Checkpoint:    DefaultCheckpointConfig(),
	}
}

func (c *GraphConfig) Merge(source *GraphConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}

	c.Checkpoint.Merge(&source.Checkpoint)
}
