// Package config holds the initialization-time settings for graphs and
// workflows.
//
// Configuration exists only while components are being built: observers,
// checkpoint stores, codecs and engines are named by string and resolved
// through registries by the constructors that consume them.
//
// # Merging
//
// Every type has a Default constructor and a Merge method so a loaded file
// can be layered over the defaults:
//
//	cfg := config.DefaultWorkflowConfig("basic")
//	loaded, err := config.LoadWorkflowConfig("workflow.yaml")
//	cfg.Merge(loaded)
//
// Merge copies non-empty strings, positive integers and durations, and true
// booleans from the source. Nested configs merge recursively.
//
// # File formats
//
// Files ending in .json are decoded with encoding/json; .yaml and .yml with
// gopkg.in/yaml.v3. Both formats share the same snake_case field names.
package config
