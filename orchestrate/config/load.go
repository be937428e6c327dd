package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Decode unmarshals data into v according to the file extension of path.
func Decode(path string, data []byte, v any) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format: %q", ext)
	}
	return nil
}

// LoadFile reads path and decodes it into v.
func LoadFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return Decode(path, data, v)
}

// LoadWorkflowConfig reads a workflow config file. The result holds only the
// values present in the file; merge it over DefaultWorkflowConfig.
func LoadWorkflowConfig(path string) (*WorkflowConfig, error) {
	var cfg WorkflowConfig
	if err := LoadFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
