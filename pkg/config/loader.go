package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML document into cfg, expanding ${ENV_VAR}
// references against the process environment before parsing.
// Unset variables expand to the empty string. Fields absent from
// the document keep whatever cfg already holds, so loading over
// Default() layers the file on top of the defaults.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the CLI flag
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Save writes cfg to path as YAML. Environment references are not
// re-folded: the file records the resolved values.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
