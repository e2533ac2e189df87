package machinegen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries the knobs shared by the CLI, the pipeline, and the watch
// host. Zero values fall back to DefaultConfig.
type Config struct {
	// OutDir is the root directory for generated artifacts.
	OutDir string `json:"out_dir" yaml:"out_dir"`
	// ManifestPath locates the incremental-build manifest file.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`
	// Strict escalates naming-convention warnings to errors.
	Strict bool `json:"strict,omitempty" yaml:"strict,omitempty"`
	// BlockOnErrors skips emission for machines whose validation reported
	// errors. Default emits anyway and leaves gating to the caller.
	BlockOnErrors bool `json:"block_on_errors,omitempty" yaml:"block_on_errors,omitempty"`
	// Force regenerates even when the manifest says sources are up to date.
	Force bool `json:"force,omitempty" yaml:"force,omitempty"`
	// Schedule is the cron expression used by the watch host.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// DefaultConfig returns the configuration used when no file is provided.
func DefaultConfig() Config {
	return Config{
		OutDir:       "generated",
		ManifestPath: ".machinegen.manifest.json",
	}
}

// ParseConfig parses YAML (or JSON, a YAML subset) on top of defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, ConfigError(fmt.Sprintf("parse config: %v", err))
	}
	return cfg, cfg.Validate()
}

// Validate checks required fields after defaulting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutDir) == "" {
		return ConfigError("out_dir is required")
	}
	if strings.TrimSpace(c.ManifestPath) == "" {
		return ConfigError("manifest_path is required")
	}
	return nil
}
