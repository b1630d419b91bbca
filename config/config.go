// Package config loads magen's workflow configuration: defaults, overridden
// by an optional YAML file, overridden by MAGEN_-prefixed environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Checkpoint store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config holds the workflow settings.
type Config struct {
	// CheckpointPath is the checkpoint file (file store) or database
	// (sqlite store) location.
	CheckpointPath string `yaml:"checkpointPath"`
	// CheckpointStore selects the checkpoint backend: "file" or "sqlite".
	CheckpointStore string `yaml:"checkpointStore"`
	// OutputDirectory is where generated projects are created.
	OutputDirectory string `yaml:"outputDirectory"`
	// EnvVarsPath is the supplemental env_vars file location.
	EnvVarsPath string `yaml:"envVarsPath"`
	// MaxBuildAttempts caps consecutive failed builds.
	MaxBuildAttempts int `yaml:"maxBuildAttempts"`
	// MaxSteps caps total workflow steps per run.
	MaxSteps int `yaml:"maxSteps"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		CheckpointPath:   filepath.Join(home, ".magen", "workflow_state.json"),
		CheckpointStore:  StoreFile,
		OutputDirectory:  ".",
		EnvVarsPath:      filepath.Join(home, ".magen", "env_vars"),
		MaxBuildAttempts: 3,
		MaxSteps:         100,
		LogLevel:         "info",
	}
}

// Load resolves the configuration: defaults, then the YAML file at path (if
// it exists), then environment overrides. An empty path skips the file step.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv("MAGEN_" + key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv("MAGEN_" + key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString("CHECKPOINT_PATH", &c.CheckpointPath)
	setString("CHECKPOINT_STORE", &c.CheckpointStore)
	setString("OUTPUT_DIRECTORY", &c.OutputDirectory)
	setString("ENV_VARS_PATH", &c.EnvVarsPath)
	setString("LOG_LEVEL", &c.LogLevel)
	setInt("MAX_BUILD_ATTEMPTS", &c.MaxBuildAttempts)
	setInt("MAX_STEPS", &c.MaxSteps)
}

func (c *Config) validate() error {
	if c.CheckpointStore != StoreFile && c.CheckpointStore != StoreSQLite {
		return fmt.Errorf("invalid checkpoint store %q: must be %q or %q",
			c.CheckpointStore, StoreFile, StoreSQLite)
	}
	if c.MaxBuildAttempts < 1 {
		return fmt.Errorf("maxBuildAttempts must be at least 1, got %d", c.MaxBuildAttempts)
	}
	return nil
}
