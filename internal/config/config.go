// Package config provides configuration management for the PPC analyzer
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	S3       S3Config       `yaml:"s3"`
	Reporter ReporterConfig `yaml:"reporter"`
}

// AnalysisConfig configures the analysis pipeline
type AnalysisConfig struct {
	TargetACoS float64 `yaml:"target_acos"` // percentage (e.g., 20 = 20%)
}

// StoreConfig configures saved analysis storage
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

// S3Config configures reading exports from S3
type S3Config struct {
	Region  string `yaml:"region"`
	RoleARN string `yaml:"role_arn"`
}

// ReporterConfig configures report generation
type ReporterConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to defaults when it does not exist
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	if c.Analysis.TargetACoS == 0 {
		c.Analysis.TargetACoS = 20
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/analyses.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 25
	}
	if c.Reporter.OutputDir == "" {
		c.Reporter.OutputDir = "./reports"
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Analysis.TargetACoS <= 0 {
		return fmt.Errorf("analysis.target_acos must be positive, got %v", c.Analysis.TargetACoS)
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative, got %d", c.Server.MaxUploadMB)
	}
	return nil
}
