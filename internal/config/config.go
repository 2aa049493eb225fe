// Package config provides the Config struct and loader for .promptbench.yaml
// project-level configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/promptbench/promptbench/internal/models"
)

// ConfigFileName is the file Load searches for, walking up from the start
// directory.
const ConfigFileName = ".promptbench.yaml"

// Default values for configuration. New() references them; no other code
// should duplicate them.
const (
	DefaultModel      = "llama3"
	DefaultBaseURL    = "http://localhost:11434"
	DefaultTimeoutSec = 300
	DefaultMaxTokens  = 512

	DefaultHistoryPath = "promptbench.db"

	DefaultServerHost = "localhost"
	DefaultServerPort = 8080
)

// ModelConfig holds model execution settings.
type ModelConfig struct {
	Name       string `yaml:"name,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	TimeoutSec int    `yaml:"timeout_seconds,omitempty"`
	MaxTokens  int    `yaml:"max_tokens,omitempty"`
}

// WeightsConfig holds the scoring weights. Omitted fields keep their
// defaults; the result is renormalized to sum to 1 at use time.
type WeightsConfig struct {
	Accuracy     *float64 `yaml:"accuracy,omitempty"`
	Completeness *float64 `yaml:"completeness,omitempty"`
	Efficiency   *float64 `yaml:"efficiency,omitempty"`
}

// HistoryConfig holds history-store settings.
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// ServerConfig holds web API server settings.
type ServerConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// DatasetConfig holds dataset settings.
type DatasetConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Config is the top-level configuration loaded from .promptbench.yaml.
type Config struct {
	Model   ModelConfig   `yaml:"model,omitempty"`
	Weights WeightsConfig `yaml:"weights,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Dataset DatasetConfig `yaml:"dataset,omitempty"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	return &Config{
		Model: ModelConfig{
			Name:       DefaultModel,
			BaseURL:    DefaultBaseURL,
			TimeoutSec: DefaultTimeoutSec,
			MaxTokens:  DefaultMaxTokens,
		},
		History: HistoryConfig{
			Enabled: boolPtr(false),
			Path:    DefaultHistoryPath,
		},
		Server: ServerConfig{
			Host: DefaultServerHost,
			Port: DefaultServerPort,
		},
	}
}

// BenchmarkWeights resolves the configured weights onto the defaults and
// renormalizes them.
func (c *Config) BenchmarkWeights() models.Weights {
	return models.DefaultWeights().Apply(models.WeightsUpdate{
		Accuracy:     c.Weights.Accuracy,
		Completeness: c.Weights.Completeness,
		Efficiency:   c.Weights.Efficiency,
	})
}

// HistoryEnabled reports whether the history store should be opened.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled != nil && *c.History.Enabled
}

// Load finds .promptbench.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults. If no config
// file is found, returns defaults with a nil error. Real I/O errors (e.g.
// permission denied) are returned to the caller.
func Load(startDir string) (*Config, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for the config file (max 10
// levels). Returns os.ErrNotExist if none is found; propagates real I/O
// errors instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ConfigFileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	if src.Model.Name != "" {
		dst.Model.Name = src.Model.Name
	}
	if src.Model.BaseURL != "" {
		dst.Model.BaseURL = src.Model.BaseURL
	}
	if src.Model.TimeoutSec != 0 {
		dst.Model.TimeoutSec = src.Model.TimeoutSec
	}
	if src.Model.MaxTokens != 0 {
		dst.Model.MaxTokens = src.Model.MaxTokens
	}

	if src.Weights.Accuracy != nil {
		dst.Weights.Accuracy = src.Weights.Accuracy
	}
	if src.Weights.Completeness != nil {
		dst.Weights.Completeness = src.Weights.Completeness
	}
	if src.Weights.Efficiency != nil {
		dst.Weights.Efficiency = src.Weights.Efficiency
	}

	if src.History.Enabled != nil {
		dst.History.Enabled = src.History.Enabled
	}
	if src.History.Path != "" {
		dst.History.Path = src.History.Path
	}

	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}

	if src.Dataset.Path != "" {
		dst.Dataset.Path = src.Dataset.Path
	}
}

func boolPtr(b bool) *bool { return &b }
