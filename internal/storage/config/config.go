package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"smm/internal/domain"
)

// Config holds global application settings.
type Config struct {
	// ModsDir is the game's mods directory. Everything the tool does
	// happens inside it.
	ModsDir string `yaml:"mods_dir"`
	// CachePath overrides where installed archives are kept for rollback.
	CachePath string `yaml:"cache_path"`
	// SimilarityThreshold tunes fuzzy name matching; 0 means the
	// built-in default.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	// Workers caps batch parallelism; 0 means the built-in default.
	Workers            int `yaml:"workers"`
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds"`
	// KeepVersions is how many archive versions per mod the cache
	// retains.
	KeepVersions int `yaml:"keep_versions"`
}

func defaults() *Config {
	return &Config{
		HTTPTimeoutSeconds: 30,
		KeepVersions:       3,
	}
}

// Load reads configuration from the given directory. A missing file
// means all defaults.
func Load(configDir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// LoadFile reads configuration from an explicit file. Unlike Load, a
// missing file is an error here: the caller named it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	var err error
	if cfg.ModsDir, err = ExpandHome(cfg.ModsDir); err != nil {
		return nil, err
	}
	if cfg.CachePath, err = ExpandHome(cfg.CachePath); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component could act on.
func (c *Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity_threshold %v is not between 0 and 1", domain.ErrInvalidConfig, c.SimilarityThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative", domain.ErrInvalidConfig)
	}
	if c.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("%w: http_timeout_seconds cannot be negative", domain.ErrInvalidConfig)
	}
	if c.KeepVersions < 0 {
		return fmt.Errorf("%w: keep_versions cannot be negative", domain.ErrInvalidConfig)
	}
	return nil
}

// Save writes cfg to configDir as config.yaml, creating the directory
// as needed.
func Save(configDir string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ExpandHome resolves a leading ~/ against the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, path[2:]), nil
}
