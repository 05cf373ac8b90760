package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "workshop"

type Config struct {
	BlueprintsDir string        `yaml:"blueprints_dir"`
	PiecesDir     string        `yaml:"pieces_dir"`
	History       HistoryConfig `yaml:"history"`
	Log           LogConfig     `yaml:"log"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// envOverrides are read from WORKSHOP_* variables and win over the file.
type envOverrides struct {
	BlueprintsDir  string `envconfig:"BLUEPRINTS_DIR"`
	PiecesDir      string `envconfig:"PIECES_DIR"`
	HistoryDB      string `envconfig:"HISTORY_DB"`
	HistoryEnabled *bool  `envconfig:"HISTORY_ENABLED"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
}

func DefaultConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".workshop"
	}
	return filepath.Join(homeDir, ".workshop")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

func DefaultConfig() *Config {
	dir := DefaultConfigDir()
	return &Config{
		BlueprintsDir: filepath.Join(dir, "blueprints"),
		PiecesDir:     filepath.Join(dir, "pieces"),
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(dir, "history.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the config file (defaults when it does not exist), then
// applies environment overrides. Empty fields fall back to defaults and a
// leading "~/" is expanded.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	env.apply(cfg)

	cfg.fillDefaults()
	cfg.BlueprintsDir = expandPath(cfg.BlueprintsDir)
	cfg.PiecesDir = expandPath(cfg.PiecesDir)
	cfg.History.Path = expandPath(cfg.History.Path)

	return cfg, nil
}

func (e envOverrides) apply(cfg *Config) {
	if e.BlueprintsDir != "" {
		cfg.BlueprintsDir = e.BlueprintsDir
	}
	if e.PiecesDir != "" {
		cfg.PiecesDir = e.PiecesDir
	}
	if e.HistoryDB != "" {
		cfg.History.Path = e.HistoryDB
	}
	if e.HistoryEnabled != nil {
		cfg.History.Enabled = *e.HistoryEnabled
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.BlueprintsDir == "" {
		c.BlueprintsDir = def.BlueprintsDir
	}
	if c.PiecesDir == "" {
		c.PiecesDir = def.PiecesDir
	}
	if c.History.Path == "" {
		c.History.Path = def.History.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

func EnsureConfigDir() error {
	configDir := DefaultConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefaultConfig writes the default config file unless one exists, and
// creates the blueprints and pieces directories it points at.
func WriteDefaultConfig() (string, error) {
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	cfg := DefaultConfig()
	for _, dir := range []string{cfg.BlueprintsDir, cfg.PiecesDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	configPath := DefaultConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return configPath, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
