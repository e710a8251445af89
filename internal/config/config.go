// Package config provides configuration loading for torussim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/torus-coding/internal/engine"
	"github.com/talgya/torus-coding/internal/logging"
	"github.com/talgya/torus-coding/internal/torus"
)

// Config contains all torussim settings.
type Config struct {
	// Simulation is the initial torus configuration. A configuration saved
	// by a previous run takes precedence when the daemon starts.
	Simulation torus.Config `yaml:"simulation"`

	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures the frame loop.
type EngineConfig struct {
	// FrameInterval is the wall-clock time per tick.
	FrameInterval time.Duration `yaml:"frame_interval"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port"`

	// AdminKey is the bearer token for control endpoints. Empty disables them.
	AdminKey string `yaml:"admin_key,omitempty"`
}

// StorageConfig configures the run archive.
type StorageConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path"`
}

// LoggingConfig configures log verbosity.
type LoggingConfig struct {
	// Level is one of "debug", "info" (default), "warn", "error".
	Level string `yaml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Simulation: torus.DefaultConfig(),
		Engine: EngineConfig{
			FrameInterval: engine.DefaultFrameInterval,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/torus.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load returns defaults, overlaid by the YAML file at path (if non-empty),
// then by environment variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file. Missing keys
// keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if c.Engine.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive, got %v", c.Engine.FrameInterval)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port must be 0-65535, got %d", c.Server.Port)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must not be empty")
	}
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}

// applyEnvOverrides applies TORUS_* environment variables. Unparseable
// values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TORUS_TANGENT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.Tangent = f
		}
	}
	if v := os.Getenv("TORUS_RATIO_P"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.RatioP = n
		}
	}
	if v := os.Getenv("TORUS_RATIO_Q"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.RatioQ = n
		}
	}
	if v := os.Getenv("TORUS_USE_RATIO"); v != "" {
		cfg.Simulation.UseRatio = v == "true" || v == "1"
	}
	if v := os.Getenv("TORUS_STEP_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.StepRate = f
		}
	}
	if v := os.Getenv("TORUS_N_WORD_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.NWordLength = n
		}
	}
	if v := os.Getenv("TORUS_FRAME_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Engine.FrameInterval = d
		}
	}
	if v := os.Getenv("TORUS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TORUS_ADMIN_KEY"); v != "" {
		cfg.Server.AdminKey = v
	}
	if v := os.Getenv("TORUS_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TORUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
