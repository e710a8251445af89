package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/torus-coding/internal/torus"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Simulation != torus.DefaultConfig() {
		t.Errorf("simulation defaults = %+v", cfg.Simulation)
	}
	if cfg.Engine.FrameInterval != 16*time.Millisecond {
		t.Errorf("expected frame interval 16ms, got %v", cfg.Engine.FrameInterval)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected level 'info', got '%s'", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "torus.yaml")

	content := `
simulation:
  tangent: 2.414
  ratio_p: 3
  ratio_q: 7
  use_ratio: true
  n_word_length: 4

engine:
  frame_interval: 5ms

server:
  port: 9090
  admin_key: secret

logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	sim := cfg.Simulation
	if sim.Tangent != 2.414 || sim.RatioP != 3 || sim.RatioQ != 7 || !sim.UseRatio || sim.NWordLength != 4 {
		t.Errorf("simulation = %+v", sim)
	}
	// Keys absent from the file keep their defaults.
	if sim.StepRate != 5 || !sim.ShowTrace {
		t.Errorf("defaults lost: step_rate=%v show_trace=%v", sim.StepRate, sim.ShowTrace)
	}
	if cfg.Engine.FrameInterval != 5*time.Millisecond {
		t.Errorf("frame interval = %v", cfg.Engine.FrameInterval)
	}
	if cfg.Server.Port != 9090 || cfg.Server.AdminKey != "secret" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.Path != "data/torus.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("simulation: [not, a, map"), 0644)
	if _, err := LoadFromFile(path); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "torus.yaml")
	os.WriteFile(path, []byte("simulation:\n  tangent: -1\n"), 0644)

	_, err := Load(path)
	if !errors.Is(err, torus.ErrInvalidSlope) {
		t.Errorf("expected ErrInvalidSlope, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TORUS_TANGENT", "1.5")
	t.Setenv("TORUS_USE_RATIO", "1")
	t.Setenv("TORUS_RATIO_P", "4")
	t.Setenv("TORUS_RATIO_Q", "9")
	t.Setenv("TORUS_STEP_RATE", "25")
	t.Setenv("TORUS_N_WORD_LENGTH", "3")
	t.Setenv("TORUS_FRAME_INTERVAL", "10ms")
	t.Setenv("TORUS_PORT", "7000")
	t.Setenv("TORUS_ADMIN_KEY", "k")
	t.Setenv("TORUS_DB_PATH", "/tmp/x.db")
	t.Setenv("TORUS_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sim := cfg.Simulation
	if sim.Tangent != 1.5 || !sim.UseRatio || sim.RatioP != 4 || sim.RatioQ != 9 || sim.StepRate != 25 || sim.NWordLength != 3 {
		t.Errorf("simulation = %+v", sim)
	}
	if cfg.Engine.FrameInterval != 10*time.Millisecond || cfg.Server.Port != 7000 || cfg.Server.AdminKey != "k" {
		t.Errorf("engine/server = %+v %+v", cfg.Engine, cfg.Server)
	}
	if cfg.Storage.Path != "/tmp/x.db" || cfg.Logging.Level != "warn" {
		t.Errorf("storage/logging = %+v %+v", cfg.Storage, cfg.Logging)
	}
}

func TestEnvOverrideIgnoresGarbage(t *testing.T) {
	t.Setenv("TORUS_TANGENT", "abc")
	t.Setenv("TORUS_PORT", "http")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Simulation.Tangent != 1.618 || cfg.Server.Port != 8080 {
		t.Errorf("garbage applied: tangent=%v port=%d", cfg.Simulation.Tangent, cfg.Server.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frame interval", func(c *Config) { c.Engine.FrameInterval = 0 }},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad ratio", func(c *Config) { c.Simulation.RatioQ = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
