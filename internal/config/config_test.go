package config

import (
	"errors"
	"log/slog"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults %+v, got %+v", Default(), cfg)
	}
	if !cfg.JournalEnabled() {
		t.Fatal("expected journal to be enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRISIM_CELL_HEIGHT", "2.5")
	t.Setenv("TRISIM_SEED", "7")
	t.Setenv("TRISIM_DB_PATH", "off")
	t.Setenv("TRISIM_LOG_LEVEL", "DEBUG")
	t.Setenv("TRISIM_API_PORT", "8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CellHeight != 2.5 || cfg.Seed != 7 || cfg.APIPort != 8080 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.JournalEnabled() {
		t.Fatal("expected journal to be disabled")
	}
	if level, _ := cfg.Level(); level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", level)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("TRISIM_BOARD_RADIUS", "wide")
	if _, err := Load(); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"height": func(c *Config) { c.CellHeight = 0 },
		"radius": func(c *Config) { c.BoardRadius = 0 },
		"cycles": func(c *Config) { c.Cycles = -1 },
		"level":  func(c *Config) { c.LogLevel = "loud" },
		"format": func(c *Config) { c.LogFormat = "xml" },
		"port":   func(c *Config) { c.APIPort = 70000 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
