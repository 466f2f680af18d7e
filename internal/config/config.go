// Package config loads simulation settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ErrInvalid marks a configuration value outside its allowed range.
var ErrInvalid = errors.New("invalid config")

// Config holds the settings of one simulation run.
type Config struct {
	CellHeight  float64 `env:"TRISIM_CELL_HEIGHT" envDefault:"1.0"`
	BoardRadius int     `env:"TRISIM_BOARD_RADIUS" envDefault:"12"`
	Seed        int64   `env:"TRISIM_SEED" envDefault:"42"`
	Cycles      int     `env:"TRISIM_CYCLES" envDefault:"3"`               // 0 = run until interrupted
	DBPath      string  `env:"TRISIM_DB_PATH" envDefault:"data/trisim.db"` // "off" disables the journal
	LogLevel    string  `env:"TRISIM_LOG_LEVEL" envDefault:"info"`
	LogFormat   string  `env:"TRISIM_LOG_FORMAT" envDefault:"auto"` // auto, text or json
	APIPort     int     `env:"TRISIM_API_PORT" envDefault:"0"`      // 0 disables the HTTP API
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		CellHeight:  1.0,
		BoardRadius: 12,
		Seed:        42,
		Cycles:      3,
		DBPath:      "data/trisim.db",
		LogLevel:    "info",
		LogFormat:   "auto",
	}
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv parses environment variables into the provided struct.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.CellHeight <= 0 {
		return fmt.Errorf("%w: TRISIM_CELL_HEIGHT must be positive, got %v", ErrInvalid, c.CellHeight)
	}
	if c.BoardRadius < 1 {
		return fmt.Errorf("%w: TRISIM_BOARD_RADIUS must be at least 1, got %d", ErrInvalid, c.BoardRadius)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("%w: TRISIM_CYCLES must not be negative, got %d", ErrInvalid, c.Cycles)
	}
	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("%w: TRISIM_API_PORT must be 0-65535, got %d", ErrInvalid, c.APIPort)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("%w: TRISIM_LOG_FORMAT must be auto, text or json, got %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: TRISIM_LOG_LEVEL: %v", ErrInvalid, err)
	}
	return level, nil
}

// JournalEnabled reports whether runs are written to the database.
func (c Config) JournalEnabled() bool {
	return c.DBPath != "" && c.DBPath != "off"
}
