// Package config loads the startup configuration from config.yaml in the
// user config directory.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/tomato/internal/store"
)

const (
	appName        = "tomato"
	configFileName = "config.yaml"
)

// Config holds options read before the database is opened. Timer lengths
// are not here; they live in the settings table.
type Config struct {
	DBPath      string `yaml:"db_path"`
	LogPath     string `yaml:"log_path"`
	LogLevel    string `yaml:"log_level"`
	Bell        bool   `yaml:"bell"`
	ReportFocus bool   `yaml:"report_focus"`
}

// Default returns the configuration used when no file exists.
func Default() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return Config{}, fmt.Errorf("resolve database path: %w", err)
	}
	return Config{
		DBPath:      dbPath,
		LogPath:     filepath.Join(dir, appName+".log"),
		LogLevel:    "info",
		Bell:        true,
		ReportFocus: true,
	}, nil
}

// Dir returns ~/.config/tomato (or the platform equivalent).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// Path returns the default config file location.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads path over the defaults. A missing file is not an error.
// An empty path means the default location.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		if path, err = Path(); err != nil {
			return cfg, err
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.LogPath = expandHome(cfg.LogPath)
	return cfg, nil
}

// EnsureFile writes the defaults to path (the default location when empty)
// if no config file exists yet. It reports whether a file was created.
func EnsureFile(path string) (bool, error) {
	if path == "" {
		var err error
		if path, err = Path(); err != nil {
			return false, err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg, err := Default()
	if err != nil {
		return false, err
	}
	if err := Save(path, cfg); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Level maps log_level to a slog level; unknown values mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
