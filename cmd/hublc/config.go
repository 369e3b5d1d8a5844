package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/neurodesk/hublc/pkg/hubl"
	"github.com/neurodesk/hublc/pkg/validator"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "hublc.yaml"

var logLevels = []string{"debug", "info", "warn", "error"}

type hublcConfig struct {
	LogLevel      string         `yaml:"log_level,omitempty"`
	Session       string         `yaml:"session,omitempty"`
	CacheDir      string         `yaml:"cache_dir,omitempty"`
	WatchDebounce time.Duration  `yaml:"watch_debounce,omitempty"`
	Variables     map[string]any `yaml:"variables,omitempty"`
}

func defaultConfig() hublcConfig {
	cacheDir := ""
	if dir, err := os.UserCacheDir(); err == nil {
		cacheDir = filepath.Join(dir, "hublc")
	}
	return hublcConfig{
		LogLevel:      "warn",
		CacheDir:      cacheDir,
		WatchDebounce: 200 * time.Millisecond,
	}
}

func (c *hublcConfig) loadConfig(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding config file: %w", err)
	}
	return nil
}

func (c *hublcConfig) Validate() error {
	return validator.All(
		validator.NotEmpty(c.LogLevel, "log_level"),
		validator.MatchesAllowed(c.LogLevel, logLevels, "log_level"),
		validator.HasNoDirectives(c.Session, "session"),
		validator.HasNoDirectives(c.CacheDir, "cache_dir"),
		validator.NotNegative(c.WatchDebounce, "watch_debounce"),
		validator.MapDict(c.Variables, func(name string, _ any) error {
			return validator.Identifier(name, "variable name")
		}),
	)
}

func (c *hublcConfig) slogLevel() slog.Level {
	var level slog.Level
	// Validated against logLevels, which all parse.
	_ = level.UnmarshalText([]byte(c.LogLevel))
	return level
}

// seed binds the configured variables in scope.
func (c *hublcConfig) seed(scope *hubl.Scope) {
	for name, v := range c.Variables {
		scope.Set(name, hubl.FromGo(v))
	}
}

// loadHublcConfig reads the config file named by --config. The default file
// is optional; an explicitly named one is not.
func loadHublcConfig(path string, explicit bool) (hublcConfig, error) {
	cfg := defaultConfig()
	if err := cfg.loadConfig(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}
