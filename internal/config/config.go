package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/yaakapp/yaaksync/internal/utils"
	"gopkg.in/yaml.v3"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigPath = filepath.Join(home, ".yaaksync", "config.yaml")
	DefaultDataDir    = filepath.Join(home, ".yaaksync")
	DefaultLogLevel   = "info"

	validLogLevels = []string{"debug", "info", "warn", "error"}
	validDrivers   = []string{DriverSqlite, DriverPostgres}
)

type Config struct {
	DataDir        string `yaml:"data_dir" mapstructure:"data_dir"`
	DatabaseDriver string `yaml:"database_driver" mapstructure:"database_driver"`
	DatabaseDSN    string `yaml:"database_dsn" mapstructure:"database_dsn"`
	LogLevel       string `yaml:"log_level" mapstructure:"log_level"`
	LogFile        string `yaml:"log_file" mapstructure:"log_file"`
	Path           string `yaml:"-" mapstructure:"-"`
}

// Validate resolves paths and fills defaults. It rejects unknown drivers and
// log levels.
func (c *Config) Validate() error {
	var err error

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.DataDir, err = utils.ResolvePath(c.DataDir); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	if c.Path != "" {
		if c.Path, err = utils.ResolvePath(c.Path); err != nil {
			return fmt.Errorf("config path: %w", err)
		}
	}

	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = DriverSqlite
	}
	if !slices.Contains(validDrivers, c.DatabaseDriver) {
		return fmt.Errorf("database driver %q: must be one of %s", c.DatabaseDriver, strings.Join(validDrivers, ", "))
	}

	switch {
	case c.DatabaseDSN == "" && c.DatabaseDriver == DriverSqlite:
		c.DatabaseDSN = filepath.Join(c.DataDir, "yaaksync.db")
	case c.DatabaseDSN == "":
		return errors.New("database dsn is required for postgres")
	case c.DatabaseDriver == DriverSqlite:
		if c.DatabaseDSN, err = utils.ResolvePath(c.DatabaseDSN); err != nil {
			return fmt.Errorf("database dsn: %w", err)
		}
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("log level %q: must be one of %s", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.DataDir, "logs", "yaaksync.log")
	}
	if c.LogFile, err = utils.ResolvePath(c.LogFile); err != nil {
		return fmt.Errorf("log file: %w", err)
	}

	return nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LocksDir is where cross-process sync locks live.
func (c *Config) LocksDir() string {
	return filepath.Join(c.DataDir, "locks")
}

func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Path = path
	return &cfg, nil
}
