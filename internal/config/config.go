// Package config loads focusplan's YAML configuration with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "FOCUSPLAN"

type Config struct {
	DBPath string     `mapstructure:"db_path"`
	Log    LogConfig  `mapstructure:"log"`
	AI     AIConfig   `mapstructure:"ai"`
	Plan   PlanConfig `mapstructure:"plan"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // used by the TUI; CLI commands log to stderr
}

type AIConfig struct {
	// Timeout bounds each provider request. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// PlanConfig holds fallbacks for new-task forms, used when the stored
// preferences are missing.
type PlanConfig struct {
	DaysAvailable int     `mapstructure:"days_available"`
	HoursPerDay   float64 `mapstructure:"hours_per_day"`
}

// Dir returns the directory holding config, database and log files.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".focusplan"
	}
	return filepath.Join(base, "focusplan")
}

// DefaultPath returns ~/.config/focusplan/config.yaml
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func Default() *Config {
	dir := Dir()
	return &Config{
		DBPath: filepath.Join(dir, "focusplan.db"),
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "focusplan.log"),
		},
		Plan: PlanConfig{
			DaysAvailable: 7,
			HoursPerDay:   2,
		},
	}
}

// Load reads path (DefaultPath when empty) over the defaults, then applies
// FOCUSPLAN_* environment variables, e.g. FOCUSPLAN_LOG_LEVEL. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("ai.timeout", d.AI.Timeout)
	v.SetDefault("plan.days_available", d.Plan.DaysAvailable)
	v.SetDefault("plan.hours_per_day", d.Plan.HoursPerDay)
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("config: db_path is empty")
	}
	if c.AI.Timeout < 0 {
		return fmt.Errorf("config: ai.timeout must not be negative, got %s", c.AI.Timeout)
	}
	if c.Plan.DaysAvailable < 1 {
		return fmt.Errorf("config: plan.days_available must be at least 1, got %d", c.Plan.DaysAvailable)
	}
	if c.Plan.HoursPerDay <= 0 {
		return fmt.Errorf("config: plan.hours_per_day must be positive, got %g", c.Plan.HoursPerDay)
	}
	return nil
}
