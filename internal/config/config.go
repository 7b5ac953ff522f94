// Package config loads vats settings from defaults, an optional YAML file,
// an optional .env file and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vats/internal/engine"
)

// Environment variables recognised by Load.
const (
	EnvDataFile        = "VATS_DATA_FILE"
	EnvLogLevel        = "VATS_LOG_LEVEL"
	EnvUnknownPriority = "VATS_UNKNOWN_PRIORITY"
)

// DefaultDataFile is the record file used when nothing else is configured.
const DefaultDataFile = "headsets.json"

// Config holds every setting the CLI needs.
type Config struct {
	// DataFile is the JSON record file.
	DataFile string `yaml:"data_file" validate:"required"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Priorities maps model names to default priorities (1 = highest).
	Priorities map[string]int `yaml:"priorities" validate:"dive,keys,required,endkeys,gte=1"`

	UnknownPriority int `yaml:"unknown_priority" validate:"gte=1"`
	MinPriority     int `yaml:"min_priority" validate:"gte=1"`
	MaxPriority     int `yaml:"max_priority" validate:"gtefield=MinPriority"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ec := engine.DefaultConfig()
	return &Config{
		DataFile:        DefaultDataFile,
		LogLevel:        "info",
		Priorities:      ec.Priorities,
		UnknownPriority: ec.UnknownPriority,
		MinPriority:     ec.MinPriority,
		MaxPriority:     ec.MaxPriority,
	}
}

// Load builds the configuration. path may be empty or name a missing file,
// in which case only defaults and the environment apply. Unknown YAML keys
// are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var fileCfg Config
	if err := decoder.Decode(&fileCfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fileCfg.DataFile != "" {
		c.DataFile = fileCfg.DataFile
	}
	if fileCfg.LogLevel != "" {
		c.LogLevel = fileCfg.LogLevel
	}
	// A priorities table in the file replaces the built-in one entirely.
	if fileCfg.Priorities != nil {
		c.Priorities = fileCfg.Priorities
	}
	if fileCfg.UnknownPriority != 0 {
		c.UnknownPriority = fileCfg.UnknownPriority
	}
	if fileCfg.MinPriority != 0 {
		c.MinPriority = fileCfg.MinPriority
	}
	if fileCfg.MaxPriority != 0 {
		c.MaxPriority = fileCfg.MaxPriority
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDataFile); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvUnknownPriority); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvUnknownPriority, err)
		}
		c.UnknownPriority = n
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Engine returns the ranking configuration for the engine.
func (c *Config) Engine() engine.Config {
	priorities := make(map[string]int, len(c.Priorities))
	for k, v := range c.Priorities {
		priorities[k] = v
	}
	return engine.Config{
		Priorities:      priorities,
		UnknownPriority: c.UnknownPriority,
		MinPriority:     c.MinPriority,
		MaxPriority:     c.MaxPriority,
	}
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
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
