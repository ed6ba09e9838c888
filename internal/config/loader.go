package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentbridge.yaml"

// File is the on-disk configuration. Durations use Go syntax ("30s", "5m").
type File struct {
	Mode            Mode              `yaml:"mode"`
	Command         string            `yaml:"command"`
	Args            []string          `yaml:"args"`
	Cwd             string            `yaml:"cwd"`
	Env             map[string]string `yaml:"env"`
	ForwardEnv      []string          `yaml:"forward_env"`
	QueryCacheTTL   time.Duration     `yaml:"query_cache_ttl"`
	CleanupInterval time.Duration     `yaml:"cleanup_interval"`
	ResponseTimeout time.Duration     `yaml:"response_timeout"`
	StopTimeout     time.Duration     `yaml:"stop_timeout"`
	LogLevel        string            `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() File {
	return File{
		Mode:            ModeProduction,
		ForwardEnv:      []string{DelegationKeyEnv},
		QueryCacheTTL:   300 * time.Second,
		CleanupInterval: DefaultCleanupInterval,
		StopTimeout:     DefaultStopTimeout,
		LogLevel:        "info",
	}
}

// Load returns a File using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load(path string) (*File, error) {
	cfg := Defaults()

	if path == "" {
		path = DefaultConfigFile
	}

	if err := loadYAML(&cfg, path); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	if err := loadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *File, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *File) error {
	if v := os.Getenv("AGENTBRIDGE_MODE"); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}

	setString(&cfg.Command, "AGENTBRIDGE_COMMAND")
	setString(&cfg.Cwd, "AGENTBRIDGE_CWD")
	setString(&cfg.LogLevel, "AGENTBRIDGE_LOG_LEVEL")

	for name, dst := range map[string]*time.Duration{
		"AGENTBRIDGE_QUERY_CACHE_TTL":  &cfg.QueryCacheTTL,
		"AGENTBRIDGE_CLEANUP_INTERVAL": &cfg.CleanupInterval,
		"AGENTBRIDGE_RESPONSE_TIMEOUT": &cfg.ResponseTimeout,
		"AGENTBRIDGE_STOP_TIMEOUT":     &cfg.StopTimeout,
	} {
		if err := setDuration(dst, name); err != nil {
			return err
		}
	}

	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	*dst = d

	return nil
}

// Validate checks that the configuration is usable.
func (f *File) Validate() error {
	if !f.Mode.Valid() {
		return fmt.Errorf("mode %q: must be %q or %q", f.Mode, ModeDevelopment, ModeProduction)
	}

	if f.QueryCacheTTL < 0 {
		return fmt.Errorf("query_cache_ttl must not be negative")
	}

	if f.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive")
	}

	if f.ResponseTimeout < 0 {
		return fmt.Errorf("response_timeout must not be negative")
	}

	if f.StopTimeout < 0 {
		return fmt.Errorf("stop_timeout must not be negative")
	}

	if _, err := ParseLevel(f.LogLevel); err != nil {
		return err
	}

	return nil
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", name, err)
	}

	return level, nil
}
