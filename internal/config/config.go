package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"zoomtier/core-go/internal/thresholds"
)

type Cache struct {
	// Capacity bounds the resolution cache; 0 means unbounded.
	Capacity int `yaml:"capacity"`
}

type Config struct {
	HTTPAddr      string             `yaml:"http_addr"`
	LogLevel      string             `yaml:"log_level"`
	Debug         bool               `yaml:"debug"`
	ViewportWidth int                `yaml:"viewport_width"`
	Cache         Cache              `yaml:"cache"`
	Thresholds    thresholds.Partial `yaml:"thresholds"`

	// Path is the file the config was read from, empty when only env and
	// defaults were used.
	Path string `yaml:"-"`
}

func Defaults() Config {
	return Config{
		HTTPAddr: ":8081",
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (skipped when path is empty) and then
// applies env overrides.
func Load(path string) (Config, error) {
	return load(path, os.Getenv)
}

// FromEnv loads the file named by CONFIG_PATH, if any, plus env overrides.
func FromEnv() (Config, error) {
	return Load(os.Getenv("CONFIG_PATH"))
}

func load(path string, getenv func(string) string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
		cfg.Path = path
	}

	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	cfg.HTTPAddr = envOr(getenv, "HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envOr(getenv, "LOG_LEVEL", cfg.LogLevel)

	if v := strings.TrimSpace(getenv("DEBUG")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	if v := strings.TrimSpace(getenv("CACHE_CAPACITY")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_CAPACITY: %w", err)
		}
		cfg.Cache.Capacity = n
	}
	if v := strings.TrimSpace(getenv("VIEWPORT_WIDTH")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VIEWPORT_WIDTH: %w", err)
		}
		cfg.ViewportWidth = n
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be >= 0, got %d", c.Cache.Capacity))
	}
	if c.ViewportWidth < 0 {
		errs = append(errs, fmt.Errorf("viewport_width must be >= 0, got %d", c.ViewportWidth))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http_addr must not be empty"))
	}
	return errors.Join(errs...)
}

func envOr(getenv func(string) string, key, fallback string) string {
	v := getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
