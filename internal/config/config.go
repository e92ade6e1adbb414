package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/circle-packer/internal/packing"
	"github.com/eugenenazirov/circle-packer/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"

	LayoutStoreMemory = "memory"
	LayoutStoreRedis  = "redis"
)

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > config file > Environment variables > Defaults
type Config struct {
	Port                 string
	Panel                packing.Inputs
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LayoutStore          string
	LayoutCapacity       int
	Redis                RedisConfig
	LogLevel             string
}

// RedisConfig holds the connection settings of the Redis layout store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// fileConfig is the on-disk structure shared by YAML and TOML files.
// Pointers distinguish an absent key from a zero value.
type fileConfig struct {
	Port                 string          `yaml:"port" toml:"port"`
	Panel                *packing.Inputs `yaml:"panel" toml:"panel"`
	ShutdownGracePeriod  string          `yaml:"shutdown_grace_period" toml:"shutdown_grace_period"`
	ReadHeaderTimeout    string          `yaml:"read_header_timeout" toml:"read_header_timeout"`
	WriteTimeout         string          `yaml:"write_timeout" toml:"write_timeout"`
	IdleTimeout          string          `yaml:"idle_timeout" toml:"idle_timeout"`
	EnableRequestLogging *bool           `yaml:"enable_request_logging" toml:"enable_request_logging"`
	RateLimit            fileRateLimit   `yaml:"rate_limit" toml:"rate_limit"`
	Layouts              fileLayouts     `yaml:"layouts" toml:"layouts"`
	LogLevel             string          `yaml:"log_level" toml:"log_level"`
}

type fileRateLimit struct {
	RPS   *float64 `yaml:"rps" toml:"rps"`
	Burst *int     `yaml:"burst" toml:"burst"`
}

type fileLayouts struct {
	Store    string    `yaml:"store" toml:"store"`
	Capacity int       `yaml:"capacity" toml:"capacity"`
	Redis    fileRedis `yaml:"redis" toml:"redis"`
}

type fileRedis struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	TTL      string `yaml:"ttl" toml:"ttl"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	PanelStr       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	LayoutStore    *string
	RedisAddr      *string
	LogLevel       *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > config file > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables (lowest explicit source)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Config file overrides environment
	if overrides != nil && overrides.ConfigFile != "" {
		fileCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
		if err := applyFileConfig(&cfg, fileCfg); err != nil {
			return Config{}, err
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Panel:                storage.DefaultPanel(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LayoutStore:          LayoutStoreMemory,
		LayoutCapacity:       storage.DefaultLayoutCapacity,
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  7 * 24 * time.Hour,
		},
		LogLevel: defaultLogLevel,
	}
}

// loadFromFile loads a YAML or TOML file, chosen by extension.
func loadFromFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	return &fileCfg, nil
}

// applyFileConfig applies file configuration to the Config struct.
func applyFileConfig(cfg *Config, fileCfg *fileConfig) error {
	if fileCfg.Port != "" {
		cfg.Port = fileCfg.Port
	}

	if fileCfg.Panel != nil {
		cfg.Panel = *fileCfg.Panel
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", fileCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", fileCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", fileCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", fileCfg.IdleTimeout, &cfg.IdleTimeout},
		{"layouts.redis.ttl", fileCfg.Layouts.Redis.TTL, &cfg.Redis.TTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = value
	}

	if fileCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *fileCfg.EnableRequestLogging
	}

	if fileCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *fileCfg.RateLimit.RPS
	}

	if fileCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *fileCfg.RateLimit.Burst
	}

	if fileCfg.Layouts.Store != "" {
		cfg.LayoutStore = strings.ToLower(fileCfg.Layouts.Store)
	}
	if fileCfg.Layouts.Capacity != 0 {
		cfg.LayoutCapacity = fileCfg.Layouts.Capacity
	}
	if fileCfg.Layouts.Redis.Addr != "" {
		cfg.Redis.Addr = fileCfg.Layouts.Redis.Addr
	}
	if fileCfg.Layouts.Redis.Password != "" {
		cfg.Redis.Password = fileCfg.Layouts.Redis.Password
	}
	if fileCfg.Layouts.Redis.DB != 0 {
		cfg.Redis.DB = fileCfg.Layouts.Redis.DB
	}

	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rawPanel := strings.TrimSpace(os.Getenv("PANEL")); rawPanel != "" {
		panel, err := ParsePanel(rawPanel)
		if err != nil {
			return fmt.Errorf("parse PANEL: %w", err)
		}
		cfg.Panel = panel
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if store := strings.TrimSpace(os.Getenv("LAYOUT_STORE")); store != "" {
		cfg.LayoutStore = strings.ToLower(store)
	}

	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		cfg.Redis.Addr = addr
	}

	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.PanelStr != nil && *overrides.PanelStr != "" {
		panel, err := ParsePanel(*overrides.PanelStr)
		if err != nil {
			return fmt.Errorf("parse panel: %w", err)
		}
		cfg.Panel = panel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.LayoutStore != nil && *overrides.LayoutStore != "" {
		cfg.LayoutStore = strings.ToLower(*overrides.LayoutStore)
	}

	if overrides.RedisAddr != nil && *overrides.RedisAddr != "" {
		cfg.Redis.Addr = *overrides.RedisAddr
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if err := cfg.Panel.Validate(); err != nil {
		return fmt.Errorf("default panel: %w", err)
	}
	switch cfg.LayoutStore {
	case LayoutStoreMemory:
		if cfg.LayoutCapacity <= 0 {
			return fmt.Errorf("layout capacity must be positive, got %d", cfg.LayoutCapacity)
		}
	case LayoutStoreRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis layout store requires an address")
		}
		if cfg.Redis.TTL < 0 {
			return fmt.Errorf("redis TTL must be >= 0")
		}
	default:
		return fmt.Errorf("layout store must be %q or %q, got %q", LayoutStoreMemory, LayoutStoreRedis, cfg.LayoutStore)
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// ParsePanel parses "diameter,clearance,width,height" into panel inputs.
func ParsePanel(raw string) (packing.Inputs, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return packing.Inputs{}, fmt.Errorf("expected diameter,clearance,width,height, got %q", raw)
	}

	values := make([]float64, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return packing.Inputs{}, fmt.Errorf("invalid number %q", part)
		}
		values[i] = value
	}

	in := packing.Inputs{Diameter: values[0], Clearance: values[1], Width: values[2], Height: values[3]}
	if err := in.Validate(); err != nil {
		return packing.Inputs{}, err
	}
	return in, nil
}
