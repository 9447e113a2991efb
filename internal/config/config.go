// Package config loads server configuration from struct defaults, an
// optional YAML file, a .env file, environment variables, and CLI flags,
// in increasing order of precedence.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the server reads, e.g.
// SHELFWISE_SERVER_PORT -> server.port.
const EnvPrefix = "SHELFWISE_"

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelfwise/config.yaml",
}

// Config holds the application configuration.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Logger    LoggerConfig    `koanf:"logger"`
	Data      DataConfig      `koanf:"data"`
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	AI        AIConfig        `koanf:"ai"`
	Recommend RecommendConfig `koanf:"recommend"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `koanf:"level"`
}

// DataConfig locates the database, search index, and token key.
type DataConfig struct {
	Path string `koanf:"path"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`
}

// AuthConfig holds token and policy configuration.
type AuthConfig struct {
	// Hex-encoded 32-byte key. Generated under the data path when empty.
	TokenKey      string        `koanf:"token_key"`
	TokenDuration time.Duration `koanf:"token_duration"`
	// Optional Casbin policy CSV replacing the built-in policy.
	PolicyPath string `koanf:"policy_path"`
}

// AIConfig configures the generative model and its circuit breaker.
type AIConfig struct {
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Temperature float32       `koanf:"temperature"`
	Timeout     time.Duration `koanf:"timeout"`

	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio"`
}

// RecommendConfig holds recommendation settings.
type RecommendConfig struct {
	PageSize int `koanf:"page_size"`
}

// RateLimitConfig holds per-minute request budgets.
type RateLimitConfig struct {
	LoginPerMinute int `koanf:"login_per_minute"`
	AIPerMinute    int `koanf:"ai_per_minute"`
}

// Defaults returns the lowest-precedence configuration layer.
func Defaults() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Data:   DataConfig{Path: "~/.shelfwise"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		Auth: AuthConfig{TokenDuration: 24 * time.Hour},
		AI: AIConfig{
			Model:               "gemini-2.5-flash",
			Temperature:         0.7,
			Timeout:             45 * time.Second,
			BreakerMaxRequests:  1,
			BreakerInterval:     time.Minute,
			BreakerTimeout:      30 * time.Second,
			BreakerMinRequests:  5,
			BreakerFailureRatio: 0.6,
		},
		Recommend: RecommendConfig{PageSize: 10},
		RateLimit: RateLimitConfig{LoginPerMinute: 10, AIPerMinute: 20},
	}
}

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigPath is an explicit YAML file. Falls back to CONFIG_PATH and
	// DefaultConfigPaths.
	ConfigPath string
	// EnvFile is loaded into the process environment when present.
	EnvFile string
	// Overrides are koanf paths set last, typically from CLI flags.
	Overrides map[string]any
}

// Load builds the configuration from every layer and validates it.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(opts.ConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if opts.EnvFile != "" {
		if err := loadEnvFile(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	for path, v := range opts.Overrides {
		if err := k.Set(path, v); err != nil {
			return nil, fmt.Errorf("set %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	expanded, err := expandPath(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	cfg.Data.Path = expanded

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that config values are present and in range.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("app environment is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty")
	}
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if c.Auth.TokenDuration <= 0 {
		return errors.New("auth token duration must be positive")
	}
	if c.Recommend.PageSize < 1 || c.Recommend.PageSize > 100 {
		return fmt.Errorf("recommend page size %d out of range 1..100", c.Recommend.PageSize)
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("ai temperature %.2f out of range 0..2", c.AI.Temperature)
	}
	if c.AI.BreakerFailureRatio <= 0 || c.AI.BreakerFailureRatio > 1 {
		return fmt.Errorf("ai breaker failure ratio %.2f out of range (0, 1]", c.AI.BreakerFailureRatio)
	}
	if c.RateLimit.LoginPerMinute < 1 || c.RateLimit.AIPerMinute < 1 {
		return errors.New("rate limits must be at least 1 per minute")
	}
	return nil
}

// DatabasePath is the SQLite file under the data path.
func (c *Config) DatabasePath() string { return filepath.Join(c.Data.Path, "shelfwise.db") }

// IsProduction reports whether the server runs in production.
func (c *Config) IsProduction() bool { return c.App.Environment == "production" }

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Environment variables that predate the SHELFWISE_ prefix.
var legacyEnv = map[string]string{
	"GEMINI_API_KEY": "ai.api_key",
	"PORT":           "server.port",
}

// envTransformFunc maps SHELFWISE_SECTION_FIELD_NAME to section.field_name.
// Variables it does not recognise map to "" and are skipped.
func envTransformFunc(key string) string {
	if path, ok := legacyEnv[key]; ok {
		return path
	}
	rest, ok := strings.CutPrefix(key, EnvPrefix)
	if !ok {
		return ""
	}
	section, field, ok := strings.Cut(strings.ToLower(rest), "_")
	if !ok || field == "" {
		return ""
	}
	return section + "." + field
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// splitSliceFields turns comma-separated env values into slices.
func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return filepath.Clean(abs), nil
}

// loadEnvFile loads KEY=value lines into the process environment. Variables
// already set win over the file.
func loadEnvFile(path string) error {
	f, err := os.Open(path) //#nosec G304 -- operator-supplied path
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
