// Package config loads server configuration from command-line flags, environment
// variables, a .env file and built-in defaults, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	Query     QueryConfig
	RateLimit RateLimitConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// KeyPath is where the hex-encoded PASETO v4 key lives.
	KeyPath string
	// AccessTokenKey is filled in by auth.LoadOrGenerateKey at startup.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration
}

// QueryConfig bounds transaction listing.
type QueryConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// RateLimitConfig throttles the register and login routes per client IP.
type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

// setting binds one configuration key to its flag, env var and default.
// The viper key is the lower-cased env var name, which is also how viper
// keys entries read from a .env file.
type setting struct {
	flag  string
	env   string
	def   string
	usage string
}

func (s setting) key() string { return strings.ToLower(s.env) }

var settings = []setting{
	{"env", "ENV", "development", "Environment (development, staging, production)"},
	{"log-level", "LOG_LEVEL", "info", "Log level (debug, info, warn, error)"},
	{"db", "DATABASE_PATH", "~/Yaba/yaba.db", "Path to the SQLite database"},
	{"port", "SERVER_PORT", "8080", "Server port"},
	{"read-timeout", "SERVER_READ_TIMEOUT", "15s", "HTTP read timeout"},
	{"write-timeout", "SERVER_WRITE_TIMEOUT", "15s", "HTTP write timeout"},
	{"idle-timeout", "SERVER_IDLE_TIMEOUT", "60s", "HTTP idle timeout"},
	{"allowed-origins", "SERVER_ALLOWED_ORIGINS", "*", "Comma-separated CORS origins"},
	{"auth-key-path", "AUTH_KEY_PATH", "", "Path to the access token key (default: next to the database)"},
	{"access-token-duration", "ACCESS_TOKEN_DURATION", "24h", "Access token lifetime"},
	{"default-limit", "QUERY_DEFAULT_LIMIT", "20", "Default page size for transaction listing"},
	{"max-limit", "QUERY_MAX_LIMIT", "500", "Largest accepted page size"},
	{"auth-rate", "RATE_LIMIT_AUTH_PER_MINUTE", "20", "Auth requests allowed per minute per client"},
	{"auth-burst", "RATE_LIMIT_AUTH_BURST", "10", "Auth request burst size"},
}

// LoadConfig loads configuration using the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config from args, the environment, the .env file named by
// --env-file and defaults. Flags win over env vars, env vars over the file.
func Load(args []string) (*Config, error) {
	fset := flag.NewFlagSet("yaba", flag.ContinueOnError)
	values := make(map[string]*string, len(settings))
	for _, s := range settings {
		values[s.key()] = fset.String(s.flag, "", s.usage)
	}
	envFile := fset.String("env-file", ".env", "Path to .env file")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key(), s.def)
	}
	v.AutomaticEnv()

	if err := readEnvFile(v, *envFile); err != nil {
		return nil, err
	}

	for key, val := range values {
		if *val != "" {
			v.Set(key, *val)
		}
	}

	cfg := &Config{
		App:      AppConfig{Environment: v.GetString("env")},
		Logger:   LoggerConfig{Level: v.GetString("log_level")},
		Database: DatabaseConfig{Path: v.GetString("database_path")},
		Server: ServerConfig{
			Port:           v.GetString("server_port"),
			AllowedOrigins: splitList(v.GetString("server_allowed_origins")),
		},
		Auth: AuthConfig{KeyPath: v.GetString("auth_key_path")},
		Query: QueryConfig{
			DefaultLimit: v.GetInt("query_default_limit"),
			MaxLimit:     v.GetInt("query_max_limit"),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: v.GetInt("rate_limit_auth_per_minute"),
			AuthBurst:     v.GetInt("rate_limit_auth_burst"),
		},
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"server_read_timeout", &cfg.Server.ReadTimeout},
		{"server_write_timeout", &cfg.Server.WriteTimeout},
		{"server_idle_timeout", &cfg.Server.IdleTimeout},
		{"access_token_duration", &cfg.Auth.AccessTokenDuration},
	}
	for _, d := range durations {
		raw := v.GetString(d.key)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToUpper(d.key), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// readEnvFile merges KEY=value pairs from path. A missing file is not an error.
func readEnvFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("read env file %s: %w", path, err)
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty")
	}

	if c.Query.DefaultLimit <= 0 || c.Query.MaxLimit <= 0 {
		return errors.New("query limits must be positive")
	}
	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("default limit %d exceeds max limit %d", c.Query.DefaultLimit, c.Query.MaxLimit)
	}

	if c.RateLimit.AuthPerMinute <= 0 || c.RateLimit.AuthBurst <= 0 {
		return errors.New("auth rate limit values must be positive")
	}

	return nil
}

func (c *Config) expandPaths() error {
	dbPath, err := expandPath(c.Database.Path)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}
	c.Database.Path = dbPath

	if c.Auth.KeyPath == "" && dbPath != "" {
		c.Auth.KeyPath = filepath.Join(filepath.Dir(dbPath), "auth.key")
		return nil
	}
	keyPath, err := expandPath(c.Auth.KeyPath)
	if err != nil {
		return fmt.Errorf("invalid auth key path: %w", err)
	}
	c.Auth.KeyPath = keyPath
	return nil
}

// expandPath expands ~ and makes the path absolute. Empty stays empty.
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
