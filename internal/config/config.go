// Package config loads process-wide settings from defaults, an optional
// YAML file, and CB_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/commentboard/internal/db"
)

// EnvPrefix is prepended to every environment override, e.g.
// CB_ADMIN_PASSWORD for admin.password.
const EnvPrefix = "CB"

const redacted = "[redacted]"

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	Admin      AdminConfig      `mapstructure:"admin" yaml:"admin"`
	Redis      RedisConfig      `mapstructure:"redis" yaml:"redis"`
	Moderation ModerationConfig `mapstructure:"moderation" yaml:"moderation"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	DevMode         bool          `mapstructure:"dev_mode" yaml:"dev_mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type AdminConfig struct {
	Password     string        `mapstructure:"password" yaml:"password"`
	PasswordHash string        `mapstructure:"password_hash" yaml:"password_hash"`
	SessionTTL   time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
}

// RedisConfig selects the shared backend for sessions and admission
// locks. An empty URL keeps both in SQLite.
type RedisConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type ModerationConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Load reads configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	if path, err := db.DefaultPath(); err == nil {
		v.SetDefault("database.path", path)
	} else {
		v.SetDefault("database.path", "")
	}

	// Registered so AutomaticEnv can see them during Unmarshal.
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.session_ttl", 3600*time.Second)

	v.SetDefault("redis.url", "")

	v.SetDefault("moderation.provider", "openai")
	v.SetDefault("moderation.api_key", "")
	v.SetDefault("moderation.base_url", "")
	v.SetDefault("moderation.model", "")
	v.SetDefault("moderation.timeout", 5*time.Second)
	v.SetDefault("moderation.max_tokens", 100)
	v.SetDefault("moderation.temperature", 0.1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Admin.SessionTTL != 3600*time.Second {
		return fmt.Errorf("admin.session_ttl is fixed at 1h, got %s", c.Admin.SessionTTL)
	}
	switch c.Moderation.Provider {
	case "openai", "gemini", "none", "":
	default:
		return fmt.Errorf("unknown moderation.provider %q", c.Moderation.Provider)
	}
	if c.Moderation.Timeout <= 0 {
		return fmt.Errorf("moderation.timeout must be positive")
	}
	if c.Moderation.MaxTokens <= 0 {
		return fmt.Errorf("moderation.max_tokens must be positive")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

// Redacted returns a copy with secrets masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return redacted
	}
	c.Admin.Password = mask(c.Admin.Password)
	c.Admin.PasswordHash = mask(c.Admin.PasswordHash)
	c.Moderation.APIKey = mask(c.Moderation.APIKey)
	if c.Redis.URL != "" && strings.Contains(c.Redis.URL, "@") {
		c.Redis.URL = redacted
	}
	return c
}

// YAML renders the configuration with secrets masked.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}
