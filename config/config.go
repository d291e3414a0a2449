// Package config loads server configuration from environment variables
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr   string `mapstructure:"ADDR"`
	Debug  bool   `mapstructure:"DEBUG"`
	Syslog bool   `mapstructure:"SYSLOG"`

	DbDriver    string `mapstructure:"DB_DRIVER"`
	PostgresDsn string `mapstructure:"POSTGRES_DSN"`
	SqlitePath  string `mapstructure:"SQLITE_PATH"`
	DbVerbose   bool   `mapstructure:"DB_VERBOSE"`
	// buntdb file keeping sessions.
	KvPath string `mapstructure:"KV_PATH"`

	// Profile cache is disabled when empty.
	RedisUrl string        `mapstructure:"REDIS_URL"`
	RedisTTL time.Duration `mapstructure:"REDIS_TTL"`

	AssetsDir    string `mapstructure:"ASSETS_DIR"`
	PublicUrl    string `mapstructure:"PUBLIC_URL"`
	AllowOrigins string `mapstructure:"ALLOW_ORIGINS"`

	ResetTokenSecret string        `mapstructure:"RESET_TOKEN_SECRET"`
	ResetTokenTTL    time.Duration `mapstructure:"RESET_TOKEN_TTL"`

	DiscordClientId     string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordAuthUri      string `mapstructure:"DISCORD_AUTH_URI"`
}

var defaults = map[string]interface{}{
	"ADDR":                  ":2137",
	"DEBUG":                 false,
	"SYSLOG":                false,
	"DB_DRIVER":             "sqlite",
	"POSTGRES_DSN":          "",
	"SQLITE_PATH":           "biocard.db",
	"DB_VERBOSE":            false,
	"KV_PATH":               "sessions.db",
	"REDIS_URL":             "",
	"REDIS_TTL":             5 * time.Minute,
	"ASSETS_DIR":            "assets",
	"PUBLIC_URL":            "http://localhost:2137",
	"ALLOW_ORIGINS":         "*",
	"RESET_TOKEN_SECRET":    "",
	"RESET_TOKEN_TTL":       time.Hour,
	"DISCORD_CLIENT_ID":     "",
	"DISCORD_CLIENT_SECRET": "",
	"DISCORD_AUTH_URI":      "",
}

// Load reads .env from the working directory when present, then
// environment variables, which take precedence.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read .env: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.PublicUrl = strings.TrimSuffix(c.PublicUrl, "/")
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("ADDR is required")
	}
	switch c.DbDriver {
	case "pg":
		if c.PostgresDsn == "" {
			return errors.New("POSTGRES_DSN is required with DB_DRIVER=pg")
		}
	case "sqlite":
		if c.SqlitePath == "" {
			return errors.New("SQLITE_PATH is required with DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be pg or sqlite, got %q", c.DbDriver)
	}
	if c.KvPath == "" {
		return errors.New("KV_PATH is required")
	}
	if c.AssetsDir == "" {
		return errors.New("ASSETS_DIR is required")
	}
	if c.PublicUrl == "" {
		return errors.New("PUBLIC_URL is required")
	}
	if len(c.ResetTokenSecret) < 32 {
		return errors.New("RESET_TOKEN_SECRET must be at least 32 characters")
	}
	if c.ResetTokenTTL <= 0 {
		return errors.New("RESET_TOKEN_TTL must be positive")
	}
	return nil
}

// DiscordEnabled reports whether every Discord OAuth key is set.
func (c Config) DiscordEnabled() bool {
	return c.DiscordClientId != "" && c.DiscordClientSecret != "" && c.DiscordAuthUri != ""
}
