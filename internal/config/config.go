package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/quillbooks/quillbooks/internal/logger"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from file and env. Env var overrides use prefix
// QUILLBOOKS_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "quillbooks", "quillbooks.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("QUILLBOOKS_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "quillbooks"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("QUILLBOOKS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// GetLoggerConfig maps the log section to the logger package's config.
func (c Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{Level: c.Log.Level, Format: c.Log.Format, Output: c.Log.Output}
}
