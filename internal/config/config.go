// Package config loads zchat's runtime configuration from (in order of
// precedence) environment variables, an optional YAML config file, and
// built-in defaults. A .env file in the working directory is honored.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"zchat/internal/logger"
)

// Config is the resolved client configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	TokenPath string
	LogLevel  string
	LogFile   string
	ForceSync bool
	Plain     bool
}

// Load resolves the configuration. Missing config files are fine;
// unreadable ones are not.
func Load() (*Config, error) {
	// Opportunistic: a missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("base_url", "http://localhost:8000")
	v.SetDefault("timeout_ms", 30000)
	v.SetDefault("token_path", defaultTokenPath())
	v.SetDefault("log_level", "")
	v.SetDefault("log_file", "")
	v.SetDefault("force_sync", false)
	v.SetDefault("plain", false)

	v.SetEnvPrefix("ZCHAT")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir := configDir(); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
	} else {
		logger.Debug("config file loaded", "path", v.ConfigFileUsed())
	}

	return &Config{
		BaseURL:   v.GetString("base_url"),
		Timeout:   time.Duration(v.GetInt("timeout_ms")) * time.Millisecond,
		TokenPath: v.GetString("token_path"),
		LogLevel:  v.GetString("log_level"),
		LogFile:   v.GetString("log_file"),
		ForceSync: v.GetBool("force_sync"),
		Plain:     v.GetBool("plain"),
	}, nil
}

func configDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "zchat")
}

func defaultTokenPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "tokens.json")
}
