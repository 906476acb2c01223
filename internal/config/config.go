package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the signaling server's runtime settings. Everything
// beyond this (session records, auth, email) belongs to the CRUD layer.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8080".
	ListenAddr string `mapstructure:"listen_addr"`

	// AllowedOrigin is the browser origin accepted for websocket
	// upgrades. "*" disables the check for development.
	AllowedOrigin string `mapstructure:"allowed_origin"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads the optional YAML config file and SIGNALING_* environment
// overrides. Defaults suit local development.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("allowed_origin", "*")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("signaling")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
