package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"db-url":     "database.url",
	"log-level":  "log.level",
	"log-format": "log.format",
	"data-dir":   "service.data_dir",
	"port":       "service.port",
	"host":       "service.host",
}

// LoadConfig loads configuration from an optional file and the environment.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	return Load(configPath, nil)
}

// Load loads configuration with CLI flags > environment > config file >
// defaults precedence. Only flags that were set on the command line
// override; flags may be nil.
func Load(configPath string, flags *pflag.FlagSet) (*ServiceConfig, error) {
	v := viper.New()

	d := DefaultServiceConfig()
	v.SetDefault("service.host", d.Host)
	v.SetDefault("service.port", d.Port)
	v.SetDefault("service.max_connections", d.MaxConnections)
	v.SetDefault("service.request_timeout", d.RequestTimeout.String())
	v.SetDefault("service.shutdown_timeout", d.ShutdownTimeout.String())
	v.SetDefault("service.data_dir", d.DataDir)
	v.SetDefault("service.audit_enabled", d.AuditEnabled)
	v.SetDefault("database.url", d.DatabaseURL)
	v.SetDefault("log.level", d.LogLevel)
	v.SetDefault("log.format", d.LogFormat)

	// FC_SERVICE_PORT, FC_DATABASE_URL, FC_LOG_LEVEL, ...
	v.SetEnvPrefix("FC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &ServiceConfig{
		Host:            v.GetString("service.host"),
		Port:            v.GetInt("service.port"),
		MaxConnections:  v.GetInt("service.max_connections"),
		RequestTimeout:  v.GetDuration("service.request_timeout"),
		ShutdownTimeout: v.GetDuration("service.shutdown_timeout"),
		DataDir:         v.GetString("service.data_dir"),
		AuditEnabled:    v.GetBool("service.audit_enabled"),
		DatabaseURL:     v.GetString("database.url"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		LogFormat:       strings.ToLower(v.GetString("log.format")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks ranges and the allowed log settings.
func validateConfig(cfg *ServiceConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %v", cfg.ShutdownTimeout)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database.url is required")
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return fmt.Errorf("log level must be one of %v, got %q", logLevels, cfg.LogLevel)
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return fmt.Errorf("log format must be one of %v, got %q", logFormats, cfg.LogFormat)
	}
	return nil
}

// validateNoSecretsInConfig keeps the database password environment-only.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("db_password") || v.InConfig("database.password") {
		return fmt.Errorf("database passwords not allowed in config files (use %s environment variable)", DBPasswordEnv)
	}
	return nil
}
