// Package config provides configuration for the conditions service and CLI.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// DBPasswordEnv names the environment variable holding the database
// password. The password is never read from config files.
const DBPasswordEnv = "FC_DB_PASSWORD"

// ServiceConfig holds configuration for the gRPC conditions service.
type ServiceConfig struct {
	Host            string
	Port            int
	MaxConnections  int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DataDir         string
	AuditEnabled    bool

	DatabaseURL string

	LogLevel  string
	LogFormat string
}

// DefaultServiceConfig returns configuration with default values.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Host:            "0.0.0.0",
		Port:            50051,
		MaxConnections:  1000,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		DataDir:         "./data",
		AuditEnabled:    true,
		DatabaseURL:     "sqlite://./data/conditions.db",
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Address returns the listen address host:port.
func (c *ServiceConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ResolvedDatabaseURL returns DatabaseURL with the password from
// FC_DB_PASSWORD applied to postgres URLs that carry a user but no password.
func (c *ServiceConfig) ResolvedDatabaseURL() (string, error) {
	password := os.Getenv(DBPasswordEnv)
	if password == "" {
		return c.DatabaseURL, nil
	}

	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	if u.Scheme != "postgres" || u.User == nil {
		return c.DatabaseURL, nil
	}
	if _, set := u.User.Password(); set {
		return "", fmt.Errorf("database password given in both the URL and %s", DBPasswordEnv)
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String(), nil
}
