// Package config loads the gauth server configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration. Zero values are filled from
// Default before the file is applied, so a partial file is fine.
type Config struct {
	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Auth struct {
		// SecretLength is the generated TOTP secret length in base32
		// characters. Must be a multiple of 8.
		SecretLength int    `yaml:"secret_length"`
		Issuer       string `yaml:"issuer"`
		QRWidth      int    `yaml:"qr_width"`
		QRHeight     int    `yaml:"qr_height"`
	} `yaml:"auth"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.Server.Addr = "127.0.0.1:8080"
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Database.Path = "/var/lib/gauth/gauth.db"
	c.Auth.SecretLength = 32
	c.Auth.Issuer = "gauth"
	c.Auth.QRWidth = 200
	c.Auth.QRHeight = 200
	c.Logging.Level = "info"
	return c
}

// Load reads the file at path over the defaults and validates the result.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Auth.SecretLength <= 0 || c.Auth.SecretLength%8 != 0 {
		return fmt.Errorf("auth.secret_length must be a positive multiple of 8, got %d", c.Auth.SecretLength)
	}
	if c.Auth.QRWidth <= 0 || c.Auth.QRHeight <= 0 {
		return fmt.Errorf("auth.qr_width and auth.qr_height must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
