// Package config loads application settings.
//
// Settings come from three layers, later ones winning:
//  1. Built-in defaults (Default)
//  2. An optional TOML file passed with --config
//  3. Environment variables (SECRET_KEY, DATABASE_URI, PORT, LOG_LEVEL)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Server contains HTTP settings.
type Server struct {
	Port int `toml:"port"`
	// SecretKey signs form tokens. Required to serve HTTP.
	SecretKey string `toml:"secret_key"`
}

// Database contains storage settings.
type Database struct {
	// URI is a SQLite path. A "sqlite:///" prefix is accepted and stripped.
	URI string `toml:"uri"`
}

// Logging contains log output settings.
type Logging struct {
	Level string `toml:"level"`
}

// Loader contains bulk import settings.
type Loader struct {
	File string `toml:"file"`
}

// Config is the complete application configuration.
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Logging  Logging  `toml:"logging"`
	Loader   Loader   `toml:"loader"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server:   Server{Port: 5000},
		Database: Database{URI: "db.sqlite3"},
		Logging:  Logging{Level: "info"},
		Loader:   Loader{File: "opinions.csv"},
	}
}

// Load reads the optional TOML file at path, then applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv("SECRET_KEY"); ok {
		c.Server.SecretKey = v
	}
	if v, ok := lookupEnv("DATABASE_URI"); ok && v != "" {
		c.Database.URI = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT value %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

func (c *Config) normalize() {
	c.Server.SecretKey = strings.TrimSpace(c.Server.SecretKey)
	c.Database.URI = strings.TrimPrefix(strings.TrimSpace(c.Database.URI), "sqlite:///")
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

// Validate ensures the configuration is usable by every command.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.URI == "" {
		return errors.New("database.uri must be set")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// RequireSecret reports a missing or weak SECRET_KEY. Only commands that
// serve forms need one.
func (c *Config) RequireSecret() error {
	if len(c.Server.SecretKey) < 16 {
		return errors.New("server.secret_key must be at least 16 characters; set SECRET_KEY")
	}
	return nil
}

// SlogLevel parses Logging.Level ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}
