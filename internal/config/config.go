// Package config provides configuration management for agentry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"
	// AgentryDir is the agentry configuration directory
	AgentryDir = ".agentry"
)

// StoreConfig controls where and how definitions are discovered.
type StoreConfig struct {
	// Dir is the root directory scanned for agent definitions.
	Dir string `yaml:"dir"`

	// Include selects definition files relative to Dir (doublestar globs).
	Include []string `yaml:"include,omitempty"`

	// Exclude removes matches from the include set.
	Exclude []string `yaml:"exclude,omitempty"`

	// ReadTimeout bounds a single definition read.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// ValidateSchema enables JSON Schema validation of frontmatter
	// during the startup scan.
	ValidateSchema bool `yaml:"validate_schema"`
}

// CacheConfig controls the definition loader cache.
type CacheConfig struct {
	// Capacity is the LRU cache size in definitions.
	Capacity int `yaml:"capacity"`
}

// ListingConfig controls discovery pagination.
type ListingConfig struct {
	// DefaultLimit is the page size when a request leaves limit unset.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps a single page.
	MaxLimit int `yaml:"max_limit"`
}

// DatabaseConfig controls the metadata index backend.
type DatabaseConfig struct {
	// Dialect is sqlite or postgres.
	Dialect string `yaml:"dialect"`

	// DSN is the SQLite path (":memory:" for in-process) or Postgres DSN.
	DSN string `yaml:"dsn"`
}

// ServerConfig controls the HTTP transport.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig controls logging output.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// Config represents the agentry configuration.
type Config struct {
	// Version is the config file version
	Version int `yaml:"version"`

	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	Listing  ListingConfig  `yaml:"listing"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			Dir:         "agents",
			Include:     []string{"**/*.md"},
			ReadTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Capacity: 20,
		},
		Listing: ListingConfig{
			DefaultLimit: 20,
			MaxLimit:     100,
		},
		Database: DatabaseConfig{
			Dialect: "sqlite",
			DSN:     ":memory:",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 7466,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the config from the default location, then applies
// environment overrides.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return LoadFrom(filepath.Join(home, AgentryDir, ConfigFileName))
}

// LoadFrom loads the config from a specific path. A missing file yields
// the defaults; environment overrides apply either way.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Listing.DefaultLimit <= 0 {
		return fmt.Errorf("listing.default_limit must be positive, got %d", c.Listing.DefaultLimit)
	}
	if c.Listing.MaxLimit < c.Listing.DefaultLimit {
		return fmt.Errorf("listing.max_limit (%d) must be >= listing.default_limit (%d)",
			c.Listing.MaxLimit, c.Listing.DefaultLimit)
	}
	switch c.Database.Dialect {
	case "sqlite", "sqlite3", "postgres", "postgresql", "pg":
	default:
		return fmt.Errorf("database.dialect %q is not supported", c.Database.Dialect)
	}
	return nil
}

// SaveTo saves the config to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
