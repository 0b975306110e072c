package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Cache.Capacity != 20 {
		t.Errorf("Cache.Capacity = %d, want 20", cfg.Cache.Capacity)
	}
	if cfg.Listing.DefaultLimit != 20 || cfg.Listing.MaxLimit != 100 {
		t.Errorf("Listing = %+v", cfg.Listing)
	}
	if cfg.Store.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Store.ReadTimeout)
	}
	if cfg.Database.Dialect != "sqlite" || cfg.Database.DSN != ":memory:" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Cache.Capacity != Default().Cache.Capacity {
		t.Errorf("Capacity = %d", cfg.Cache.Capacity)
	}
}

func TestLoadFrom_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  dir: /srv/agents
  validate_schema: true
cache:
  capacity: 50
server:
  port: 9000
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Store.Dir != "/srv/agents" {
		t.Errorf("Store.Dir = %q", cfg.Store.Dir)
	}
	if !cfg.Store.ValidateSchema {
		t.Error("ValidateSchema not applied")
	}
	if cfg.Cache.Capacity != 50 {
		t.Errorf("Capacity = %d, want 50", cfg.Cache.Capacity)
	}
	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr())
	}
	// Untouched sections keep defaults.
	if cfg.Listing.MaxLimit != 100 {
		t.Errorf("MaxLimit = %d, want default 100", cfg.Listing.MaxLimit)
	}
}

func TestLoadFrom_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("store: [not a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnvVars(t *testing.T) {
	t.Setenv("AGENTRY_CACHE_CAPACITY", "7")
	t.Setenv("AGENTRY_AGENTS_DIR", "/tmp/agents")
	t.Setenv("AGENTRY_READ_TIMEOUT", "30s")
	t.Setenv("AGENTRY_PORT", "8123")

	cfg := Default()
	overridden := ApplyEnvVars(cfg)

	if cfg.Cache.Capacity != 7 {
		t.Errorf("Capacity = %d, want 7", cfg.Cache.Capacity)
	}
	if cfg.Store.Dir != "/tmp/agents" {
		t.Errorf("Dir = %q", cfg.Store.Dir)
	}
	if cfg.Store.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Store.ReadTimeout)
	}
	if cfg.Server.Port != 8123 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if len(overridden) != 4 {
		t.Errorf("overridden = %v, want 4 paths", overridden)
	}
}

func TestApplyEnvVars_BadValueIgnored(t *testing.T) {
	t.Setenv("AGENTRY_CACHE_CAPACITY", "lots")

	cfg := Default()
	overridden := ApplyEnvVars(cfg)

	if cfg.Cache.Capacity != 20 {
		t.Errorf("Capacity = %d, want default 20", cfg.Cache.Capacity)
	}
	if len(overridden) != 0 {
		t.Errorf("overridden = %v, want none", overridden)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }},
		{"negative default limit", func(c *Config) { c.Listing.DefaultLimit = -1 }},
		{"max below default", func(c *Config) { c.Listing.MaxLimit = 5 }},
		{"unknown dialect", func(c *Config) { c.Database.Dialect = "oracle" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Cache.Capacity = 42

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.Cache.Capacity != 42 {
		t.Errorf("Capacity = %d, want 42", loaded.Cache.Capacity)
	}
}
